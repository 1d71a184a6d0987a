package signal

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestAlerter_Send(t *testing.T) {
	var gotName string
	var gotArgs []string
	a := NewAlerter("+15550100", WithRunner(func(_ context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		return nil
	}))

	if err := a.Alert(context.Background(), "New email from:\n  - Jane: Dinner"); err != nil {
		t.Fatalf("Alert: %v", err)
	}
	if gotName != "signal-cli" {
		t.Errorf("binary = %q", gotName)
	}
	want := []string{"-a", "+15550100", "send", "-m", "New email from:\n  - Jane: Dinner", "+15550100"}
	if !reflect.DeepEqual(gotArgs, want) {
		t.Errorf("args = %q, want %q", gotArgs, want)
	}
}

func TestAlerter_NoAccount(t *testing.T) {
	called := false
	a := NewAlerter("", WithRunner(func(context.Context, string, ...string) error {
		called = true
		return nil
	}))

	if err := a.Alert(context.Background(), "x"); !errors.Is(err, ErrNoAccount) {
		t.Errorf("expected ErrNoAccount, got %v", err)
	}
	if called {
		t.Error("signal-cli should not run without an account")
	}
}

func TestAlerter_Failure(t *testing.T) {
	boom := errors.New("exit status 1")
	a := NewAlerter("+1", WithBinary("/opt/signal-cli"), WithRunner(func(_ context.Context, name string, _ ...string) error {
		if name != "/opt/signal-cli" {
			t.Errorf("binary = %q", name)
		}
		return boom
	}))

	if err := a.Alert(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped runner error, got %v", err)
	}
}
