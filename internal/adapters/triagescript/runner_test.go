package triagescript

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"archivist/internal/domain"
)

func TestStart_MissingScript(t *testing.T) {
	r := NewRunner(filepath.Join(t.TempDir(), "triage-email.py"), t.TempDir())

	_, err := r.Start(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStart_WritesLog(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "triage.sh")
	if err := os.WriteFile(script, []byte("pwd\necho triaged\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(dir, "triage.log")

	r := NewRunner(script, dir, WithInterpreter(sh), WithLogPath(logPath))
	run, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.PID <= 0 || run.LogPath != logPath {
		t.Errorf("unexpected run %+v", run)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		data, _ := os.ReadFile(logPath)
		if strings.Contains(string(data), "triaged") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("script output never reached the log: %q", data)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestPickInterpreter(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner("x.py", dir)
	if got := r.pickInterpreter(); got != "python3" {
		t.Errorf("got %q, want python3", got)
	}

	venv := filepath.Join(dir, ".venv", "bin", "python")
	if err := os.MkdirAll(filepath.Dir(venv), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(venv, nil, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := r.pickInterpreter(); got != venv {
		t.Errorf("got %q, want %q", got, venv)
	}
}
