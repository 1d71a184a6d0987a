package rate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTokenBucket_FirstCallImmediate(t *testing.T) {
	tb := NewTokenBucket(1)
	defer tb.Stop()

	start := time.Now()
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Errorf("first token should be immediate")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := NewTokenBucket(50)
	defer tb.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 5; i++ {
		if err := tb.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
}

func TestTokenBucket_WaitCanceled(t *testing.T) {
	tb := NewTokenBucket(1)
	defer tb.Stop()
	_ = tb.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
}

func TestTokenBucket_StopTwice(t *testing.T) {
	tb := NewTokenBucket(10)
	tb.Stop()
	tb.Stop()
}
