package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"archivist/internal/domain"
)

const (
	// DefaultLockTimeout bounds how long a writer waits for another process
	DefaultLockTimeout = 10 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// acquireLock takes an exclusive advisory lock on <path>.lock.
// A new flock handle is used per acquisition so that concurrent holders
// inside one process do not share lock state.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fl := flock.New(path + ".lock")
	locked, err := fl.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s held for more than %s", domain.ErrLockTimeout, fl.Path(), timeout)
		}
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", domain.ErrLockTimeout, fl.Path())
	}

	return func() { _ = fl.Unlock() }, nil
}
