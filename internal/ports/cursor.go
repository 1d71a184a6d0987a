package ports

import (
	"context"
	"time"
)

// CursorStore persists a single timestamp watermark.
// ok is false when no watermark has been recorded yet.
type CursorStore interface {
	Load(ctx context.Context) (at time.Time, ok bool, err error)
	Save(ctx context.Context, at time.Time) error
}
