package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"archivist/internal/ports"
)

const (
	ingestCursorKey       = "last_check"
	notificationCursorKey = "last_seen"
)

// CursorFile implements ports.CursorStore as a one-key JSON document.
// Timestamps are written as RFC 3339 strings; unix seconds written by
// older tooling are still accepted on read.
type CursorFile struct {
	path string
	key  string
	log  *slog.Logger
}

// NewIngestCursor stores the ingestion watermark as {"last_check": ...}
func NewIngestCursor(path string, opts ...StoreOption) *CursorFile {
	return newCursorFile(path, ingestCursorKey, opts)
}

// NewNotificationCursor stores the notification watermark as {"last_seen": ...}
func NewNotificationCursor(path string, opts ...StoreOption) *CursorFile {
	return newCursorFile(path, notificationCursorKey, opts)
}

func newCursorFile(path, key string, opts []StoreOption) *CursorFile {
	o := buildOptions(opts)
	return &CursorFile{path: ExpandHome(path), key: key, log: o.log}
}

// Load returns the stored watermark. A missing, null or unreadable value
// means no watermark; unreadable files are logged, never rewritten here.
func (c *CursorFile) Load(ctx context.Context) (time.Time, bool, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read cursor: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return time.Time{}, false, nil
	}

	at, ok, err := parseCursor(data, c.key)
	if err != nil {
		c.log.Warn("cursor file is corrupt, ignoring it", "path", c.path, "err", err)
		return time.Time{}, false, nil
	}
	return at, ok, nil
}

func parseCursor(data []byte, key string) (time.Time, bool, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return time.Time{}, false, err
	}
	raw, present := doc[key]
	if !present || string(raw) == "null" {
		return time.Time{}, false, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return time.Time{}, false, nil
		}
		at, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false, err
		}
		return at.UTC(), true, nil
	}

	var unix float64
	if err := json.Unmarshal(raw, &unix); err != nil {
		return time.Time{}, false, fmt.Errorf("%s is neither a timestamp nor a number", key)
	}
	if unix <= 0 {
		return time.Time{}, false, nil
	}
	sec := int64(unix)
	nsec := int64((unix - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true, nil
}

// Save replaces the watermark atomically
func (c *CursorFile) Save(ctx context.Context, at time.Time) error {
	data, err := encodeDocument(map[string]string{c.key: at.UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return fmt.Errorf("encode cursor: %w", err)
	}
	if err := writeFileAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

var _ ports.CursorStore = (*CursorFile)(nil)
