package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"archivist/internal/domain"
	"archivist/internal/ports"
)

// ActionStore implements ports.ActionRepository on a single JSON document.
// Mutations hold an in-process mutex and a cross-process file lock for the
// whole load, transform and save. Versioning happens after the lock is released.
type ActionStore struct {
	path        string
	mu          sync.Mutex
	versioner   ports.Versioner
	log         *slog.Logger
	lockTimeout time.Duration
	now         func() time.Time
}

// StoreOption configures the file-backed stores
type StoreOption func(*storeOptions)

type storeOptions struct {
	versioner   ports.Versioner
	log         *slog.Logger
	lockTimeout time.Duration
}

// WithVersioner commits every saved change through v
func WithVersioner(v ports.Versioner) StoreOption {
	return func(o *storeOptions) { o.versioner = v }
}

// WithLogger sets the logger used for corruption and versioning warnings
func WithLogger(l *slog.Logger) StoreOption {
	return func(o *storeOptions) { o.log = l }
}

// WithLockTimeout bounds how long a mutation waits for the file lock
func WithLockTimeout(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.lockTimeout = d }
}

func buildOptions(opts []StoreOption) storeOptions {
	o := storeOptions{lockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// NewActionStore creates a store backed by path
func NewActionStore(path string, opts ...StoreOption) *ActionStore {
	o := buildOptions(opts)
	return &ActionStore{
		path:        ExpandHome(path),
		versioner:   o.versioner,
		log:         o.log,
		lockTimeout: o.lockTimeout,
		now:         time.Now,
	}
}

// Path returns the backing file
func (s *ActionStore) Path() string {
	return s.path
}

// Load reads the queue. A missing file is an empty queue and a corrupt
// file reads as empty with a warning; it is never rewritten by a read.
func (s *ActionStore) Load(ctx context.Context) ([]domain.Action, error) {
	actions, _, err := s.read()
	if err != nil {
		var corrupt *domain.CorruptStateError
		if errors.As(err, &corrupt) {
			s.log.Warn("action store is corrupt, reading as empty", "path", s.path, "err", corrupt.Err)
			return []domain.Action{}, nil
		}
		return nil, err
	}
	return actions, nil
}

// Transact runs fn against the current queue under the store lock
func (s *ActionStore) Transact(ctx context.Context, fn ports.ActionTx) error {
	message, err := s.transact(ctx, fn)
	if err != nil {
		return err
	}
	if message != "" && s.versioner != nil {
		s.versioner.Commit(s.path, message)
	}
	return nil
}

func (s *ActionStore) transact(ctx context.Context, fn ports.ActionTx) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := acquireLock(ctx, s.path, s.lockTimeout)
	if err != nil {
		return "", err
	}
	defer unlock()

	current, kept, err := s.read()
	if err != nil {
		var corrupt *domain.CorruptStateError
		if !errors.As(err, &corrupt) {
			return "", err
		}
		moved, qerr := quarantine(s.path, s.now())
		if qerr != nil {
			return "", fmt.Errorf("quarantine corrupt action store: %w", qerr)
		}
		s.log.Warn("action store was corrupt, moved aside and starting empty",
			"path", s.path, "quarantine", moved, "err", corrupt.Err)
		current = []domain.Action{}
	}

	next, message, err := fn(current)
	if err != nil {
		return "", err
	}
	if message == "" {
		return "", nil
	}

	if next == nil {
		next = []domain.Action{}
	}
	data, err := encodeActions(next, kept)
	if err != nil {
		return "", fmt.Errorf("encode actions: %w", err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return "", fmt.Errorf("save actions: %w", err)
	}
	return message, nil
}

func (s *ActionStore) read() ([]domain.Action, []json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Action{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read actions: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Action{}, nil, nil
	}

	var doc struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, &domain.CorruptStateError{Path: s.path, Err: err}
	}

	actions := make([]domain.Action, 0, len(doc.Actions))
	var kept []json.RawMessage
	for i, raw := range doc.Actions {
		a, err := decodeAction(raw)
		if err != nil {
			s.log.Warn("skipping unreadable action", "path", s.path, "index", i, "err", err)
			kept = append(kept, raw)
			continue
		}
		actions = append(actions, a)
	}
	return actions, kept, nil
}

// storedAction mirrors domain.Action with the timestamps left raw, since
// older writers stored completed as a bare boolean or a free-form string.
type storedAction struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Kind      domain.ActionKind `json:"type"`
	Target    *string           `json:"target"`
	Context   string            `json:"context"`
	Created   json.RawMessage   `json:"created"`
	Completed json.RawMessage   `json:"completed"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func parseStoredTime(v string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func decodeAction(raw json.RawMessage) (domain.Action, error) {
	var st storedAction
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.Action{}, err
	}
	if st.ID == "" {
		return domain.Action{}, errors.New("action has no id")
	}

	a := domain.Action{
		ID:      st.ID,
		Text:    st.Text,
		Kind:    st.Kind,
		Target:  st.Target,
		Context: st.Context,
	}

	var created string
	if err := json.Unmarshal(st.Created, &created); err != nil {
		return domain.Action{}, fmt.Errorf("created: %w", err)
	}
	t, ok := parseStoredTime(created)
	if !ok {
		return domain.Action{}, fmt.Errorf("created: unrecognised time %q", created)
	}
	a.Created = t

	a.Completed = decodeCompleted(st.Completed, a.Created)
	return a, nil
}

// decodeCompleted maps every stored form of completed onto a time. Truthy
// values that carry no usable time complete the action at its creation time.
func decodeCompleted(raw json.RawMessage, created time.Time) *time.Time {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	switch c := v.(type) {
	case nil:
		return nil
	case bool:
		if !c {
			return nil
		}
	case string:
		if c == "" {
			return nil
		}
		if t, ok := parseStoredTime(c); ok {
			return &t
		}
	case float64:
		t := time.Unix(int64(c), 0)
		return &t
	}
	at := created
	return &at
}

// encodeActions writes the queue followed by any records that could not be
// read, so an unreadable record survives the rewrite.
func encodeActions(actions []domain.Action, kept []json.RawMessage) ([]byte, error) {
	if len(kept) == 0 {
		return encodeDocument(domain.ActionsDocument{Actions: actions})
	}
	records := make([]json.RawMessage, 0, len(actions)+len(kept))
	for _, a := range actions {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		records = append(records, b)
	}
	records = append(records, kept...)
	return encodeDocument(struct {
		Actions []json.RawMessage `json:"actions"`
	}{records})
}

var _ ports.ActionRepository = (*ActionStore)(nil)
