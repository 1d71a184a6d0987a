package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"archivist/internal/domain"
	"archivist/internal/ports"
)

// TriageStore implements ports.TriageRepository.
// The file is produced by an external generator, so reads skip items that
// do not decode and status updates rewrite only the status field, keeping
// any fields this program does not know about.
type TriageStore struct {
	path        string
	mu          sync.Mutex
	versioner   ports.Versioner
	log         *slog.Logger
	lockTimeout time.Duration
}

// NewTriageStore creates a store backed by path
func NewTriageStore(path string, opts ...StoreOption) *TriageStore {
	o := buildOptions(opts)
	return &TriageStore{
		path:        ExpandHome(path),
		versioner:   o.versioner,
		log:         o.log,
		lockTimeout: o.lockTimeout,
	}
}

type rawTriage struct {
	Generated json.RawMessage   `json:"generated"`
	Items     []json.RawMessage `json:"items"`
}

// Load returns every item that decodes; the rest are logged and skipped
func (s *TriageStore) Load(ctx context.Context) (domain.TriageDocument, error) {
	raw, err := s.readRaw()
	if err != nil {
		var corrupt *domain.CorruptStateError
		if errors.As(err, &corrupt) {
			s.log.Warn("triage file is corrupt, reading as empty", "path", s.path, "err", corrupt.Err)
			return domain.TriageDocument{Items: []domain.TriageItem{}}, nil
		}
		return domain.TriageDocument{}, err
	}

	doc := domain.TriageDocument{Items: make([]domain.TriageItem, 0, len(raw.Items))}
	var generated *string
	if len(raw.Generated) > 0 && json.Unmarshal(raw.Generated, &generated) == nil {
		doc.Generated = generated
	}

	for i, item := range raw.Items {
		var it domain.TriageItem
		if err := json.Unmarshal(item, &it); err != nil || it.ID == "" {
			s.log.Warn("skipping malformed triage item", "path", s.path, "index", i, "err", err)
			continue
		}
		doc.Items = append(doc.Items, it)
	}
	return doc, nil
}

// Get returns one item by id
func (s *TriageStore) Get(ctx context.Context, id string) (domain.TriageItem, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return domain.TriageItem{}, err
	}
	for _, it := range doc.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.TriageItem{}, domain.NotFound("triage item", id)
}

// UpdateStatus sets the status of one item under the file lock
func (s *TriageStore) UpdateStatus(ctx context.Context, id string, status domain.TriageStatus) (domain.TriageItem, error) {
	item, err := s.updateStatus(ctx, id, status)
	if err != nil {
		return domain.TriageItem{}, err
	}
	if s.versioner != nil {
		s.versioner.Commit(s.path, fmt.Sprintf("Triage: mark %s as %s", id, status))
	}
	return item, nil
}

func (s *TriageStore) updateStatus(ctx context.Context, id string, status domain.TriageStatus) (domain.TriageItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := acquireLock(ctx, s.path, s.lockTimeout)
	if err != nil {
		return domain.TriageItem{}, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.TriageItem{}, domain.NotFound("triage item", id)
	}
	if err != nil {
		return domain.TriageItem{}, fmt.Errorf("read triage: %w", err)
	}

	// the top level is kept as a map so unknown keys survive the rewrite
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return domain.TriageItem{}, &domain.CorruptStateError{Path: s.path, Err: err}
	}
	var items []json.RawMessage
	if rawItems, ok := top["items"]; ok {
		if err := json.Unmarshal(rawItems, &items); err != nil {
			return domain.TriageItem{}, &domain.CorruptStateError{Path: s.path, Err: err}
		}
	}

	statusJSON, _ := json.Marshal(status)
	for i, raw := range items {
		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) != nil {
			continue
		}
		var itemID string
		if json.Unmarshal(fields["id"], &itemID) != nil || itemID != id {
			continue
		}

		fields["status"] = statusJSON
		updated, err := json.Marshal(fields)
		if err != nil {
			return domain.TriageItem{}, fmt.Errorf("encode triage item: %w", err)
		}
		items[i] = updated

		var result domain.TriageItem
		if err := json.Unmarshal(updated, &result); err != nil {
			return domain.TriageItem{}, &domain.CorruptStateError{Path: s.path, Err: err}
		}

		top["items"], err = json.Marshal(items)
		if err != nil {
			return domain.TriageItem{}, fmt.Errorf("encode triage items: %w", err)
		}
		out, err := encodeDocument(top)
		if err != nil {
			return domain.TriageItem{}, fmt.Errorf("encode triage: %w", err)
		}
		if err := writeFileAtomic(s.path, out, 0o644); err != nil {
			return domain.TriageItem{}, fmt.Errorf("save triage: %w", err)
		}
		return result, nil
	}

	return domain.TriageItem{}, domain.NotFound("triage item", id)
}

func (s *TriageStore) readRaw() (rawTriage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return rawTriage{}, nil
	}
	if err != nil {
		return rawTriage{}, fmt.Errorf("read triage: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return rawTriage{}, nil
	}

	var raw rawTriage
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawTriage{}, &domain.CorruptStateError{Path: s.path, Err: err}
	}
	return raw, nil
}

var _ ports.TriageRepository = (*TriageStore)(nil)
