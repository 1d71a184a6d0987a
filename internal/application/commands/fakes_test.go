package commands

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"time"

	"archivist/internal/domain"
	"archivist/internal/ports"
)

type memActions struct {
	mu       sync.Mutex
	actions  []domain.Action
	messages []string
}

func (m *memActions) Load(_ context.Context) ([]domain.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Action(nil), m.actions...), nil
}

func (m *memActions) Transact(_ context.Context, fn ports.ActionTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, msg, err := fn(append([]domain.Action(nil), m.actions...))
	if err != nil {
		return err
	}
	if msg == "" {
		return nil
	}
	m.actions = next
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memActions) Path() string { return "memory" }

type memCursor struct {
	at  *time.Time
	err error
}

func (c *memCursor) Load(_ context.Context) (time.Time, bool, error) {
	if c.err != nil {
		return time.Time{}, false, c.err
	}
	if c.at == nil {
		return time.Time{}, false, nil
	}
	return *c.at, true, nil
}

func (c *memCursor) Save(_ context.Context, at time.Time) error {
	c.at = &at
	return nil
}

type memTriage struct {
	items []domain.TriageItem
}

func (m *memTriage) Load(_ context.Context) (domain.TriageDocument, error) {
	return domain.TriageDocument{Items: m.items}, nil
}

func (m *memTriage) Get(_ context.Context, id string) (domain.TriageItem, error) {
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.TriageItem{}, domain.NotFound("triage item", id)
}

func (m *memTriage) UpdateStatus(_ context.Context, id string, status domain.TriageStatus) (domain.TriageItem, error) {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Status = status
			return m.items[i], nil
		}
	}
	return domain.TriageItem{}, domain.NotFound("triage item", id)
}

type fakeMail struct {
	threads  []ports.ThreadSummary
	messages map[string][]ports.Message
	err      error
	queries  []ports.MailQuery
}

func (f *fakeMail) Sync(_ context.Context) error { return f.err }

func (f *fakeMail) Search(_ context.Context, q ports.MailQuery) ([]ports.ThreadSummary, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.threads, nil
}

func (f *fakeMail) Sender(_ context.Context, threadID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if msgs := f.messages[threadID]; len(msgs) > 0 {
		return msgs[0].From, nil
	}
	return "", domain.NotFound("thread", threadID)
}

func (f *fakeMail) Thread(_ context.Context, threadID string) ([]ports.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.messages[threadID], nil
}

type fakeContacts struct {
	contacts []ports.Contact
}

func (f *fakeContacts) IsKnown(_ context.Context, address string) (bool, error) {
	for _, c := range f.contacts {
		for _, e := range c.Emails {
			if e == address {
				return true, nil
			}
		}
	}
	return false, nil
}

func (f *fakeContacts) List(_ context.Context) ([]ports.Contact, error) {
	return f.contacts, nil
}

func (f *fakeContacts) Get(_ context.Context, slug string) (ports.Contact, error) {
	for _, c := range f.contacts {
		if c.Slug == slug {
			return c, nil
		}
	}
	return ports.Contact{}, domain.NotFound("contact", slug)
}

type fakeGenerator struct {
	available bool
	reply     string
	err       error
	prompt    string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.reply, g.err
}

func (g *fakeGenerator) IsAvailable() bool { return g.available }

type fakeRunner struct {
	run ports.TriageRun
	err error
}

func (r *fakeRunner) Start(_ context.Context) (ports.TriageRun, error) {
	return r.run, r.err
}

// scriptedEditor replaces the buffer contents instead of launching an editor
type scriptedEditor struct {
	content string
	seen    string
}

func (e *scriptedEditor) OpenFile(path string) error {
	before, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	e.seen = string(before)
	return os.WriteFile(path, []byte(e.content), 0o644)
}

func (e *scriptedEditor) Command(path string) (*exec.Cmd, error) {
	return exec.Command("true", path), nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
