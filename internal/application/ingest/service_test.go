package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/adapters/filesystem"
	"archivist/internal/application"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeMail struct {
	syncErr   error
	searchErr error
	senderErr error
	threads   []ports.ThreadSummary
	from      map[string]string
	queries   []ports.MailQuery
}

func (f *fakeMail) Sync(_ context.Context) error { return f.syncErr }

func (f *fakeMail) Search(_ context.Context, q ports.MailQuery) ([]ports.ThreadSummary, error) {
	f.queries = append(f.queries, q)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.threads, nil
}

func (f *fakeMail) Sender(_ context.Context, threadID string) (string, error) {
	if f.senderErr != nil {
		return "", f.senderErr
	}
	return f.from[threadID], nil
}

func (f *fakeMail) Thread(_ context.Context, _ string) ([]ports.Message, error) {
	return nil, nil
}

type knownSet map[string]bool

func (k knownSet) IsKnown(_ context.Context, address string) (bool, error) {
	return k[address], nil
}

type failingContacts struct{}

func (failingContacts) IsKnown(_ context.Context, _ string) (bool, error) {
	return false, errors.New("people dir unreadable")
}

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (a *recordingAlerter) Alert(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return a.err
}

type fixture struct {
	dir        string
	actionPath string
	cursorPath string
	store      *filesystem.ActionStore
	cursor     *filesystem.CursorFile
	mail       *fakeMail
	alerter    *recordingAlerter
	svc        *Service
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:        dir,
		actionPath: filepath.Join(dir, "coordination", "next-actions.json"),
		cursorPath: filepath.Join(dir, "scripts", ".check-mail-state.json"),
		now:        time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store = filesystem.NewActionStore(f.actionPath, filesystem.WithLogger(slogDiscard()))
	f.cursor = filesystem.NewIngestCursor(f.cursorPath)
	f.mail = &fakeMail{from: map[string]string{}}
	f.alerter = &recordingAlerter{}
	f.svc = &Service{
		Mail:           f.mail,
		Actions:        f.store,
		Cursor:         f.cursor,
		Contacts:       knownSet{"friend@example.org": true, "boss@company.com": true},
		Alerter:        f.alerter,
		Log:            slogDiscard(),
		Clock:          func() time.Time { return f.now },
		Owner:          "me@home.net",
		IgnorePatterns: domain.DefaultIgnorePatterns,
		VIPs:           []string{"boss@company.com"},
	}
	return f
}

func (f *fixture) thread(id, from, subject string, ts time.Time) {
	f.mail.threads = append(f.mail.threads, ports.ThreadSummary{
		ThreadID: id, Subject: subject, Authors: "Authors of " + id, Timestamp: ts,
	})
	f.mail.from[id] = from
}

func readOrNil(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	return b
}

func TestRun_RoutesVIPAndKnown(t *testing.T) {
	f := newFixture(t)
	f.thread("t-vip", "The Boss <boss@company.com>", "Budget", f.now.Add(-2*time.Hour))
	f.thread("t-known", "friend@example.org", "Lunch?", f.now.Add(-time.Hour))
	f.thread("t-unknown", "Stranger <who@else.org>", "Hi", f.now.Add(-time.Hour))
	f.thread("t-ignored", "GitHub <notifications@github.com>", "PR merged", f.now.Add(-time.Hour))
	f.thread("t-self", "me@home.net", "note to self", f.now.Add(-time.Hour))
	f.thread("t-garbage", "undisclosed", "???", f.now.Add(-time.Hour))

	report, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 6, report.Scanned)
	assert.Equal(t, 2, report.Added)
	assert.Equal(t, 1, report.Unknown)
	assert.Equal(t, 3, report.Ignored)
	assert.True(t, report.Alerted)

	actions, err := f.store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, actions, 2)

	// newest thread sits at the head
	assert.Equal(t, domain.MailActionID("t-known", domain.MailIDWidth), actions[0].ID)
	assert.Equal(t, "Reply to Authors of t-known: Lunch?", actions[0].Text)
	assert.Equal(t, "Reply to The Boss: Budget", actions[1].Text)
	assert.Equal(t, "From boss@company.com. Detected by check-mail.", actions[1].Context)
	assert.Equal(t, domain.KindPointer, actions[1].Kind)
	assert.Equal(t, "email:thread:t-vip", actions[1].TargetString())

	require.Len(t, f.alerter.messages, 1)
	assert.Equal(t, "New email from:\n  - The Boss: Budget", f.alerter.messages[0])

	at, ok, err := f.cursor.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(f.now))

	// first run looks back a day and excludes the owner's own mail
	require.Len(t, f.mail.queries, 1)
	assert.True(t, f.mail.queries[0].Since.Equal(f.now.Add(-DefaultLookback)))
	assert.Equal(t, "me@home.net", f.mail.queries[0].ExcludeFrom)
}

func TestRun_IdempotentAcrossRuns(t *testing.T) {
	f := newFixture(t)
	f.thread("t1", "friend@example.org", "Lunch?", f.now.Add(-time.Minute))

	_, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	// cursor reset: the same thread is offered again
	require.NoError(t, os.Remove(f.cursorPath))
	f.now = f.now.Add(time.Hour)
	report, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.Added)
	assert.Equal(t, 1, report.Duplicates)
	actions, _ := f.store.Load(context.Background())
	assert.Len(t, actions, 1)
}

func TestRun_SkipsStaleThreads(t *testing.T) {
	f := newFixture(t)
	cursorAt := f.now.Add(-time.Hour).Add(500 * time.Millisecond)
	require.NoError(t, f.cursor.Save(context.Background(), cursorAt))

	f.thread("old", "friend@example.org", "old", f.now.Add(-2*time.Hour))
	f.thread("same-second", "friend@example.org", "edge", f.now.Add(-time.Hour))
	f.thread("new", "friend@example.org", "new", f.now.Add(-time.Minute))

	report, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stale)
	assert.Equal(t, 2, report.Added)
}

func TestRun_CursorNeverMovesBackwards(t *testing.T) {
	f := newFixture(t)
	ahead := f.now.Add(2 * time.Hour)
	require.NoError(t, f.cursor.Save(context.Background(), ahead))

	_, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)

	at, ok, err := f.cursor.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, at.Equal(ahead), "cursor moved from %s to %s", ahead, at)
}

func TestRun_FetchFailureLeavesStateByteIdentical(t *testing.T) {
	tests := []struct {
		name string
		fail func(f *fixture)
	}{
		{"sync fails", func(f *fixture) { f.mail.syncErr = errors.New("mbsync: connection refused") }},
		{"search fails", func(f *fixture) { f.mail.searchErr = errors.New("notmuch: timed out") }},
		{"sender lookup fails", func(f *fixture) { f.mail.senderErr = errors.New("notmuch show failed") }},
		{"contact lookup fails", func(f *fixture) { f.svc.Contacts = failingContacts{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			// seed prior state
			f.thread("seed", "friend@example.org", "seed", f.now.Add(-time.Hour))
			_, err := f.svc.Run(context.Background(), Options{})
			require.NoError(t, err)

			actionsBefore := readOrNil(t, f.actionPath)
			cursorBefore := readOrNil(t, f.cursorPath)
			require.NotNil(t, actionsBefore)
			require.NotNil(t, cursorBefore)

			f.now = f.now.Add(time.Hour)
			f.thread("boss", "boss@company.com", "urgent", f.now.Add(-time.Minute))
			f.thread("colleague", "colleague@work.io", "sync up", f.now.Add(-time.Minute))
			f.alerter.messages = nil
			tt.fail(f)

			_, err = f.svc.Run(context.Background(), Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, application.ErrUnavailable)

			assert.Equal(t, actionsBefore, readOrNil(t, f.actionPath))
			assert.Equal(t, cursorBefore, readOrNil(t, f.cursorPath))
			assert.Empty(t, f.alerter.messages)
		})
	}
}

func TestRun_AlertFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.alerter.err = errors.New("signal-cli not installed")
	f.thread("t1", "boss@company.com", "urgent", f.now.Add(-time.Minute))

	report, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, report.Alerted)
	assert.Equal(t, 1, report.Added)

	_, ok, _ := f.cursor.Load(context.Background())
	assert.True(t, ok, "cursor advances despite alert failure")
}

func TestRun_NoAlertForDuplicateVIP(t *testing.T) {
	f := newFixture(t)
	f.thread("t1", "boss@company.com", "urgent", f.now.Add(-time.Minute))

	_, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.cursorPath))

	_, err = f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Len(t, f.alerter.messages, 1)
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)
	f.thread("t1", "boss@company.com", "urgent", f.now.Add(-time.Minute))

	report, err := f.svc.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	require.Len(t, report.Routed, 1)
	assert.Equal(t, domain.ClassVIP, report.Routed[0].Class)

	assert.Nil(t, readOrNil(t, f.actionPath))
	assert.Nil(t, readOrNil(t, f.cursorPath))
	assert.Empty(t, f.alerter.messages)
}

func TestRun_CollisionWidensID(t *testing.T) {
	f := newFixture(t)
	narrow := domain.MailActionID("t1", domain.MailIDWidth)
	other := "email:thread:someone-else"
	require.NoError(t, f.store.Transact(context.Background(), func(actions []domain.Action) ([]domain.Action, string, error) {
		next, _, _ := domain.AppendAction(actions, domain.Action{
			ID: narrow, Text: "squatter", Kind: domain.KindPointer, Target: &other,
		}, domain.PositionTail)
		return next, "seed", nil
	}))

	f.thread("t1", "friend@example.org", "Lunch?", f.now.Add(-time.Minute))
	report, err := f.svc.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)

	actions, _ := f.store.Load(context.Background())
	require.Len(t, actions, 2)
	assert.Equal(t, domain.MailActionID("t1", domain.MailIDWideWidth), actions[0].ID)
	assert.Equal(t, "email:thread:t1", actions[0].TargetString())
}

func TestIsNewer(t *testing.T) {
	cursor := time.Date(2026, 1, 1, 10, 0, 0, 400_000_000, time.UTC)
	assert.True(t, isNewer(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC), cursor))
	assert.False(t, isNewer(time.Date(2026, 1, 1, 9, 59, 59, 0, time.UTC), cursor))
	assert.True(t, isNewer(time.Date(2026, 1, 1, 10, 0, 1, 0, time.UTC), cursor))
}
