// Package ingest turns new mail threads into queued actions.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"archivist/internal/application"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

// DefaultLookback is how far back the first run searches when no cursor exists
const DefaultLookback = 24 * time.Hour

// Timeouts bounds each external call of a run
type Timeouts struct {
	Sync   time.Duration
	Search time.Duration
	Sender time.Duration
	Alert  time.Duration
}

// DefaultTimeouts mirror the mail tools' typical worst cases
var DefaultTimeouts = Timeouts{
	Sync:   300 * time.Second,
	Search: 60 * time.Second,
	Sender: 30 * time.Second,
	Alert:  30 * time.Second,
}

// Options tunes a single run
type Options struct {
	// DryRun classifies and reports without touching the store, the cursor or the alerter
	DryRun bool
}

// Routed is one thread that produced, or would produce, an action
type Routed struct {
	Thread ports.ThreadSummary
	Sender domain.Sender
	Class  domain.Classification
	Action domain.Action
	Added  bool
}

// Report summarizes a run
type Report struct {
	Started    time.Time
	Since      time.Time
	Scanned    int
	Stale      int
	Ignored    int
	Unknown    int
	Routed     []Routed
	Added      int
	Duplicates int
	Alerted    bool
	DryRun     bool
}

// Service runs the ingestion pipeline
type Service struct {
	Mail     ports.MailGateway
	Actions  ports.ActionRepository
	Cursor   ports.CursorStore
	Contacts domain.ContactMatcher
	Alerter  ports.Alerter // optional
	Log      *slog.Logger
	Clock    func() time.Time

	Owner          string
	IgnorePatterns []string
	VIPs           []string
	Lookback       time.Duration
	Timeouts       Timeouts
}

func (s *Service) logger() *slog.Logger {
	if s.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Log
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock().UTC()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// Run executes one ingestion pass. Any external failure before the store
// is touched aborts the run with the cursor and the store unchanged.
func (s *Service) Run(ctx context.Context, opts Options) (*Report, error) {
	log := s.logger()
	started := s.now()
	report := &Report{Started: started, DryRun: opts.DryRun}

	cursor, hasCursor, err := s.Cursor.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingestion cursor: %w", err)
	}
	since := cursor
	if !hasCursor {
		lookback := s.Lookback
		if lookback <= 0 {
			lookback = DefaultLookback
		}
		since = started.Add(-lookback)
	}
	report.Since = since

	threads, err := s.fetchNew(ctx, since)
	if err != nil {
		return nil, err
	}
	report.Scanned = len(threads)

	routed, err := s.classifyAll(ctx, threads, since, report)
	if err != nil {
		return nil, err
	}
	report.Routed = routed

	if opts.DryRun {
		for _, r := range routed {
			log.Info("would queue", "class", r.Class, "id", r.Action.ID, "from", r.Sender.Address, "subject", r.Thread.Subject)
		}
		return report, nil
	}

	if len(routed) > 0 {
		if err := s.appendAll(ctx, report); err != nil {
			return nil, err
		}
	}

	s.alertVIPs(ctx, report)

	next := started
	if hasCursor && cursor.After(started) {
		log.Warn("ingestion cursor is ahead of the clock, keeping it", "cursor", cursor, "now", started)
		next = cursor
	}
	if err := s.Cursor.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to advance ingestion cursor: %w", err)
	}

	log.Info("ingest run complete",
		"scanned", report.Scanned,
		"stale", report.Stale,
		"ignored", report.Ignored,
		"unknown", report.Unknown,
		"added", report.Added,
		"duplicates", report.Duplicates,
		"alerted", report.Alerted,
	)
	return report, nil
}

// fetchNew syncs the mail store and searches for threads since the cursor
func (s *Service) fetchNew(ctx context.Context, since time.Time) ([]ports.ThreadSummary, error) {
	syncCtx, cancel := withTimeout(ctx, s.Timeouts.Sync)
	err := s.Mail.Sync(syncCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch new mail: %w", application.Unavailable("mail sync", err))
	}

	searchCtx, cancel := withTimeout(ctx, s.Timeouts.Search)
	threads, err := s.Mail.Search(searchCtx, ports.MailQuery{Since: since, ExcludeFrom: s.Owner})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch new mail: %w", application.Unavailable("mail search", err))
	}
	return threads, nil
}

// isNewer reports whether a thread is strictly newer than the cursor.
// Mail timestamps have one second resolution while the cursor keeps
// sub-second precision, so a thread stamped within the cursor's second
// still counts as new. The idempotent append absorbs the overlap.
func isNewer(ts, cursor time.Time) bool {
	return ts.Add(time.Second).After(cursor)
}

// classifyAll resolves and classifies every thread before anything is written
func (s *Service) classifyAll(ctx context.Context, threads []ports.ThreadSummary, since time.Time, report *Report) ([]Routed, error) {
	log := s.logger()
	h := domain.Heuristics{
		Owner:          s.Owner,
		IgnorePatterns: s.IgnorePatterns,
		VIPs:           s.VIPs,
		Contacts:       s.Contacts,
	}

	var routed []Routed
	for _, t := range threads {
		if !isNewer(t.Timestamp, since) {
			report.Stale++
			continue
		}

		senderCtx, cancel := withTimeout(ctx, s.Timeouts.Sender)
		from, err := s.Mail.Sender(senderCtx, t.ThreadID)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("resolve sender of thread %s: %w", t.ThreadID, application.Unavailable("mail show", err))
		}

		sender, ok := domain.ParseSender(from)
		if !ok {
			log.Debug("unparseable sender", "thread", t.ThreadID, "from", from)
			report.Ignored++
			continue
		}

		class, err := domain.Classify(ctx, sender.Address, h)
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", sender.Address, application.Unavailable("contacts", err))
		}

		switch class {
		case domain.ClassIgnore:
			report.Ignored++
			continue
		case domain.ClassUnknown:
			report.Unknown++
			continue
		}

		routed = append(routed, Routed{
			Thread: t,
			Sender: sender,
			Class:  class,
			Action: mailAction(t, sender, domain.MailIDWidth, time.Time{}),
		})
	}

	// oldest first, so that head inserts leave the newest thread on top
	sort.SliceStable(routed, func(i, j int) bool {
		return routed[i].Thread.Timestamp.Before(routed[j].Thread.Timestamp)
	})
	return routed, nil
}

func mailAction(t ports.ThreadSummary, sender domain.Sender, width int, created time.Time) domain.Action {
	target := domain.MailTarget(t.ThreadID)
	return domain.Action{
		ID:      domain.MailActionID(t.ThreadID, width),
		Text:    fmt.Sprintf("Reply to %s: %s", sender.DisplayName(t.Authors), t.Subject),
		Kind:    domain.KindPointer,
		Target:  &target,
		Context: fmt.Sprintf("From %s. Detected by check-mail.", sender.Address),
		Created: created,
	}
}

// appendAll inserts every routed thread in one transaction
func (s *Service) appendAll(ctx context.Context, report *Report) error {
	log := s.logger()

	err := s.Actions.Transact(ctx, func(actions []domain.Action) ([]domain.Action, string, error) {
		created := s.now()
		added, dups := 0, 0

		for i := range report.Routed {
			r := &report.Routed[i]
			r.Added = false
			candidate := mailAction(r.Thread, r.Sender, domain.MailIDWidth, created)

			next, existing, inserted := domain.AppendAction(actions, candidate, domain.PositionHead)
			if !inserted && existing.TargetString() != candidate.TargetString() {
				log.Warn("action id collision, widening",
					"id", candidate.ID, "thread", r.Thread.ThreadID, "existing_target", existing.TargetString())
				candidate = mailAction(r.Thread, r.Sender, domain.MailIDWideWidth, created)
				next, existing, inserted = domain.AppendAction(actions, candidate, domain.PositionHead)
				if !inserted && existing.TargetString() != candidate.TargetString() {
					log.Warn("action id collision persists, skipping thread", "id", candidate.ID, "thread", r.Thread.ThreadID)
					continue
				}
			}

			actions = next
			r.Action = existing
			if inserted {
				r.Added = true
				added++
				log.Info("queued", "class", r.Class, "id", existing.ID, "from", r.Sender.Address, "subject", r.Thread.Subject)
			} else {
				dups++
			}
		}

		report.Added, report.Duplicates = added, dups
		if added == 0 {
			return actions, "", nil
		}
		return actions, fmt.Sprintf("check-mail: add %d actions", added), nil
	})
	if err != nil {
		return fmt.Errorf("append actions: %w", err)
	}
	return nil
}

// alertVIPs sends one batched alert for newly queued VIP threads. Failures are logged only.
func (s *Service) alertVIPs(ctx context.Context, report *Report) {
	if s.Alerter == nil {
		return
	}
	var lines []string
	for _, r := range report.Routed {
		if r.Class == domain.ClassVIP && r.Added {
			lines = append(lines, fmt.Sprintf("  - %s: %s", r.Sender.DisplayName(r.Thread.Authors), r.Thread.Subject))
		}
	}
	if len(lines) == 0 {
		return
	}

	alertCtx, cancel := withTimeout(ctx, s.Timeouts.Alert)
	defer cancel()
	if err := s.Alerter.Alert(alertCtx, "New email from:\n"+strings.Join(lines, "\n")); err != nil {
		s.logger().Warn("vip alert failed", "count", len(lines), "err", err)
		return
	}
	report.Alerted = true
}
