package cmd

import (
	"context"
	"log/slog"

	"archivist/internal/adapters/claudecli"
	"archivist/internal/adapters/editor"
	"archivist/internal/adapters/filesystem"
	"archivist/internal/adapters/git"
	"archivist/internal/adapters/gmail"
	"archivist/internal/adapters/notmuch"
	"archivist/internal/adapters/signal"
	"archivist/internal/adapters/sqlite"
	"archivist/internal/adapters/triagescript"
	"archivist/internal/application"
	"archivist/internal/application/ingest"
	"archivist/internal/config"
	"archivist/internal/ports"
	"archivist/internal/rate"
)

// app holds the adapters for one process. Collaborators that touch the
// network or open databases are built on first use.
type app struct {
	cfg *config.Config
	log *slog.Logger

	versioner *git.Versioner
	actions   *filesystem.ActionStore
	triage    *filesystem.TriageStore
	ingestCur *filesystem.CursorFile
	seen      *filesystem.CursorFile
	people    *filesystem.PeopleDir

	mailGW  ports.MailGateway
	limiter *rate.TokenBucket
	index   *sqlite.ContactIndex
}

func newApp(cfg *config.Config, log *slog.Logger) *app {
	a := &app{cfg: cfg, log: log}

	opts := []filesystem.StoreOption{
		filesystem.WithLogger(log),
		filesystem.WithLockTimeout(cfg.Timeouts.Lock),
	}
	if cfg.Git.Enabled {
		a.versioner = git.New(cfg.ArchiveDir,
			git.WithPush(cfg.Git.Push),
			git.WithTimeouts(cfg.Timeouts.GitCommit, cfg.Timeouts.GitPush),
			git.WithLogger(log),
		)
		opts = append(opts, filesystem.WithVersioner(a.versioner))
	}

	a.actions = filesystem.NewActionStore(cfg.Paths.Actions, opts...)
	a.triage = filesystem.NewTriageStore(cfg.Paths.Triage, opts...)
	a.ingestCur = filesystem.NewIngestCursor(cfg.Paths.IngestCursor, filesystem.WithLogger(log))
	a.seen = filesystem.NewNotificationCursor(cfg.Paths.NotificationCursor, filesystem.WithLogger(log))
	a.people = filesystem.NewPeopleDir(cfg.Paths.People)
	return a
}

// mail returns the configured mail backend
func (a *app) mail(ctx context.Context) (ports.MailGateway, error) {
	if a.mailGW != nil {
		return a.mailGW, nil
	}
	switch a.cfg.Mail.Backend {
	case config.BackendGmail:
		svc, err := gmail.NewService(ctx, a.cfg.Mail.GmailDir)
		if err != nil {
			return nil, application.Unavailable("gmail", err)
		}
		a.limiter = rate.NewTokenBucket(a.cfg.Mail.RateLimit)
		a.mailGW = gmail.NewGateway(svc, a.limiter)
	default:
		a.mailGW = notmuch.NewGateway(notmuch.WithChannel(a.cfg.Mail.Channel))
	}
	return a.mailGW, nil
}

// contacts opens the contact index and brings it up to date. When the
// index cannot be opened the people directory is used directly.
func (a *app) contacts(ctx context.Context) ports.ContactDirectory {
	if a.index != nil {
		return a.index
	}
	idx, err := sqlite.Open(a.people, a.cfg.Paths.ContactIndex, a.log)
	if err != nil {
		a.log.Warn("contact index unavailable, scanning notes directly", "error", err)
		return a.people
	}

	rctx, cancel := context.WithTimeout(ctx, a.cfg.Timeouts.Contacts)
	defer cancel()
	stats, err := idx.Refresh(rctx)
	if err != nil {
		a.log.Warn("contact index refresh failed, scanning notes directly", "error", err)
		idx.Close()
		return a.people
	}
	a.log.Debug("contact index refreshed",
		"scanned", stats.FilesScanned, "added", stats.NotesAdded,
		"updated", stats.NotesUpdated, "deleted", stats.NotesDeleted, "duration", stats.Duration)

	a.index = idx
	return idx
}

func (a *app) generator() *claudecli.Generator {
	return claudecli.NewGenerator(
		claudecli.WithModel(a.cfg.Claude.Model),
		claudecli.WithBinary(a.cfg.Claude.Binary),
	)
}

func (a *app) runner() *triagescript.Runner {
	return triagescript.NewRunner(a.cfg.Paths.TriageScript, a.cfg.ArchiveDir,
		triagescript.WithLogPath(a.cfg.Paths.TriageLog),
		triagescript.WithLogger(a.log),
	)
}

func (a *app) alerter() ports.Alerter {
	if a.cfg.SignalAccount == "" {
		return nil
	}
	return signal.NewAlerter(a.cfg.SignalAccount)
}

func (a *app) opener() *editor.Opener {
	return editor.NewOpener()
}

// console assembles every collaborator for the HTTP and MCP boundaries
func (a *app) console(ctx context.Context) (*application.Console, error) {
	mail, err := a.mail(ctx)
	if err != nil {
		return nil, err
	}
	return &application.Console{
		Actions:   a.actions,
		Triage:    a.triage,
		Seen:      a.seen,
		Mail:      mail,
		Contacts:  a.contacts(ctx),
		Generator: a.generator(),
		Runner:    a.runner(),
	}, nil
}

func (a *app) ingestService(ctx context.Context) (*ingest.Service, error) {
	mail, err := a.mail(ctx)
	if err != nil {
		return nil, err
	}
	t := a.cfg.Timeouts
	return &ingest.Service{
		Mail:           mail,
		Actions:        a.actions,
		Cursor:         a.ingestCur,
		Contacts:       a.contacts(ctx),
		Alerter:        a.alerter(),
		Log:            a.log,
		Owner:          a.cfg.Owner,
		IgnorePatterns: a.cfg.IgnorePatterns,
		VIPs:           a.cfg.VIPs,
		Lookback:       a.cfg.Lookback,
		Timeouts: ingest.Timeouts{
			Sync:   t.MailSync,
			Search: t.MailSearch,
			Sender: t.MailShow,
			Alert:  t.Alert,
		},
	}, nil
}

// close flushes queued commits and releases open resources
func (a *app) close(ctx context.Context) {
	if a.versioner != nil {
		if err := a.versioner.Close(ctx); err != nil {
			a.log.Warn("pending commits abandoned", "error", err)
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.log.Warn("close contact index", "error", err)
		}
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}
}
