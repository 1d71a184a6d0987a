package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"archivist/internal/ports"
)

const (
	DefaultCommitTimeout = 15 * time.Second
	DefaultPushTimeout   = 30 * time.Second
	queueSize            = 64
)

type job struct {
	path    string
	message string
}

type runner func(ctx context.Context, dir string, args ...string) (string, error)

// Versioner implements ports.Versioner by committing changed files to the
// git repository at the archive root. Commits run on a single background
// worker in submission order; every failure is logged and swallowed.
type Versioner struct {
	repoDir       string
	push          bool
	commitTimeout time.Duration
	pushTimeout   time.Duration
	log           *slog.Logger
	run           runner

	mu     sync.Mutex
	closed bool
	queue  chan job
	done   chan struct{}
}

var _ ports.Versioner = (*Versioner)(nil)

// Option configures the Versioner
type Option func(*Versioner)

// WithPush enables or disables pushing after each commit
func WithPush(push bool) Option {
	return func(v *Versioner) { v.push = push }
}

// WithTimeouts overrides the add/commit and push deadlines
func WithTimeouts(commit, push time.Duration) Option {
	return func(v *Versioner) {
		if commit > 0 {
			v.commitTimeout = commit
		}
		if push > 0 {
			v.pushTimeout = push
		}
	}
}

// WithLogger sets the logger for versioning failures
func WithLogger(l *slog.Logger) Option {
	return func(v *Versioner) { v.log = l }
}

func withRunner(r runner) Option {
	return func(v *Versioner) { v.run = r }
}

// New starts a versioner for repoDir
func New(repoDir string, opts ...Option) *Versioner {
	v := &Versioner{
		repoDir:       repoDir,
		push:          true,
		commitTimeout: DefaultCommitTimeout,
		pushTimeout:   DefaultPushTimeout,
		run:           gitOutput,
		queue:         make(chan job, queueSize),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.log == nil {
		v.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	go v.worker()
	return v
}

// Commit queues path for add, commit and push. It never blocks on git.
func (v *Versioner) Commit(path, message string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		v.log.Warn("versioner closed, change not committed", "path", path, "message", message)
		return
	}
	select {
	case v.queue <- job{path: path, message: message}:
	default:
		v.log.Warn("versioning queue full, change not committed", "path", path, "message", message)
	}
}

// Close stops accepting commits and waits for the queue to drain or ctx to end
func (v *Versioner) Close(ctx context.Context) error {
	v.mu.Lock()
	if !v.closed {
		v.closed = true
		close(v.queue)
	}
	v.mu.Unlock()

	select {
	case <-v.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pending commits: %w", ctx.Err())
	}
}

func (v *Versioner) worker() {
	defer close(v.done)
	for j := range v.queue {
		v.process(j)
	}
}

func (v *Versioner) process(j job) {
	rel := j.path
	if filepath.IsAbs(rel) {
		if r, err := filepath.Rel(v.repoDir, rel); err == nil {
			rel = r
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.commitTimeout)
	defer cancel()

	if _, err := v.run(ctx, v.repoDir, "add", "--", rel); err != nil {
		v.log.Warn("git add failed", "path", rel, "err", err)
		return
	}
	if _, err := v.run(ctx, v.repoDir, "commit", "-m", j.message, "--", rel); err != nil {
		if strings.Contains(err.Error(), "nothing to commit") || strings.Contains(err.Error(), "no changes added") {
			v.log.Debug("nothing to commit", "path", rel)
			return
		}
		v.log.Warn("git commit failed", "path", rel, "message", j.message, "err", err)
		return
	}

	if !v.push {
		return
	}
	pushCtx, cancelPush := context.WithTimeout(context.Background(), v.pushTimeout)
	defer cancelPush()
	if _, err := v.run(pushCtx, v.repoDir, "push"); err != nil {
		v.log.Warn("git push failed", "err", err)
	}
}

// gitOutput runs git in repoDir and returns trimmed stdout.
// Errors carry stdout and stderr since git reports some outcomes on either.
func gitOutput(ctx context.Context, repoDir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String() + " " + stdout.String())
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, detail)
	}
	return strings.TrimSpace(stdout.String()), nil
}
