package triagescript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"archivist/internal/domain"
	"archivist/internal/ports"
)

// Runner implements ports.TriageRunner by launching the triage generator
// script detached from the caller, with output captured in a log file.
type Runner struct {
	script      string
	workDir     string
	interpreter string
	logPath     string
	log         *slog.Logger
}

var _ ports.TriageRunner = (*Runner)(nil)

// Option configures the Runner
type Option func(*Runner)

// WithInterpreter forces the program used to run the script
func WithInterpreter(path string) Option {
	return func(r *Runner) { r.interpreter = path }
}

// WithLogPath sets where script output is written
func WithLogPath(path string) Option {
	return func(r *Runner) { r.logPath = path }
}

// WithLogger sets the logger for process exit reports
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a runner for script executed in workDir
func NewRunner(script, workDir string, opts ...Option) *Runner {
	r := &Runner{
		script:  script,
		workDir: workDir,
		logPath: filepath.Join(os.TempDir(), "archive-triage.log"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

// Start launches the script and returns without waiting for it
func (r *Runner) Start(ctx context.Context) (ports.TriageRun, error) {
	if _, err := os.Stat(r.script); errors.Is(err, os.ErrNotExist) {
		return ports.TriageRun{}, domain.NotFound("triage script", r.script)
	}

	logFile, err := os.OpenFile(r.logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return ports.TriageRun{}, fmt.Errorf("open triage log: %w", err)
	}
	defer logFile.Close()

	// not bound to ctx: the run outlives the request that started it
	cmd := exec.Command(r.pickInterpreter(), r.script)
	cmd.Dir = r.workDir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return ports.TriageRun{}, fmt.Errorf("start triage script: %w", err)
	}

	pid := cmd.Process.Pid
	go func() {
		err := cmd.Wait()
		if err != nil {
			r.log.Warn("triage script failed", "pid", pid, "log", r.logPath, "err", err)
			return
		}
		r.log.Info("triage script finished", "pid", pid, "log", r.logPath)
	}()

	return ports.TriageRun{PID: pid, LogPath: r.logPath}, nil
}

// pickInterpreter prefers the archive's virtualenv python
func (r *Runner) pickInterpreter() string {
	if r.interpreter != "" {
		return r.interpreter
	}
	venv := filepath.Join(r.workDir, ".venv", "bin", "python")
	if _, err := os.Stat(venv); err == nil {
		return venv
	}
	return "python3"
}
