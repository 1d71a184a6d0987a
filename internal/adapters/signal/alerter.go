package signal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"archivist/internal/ports"
)

// ErrNoAccount is returned when no Signal account is configured
var ErrNoAccount = errors.New("no signal account configured")

// Runner executes a command and returns its combined stderr on failure
type Runner func(ctx context.Context, name string, args ...string) error

// Alerter implements ports.Alerter by sending a note-to-self with signal-cli
type Alerter struct {
	account string
	binary  string
	run     Runner
}

var _ ports.Alerter = (*Alerter)(nil)

// Option configures the Alerter
type Option func(*Alerter)

// WithBinary overrides the signal-cli executable
func WithBinary(path string) Option {
	return func(a *Alerter) { a.binary = path }
}

// WithRunner replaces command execution
func WithRunner(r Runner) Option {
	return func(a *Alerter) { a.run = r }
}

// NewAlerter creates an alerter that messages account from itself
func NewAlerter(account string, opts ...Option) *Alerter {
	a := &Alerter{account: account, binary: "signal-cli", run: execRunner}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Alert sends message. The caller bounds the call with ctx.
func (a *Alerter) Alert(ctx context.Context, message string) error {
	if a.account == "" {
		return ErrNoAccount
	}
	if err := a.run(ctx, a.binary, "-a", a.account, "send", "-m", message, a.account); err != nil {
		return fmt.Errorf("signal-cli send: %w", err)
	}
	return nil
}

func execRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
