package ports

import "context"

// Versioner records a changed file in version control.
// Commit must not block on the commit itself; failures are logged, not returned.
type Versioner interface {
	Commit(path, message string)

	// Close waits for queued commits until ctx is done
	Close(ctx context.Context) error
}

// Alerter delivers a push notification to the owner
type Alerter interface {
	Alert(ctx context.Context, message string) error
}

// TextGenerator produces a completion for a prompt
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)

	// IsAvailable reports whether the backing service can be reached at all
	IsAvailable() bool
}
