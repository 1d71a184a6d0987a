package ports

import (
	"context"

	"archivist/internal/domain"
)

// ActionTx transforms a freshly loaded action list. It returns the list to
// persist and the change description used for versioning. An empty message
// means nothing changed and the file is left alone.
type ActionTx func(actions []domain.Action) (next []domain.Action, message string, err error)

// ActionRepository is the durable ordered action queue.
// Every mutation runs inside Transact, which holds the store lock across
// load, transform and save.
type ActionRepository interface {
	// Load reads the current queue. A corrupt file reads as empty.
	Load(ctx context.Context) ([]domain.Action, error)

	// Transact runs fn under the store lock and saves its result atomically
	Transact(ctx context.Context, fn ActionTx) error

	// Path returns the backing file, for watchers
	Path() string
}
