package commands

import (
	"context"
	"fmt"
	"time"

	"archivist/internal/domain"
	"archivist/internal/ports"
)

// UnseenResult is the set of actions the user has not acknowledged yet
type UnseenResult struct {
	Actions  []domain.Action
	LastSeen *time.Time
}

// GetUnseenCommand lists open actions created after the notification cursor
type GetUnseenCommand struct {
	repo   ports.ActionRepository
	cursor ports.CursorStore
}

// NewGetUnseenCommand creates a new GetUnseenCommand
func NewGetUnseenCommand(repo ports.ActionRepository, cursor ports.CursorStore) *GetUnseenCommand {
	return &GetUnseenCommand{repo: repo, cursor: cursor}
}

// Execute runs the unseen query
func (c *GetUnseenCommand) Execute(ctx context.Context) (*UnseenResult, error) {
	at, ok, err := c.cursor.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read notification cursor: %w", err)
	}
	var since *time.Time
	if ok {
		since = &at
	}

	actions, err := c.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}

	return &UnseenResult{
		Actions:  domain.UnseenActions(actions, since),
		LastSeen: since,
	}, nil
}

// MarkSeenCommand advances the notification cursor to now.
// Callers run it only after the unseen set has been shown.
type MarkSeenCommand struct {
	cursor ports.CursorStore
	now    Clock
}

// NewMarkSeenCommand creates a new MarkSeenCommand
func NewMarkSeenCommand(cursor ports.CursorStore, now Clock) *MarkSeenCommand {
	if now == nil {
		now = utcNow
	}
	return &MarkSeenCommand{cursor: cursor, now: now}
}

// Execute stores and returns the new cursor
func (c *MarkSeenCommand) Execute(ctx context.Context) (time.Time, error) {
	at := c.now().UTC()
	if err := c.cursor.Save(ctx, at); err != nil {
		return time.Time{}, fmt.Errorf("failed to save notification cursor: %w", err)
	}
	return at, nil
}
