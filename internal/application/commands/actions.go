package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"archivist/internal/application"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

const commitTextLimit = 50

// Clock returns the current time; commands default to time.Now
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// truncate shortens s to n runes for commit messages
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ListActionsCommand lists the queue in its stored order
type ListActionsCommand struct {
	repo             ports.ActionRepository
	IncludeCompleted bool
}

// NewListActionsCommand creates a new ListActionsCommand
func NewListActionsCommand(repo ports.ActionRepository, includeCompleted bool) *ListActionsCommand {
	return &ListActionsCommand{repo: repo, IncludeCompleted: includeCompleted}
}

// Execute runs the list command
func (c *ListActionsCommand) Execute(ctx context.Context) ([]domain.Action, error) {
	actions, err := c.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}
	return domain.FilterActions(actions, c.IncludeCompleted), nil
}

// CreateActionCommand appends a user-created action at the tail of the queue
type CreateActionCommand struct {
	repo    ports.ActionRepository
	now     Clock
	Text    string
	Kind    domain.ActionKind
	Target  *string
	Context string
}

// NewCreateActionCommand creates a new CreateActionCommand
func NewCreateActionCommand(repo ports.ActionRepository, text string, kind domain.ActionKind, target *string, note string) *CreateActionCommand {
	if kind == "" {
		kind = domain.KindAction
	}
	return &CreateActionCommand{
		repo:    repo,
		now:     utcNow,
		Text:    text,
		Kind:    kind,
		Target:  target,
		Context: note,
	}
}

// WithClock overrides the creation time source
func (c *CreateActionCommand) WithClock(now Clock) *CreateActionCommand {
	c.now = now
	return c
}

// Validate checks the new action's fields
func (c *CreateActionCommand) Validate() error {
	if err := application.ValidateRequired("text", c.Text); err != nil {
		return err
	}
	return application.ValidateKind(c.Kind, c.Target)
}

// Execute runs the create command
func (c *CreateActionCommand) Execute(ctx context.Context) (domain.Action, error) {
	if err := c.Validate(); err != nil {
		return domain.Action{}, err
	}

	var created domain.Action
	err := c.repo.Transact(ctx, func(actions []domain.Action) ([]domain.Action, string, error) {
		id := domain.NewActionID()
		for {
			if _, taken := domain.FindAction(actions, id); !taken {
				break
			}
			id = domain.NewActionID()
		}

		record := domain.Action{
			ID:      id,
			Text:    strings.TrimSpace(c.Text),
			Kind:    c.Kind,
			Target:  c.Target,
			Context: c.Context,
			Created: c.now().UTC(),
		}
		next, rec, _ := domain.AppendAction(actions, record, domain.PositionTail)
		created = rec
		return next, "Add action: " + truncate(rec.Text, commitTextLimit), nil
	})
	if err != nil {
		return domain.Action{}, fmt.Errorf("failed to create action: %w", err)
	}
	return created, nil
}

// UpdateActionCommand applies a field-level patch to one action
type UpdateActionCommand struct {
	repo  ports.ActionRepository
	ID    string
	Patch domain.ActionPatch
}

// NewUpdateActionCommand creates a new UpdateActionCommand
func NewUpdateActionCommand(repo ports.ActionRepository, id string, patch domain.ActionPatch) *UpdateActionCommand {
	return &UpdateActionCommand{repo: repo, ID: id, Patch: patch}
}

// Validate checks the id and the patch
func (c *UpdateActionCommand) Validate() error {
	if err := application.ValidateRequired("actionID", c.ID); err != nil {
		return err
	}
	if c.Patch.IsEmpty() {
		return &application.ValidationError{Field: "patch", Message: "nothing to update"}
	}
	if c.Patch.Text != nil {
		if err := application.ValidateRequired("text", *c.Patch.Text); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the update command
func (c *UpdateActionCommand) Execute(ctx context.Context) (domain.Action, error) {
	if err := c.Validate(); err != nil {
		return domain.Action{}, err
	}

	var updated domain.Action
	err := c.repo.Transact(ctx, func(actions []domain.Action) ([]domain.Action, string, error) {
		next, rec, err := domain.UpdateAction(actions, c.ID, c.Patch)
		if err != nil {
			return nil, "", err
		}
		updated = rec
		return next, "Update action: " + truncate(rec.Text, commitTextLimit), nil
	})
	if err != nil {
		return domain.Action{}, fmt.Errorf("failed to update action: %w", err)
	}
	return updated, nil
}

// CompleteActionCommand marks an action done, or reopens it
type CompleteActionCommand struct {
	*UpdateActionCommand
}

// NewCompleteActionCommand creates a command that completes id at now, or reopens it when reopen is set
func NewCompleteActionCommand(repo ports.ActionRepository, id string, reopen bool, now Clock) *CompleteActionCommand {
	if now == nil {
		now = utcNow
	}
	patch := domain.ActionPatch{SetCompleted: true}
	if !reopen {
		at := now().UTC()
		patch.Completed = &at
	}
	return &CompleteActionCommand{NewUpdateActionCommand(repo, id, patch)}
}

// DeleteActionCommand removes an action from the queue
type DeleteActionCommand struct {
	repo ports.ActionRepository
	ID   string
}

// NewDeleteActionCommand creates a new DeleteActionCommand
func NewDeleteActionCommand(repo ports.ActionRepository, id string) *DeleteActionCommand {
	return &DeleteActionCommand{repo: repo, ID: id}
}

// Validate checks the id
func (c *DeleteActionCommand) Validate() error {
	return application.ValidateRequired("actionID", c.ID)
}

// Execute runs the delete command and returns the removed record
func (c *DeleteActionCommand) Execute(ctx context.Context) (domain.Action, error) {
	if err := c.Validate(); err != nil {
		return domain.Action{}, err
	}

	var removed domain.Action
	err := c.repo.Transact(ctx, func(actions []domain.Action) ([]domain.Action, string, error) {
		next, rec, err := domain.DeleteAction(actions, c.ID)
		if err != nil {
			return nil, "", err
		}
		removed = rec
		return next, "Remove action " + rec.ID, nil
	})
	if err != nil {
		return domain.Action{}, fmt.Errorf("failed to delete action: %w", err)
	}
	return removed, nil
}

// ReorderActionsCommand moves the named actions to the front of the queue
type ReorderActionsCommand struct {
	repo  ports.ActionRepository
	Order []string
}

// NewReorderActionsCommand creates a new ReorderActionsCommand
func NewReorderActionsCommand(repo ports.ActionRepository, order []string) *ReorderActionsCommand {
	return &ReorderActionsCommand{repo: repo, Order: order}
}

// Validate checks that an order was given
func (c *ReorderActionsCommand) Validate() error {
	if len(c.Order) == 0 {
		return &application.ValidationError{Field: "order", Message: "order must name at least one action"}
	}
	return nil
}

// Execute runs the reorder command and returns the full new order
func (c *ReorderActionsCommand) Execute(ctx context.Context) ([]domain.Action, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var result []domain.Action
	err := c.repo.Transact(ctx, func(actions []domain.Action) ([]domain.Action, string, error) {
		next := domain.ReorderActions(actions, c.Order)
		result = next
		if slices.EqualFunc(actions, next, func(a, b domain.Action) bool { return a.ID == b.ID }) {
			return actions, "", nil
		}
		return next, "Reorder actions", nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reorder actions: %w", err)
	}
	return result, nil
}
