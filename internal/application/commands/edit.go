package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"archivist/internal/application"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

const editTemplateHelp = "# First line is the action text. Everything after the first blank line is the context.\n# Lines starting with '#' are ignored. Save an empty text to abort.\n"

// EditActionResult reports what an interactive edit changed
type EditActionResult struct {
	Action  domain.Action
	Changed bool
}

// EditActionCommand edits an action's text and context in the user's editor
type EditActionCommand struct {
	repo   ports.ActionRepository
	opener ports.EditorOpener
	ID     string
}

// NewEditActionCommand creates a new EditActionCommand
func NewEditActionCommand(repo ports.ActionRepository, opener ports.EditorOpener, id string) *EditActionCommand {
	return &EditActionCommand{repo: repo, opener: opener, ID: id}
}

// Validate checks the id
func (c *EditActionCommand) Validate() error {
	return application.ValidateRequired("actionID", c.ID)
}

// Execute opens the editor, then applies whatever changed.
// The editor runs outside the store lock; the patch is applied in its own transaction.
func (c *EditActionCommand) Execute(ctx context.Context) (*EditActionResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	actions, err := c.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load actions: %w", err)
	}
	i, ok := domain.FindAction(actions, c.ID)
	if !ok {
		return nil, domain.NotFound("action", c.ID)
	}
	current := actions[i]

	f, err := os.CreateTemp("", "archivist-action-*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create edit buffer: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(renderEditBuffer(current)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write edit buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to write edit buffer: %w", err)
	}

	if err := c.opener.OpenFile(path); err != nil {
		return nil, fmt.Errorf("editor failed: %w", err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read edit buffer: %w", err)
	}
	text, note := parseEditBuffer(string(edited))
	if text == "" {
		return &EditActionResult{Action: current}, nil
	}

	var patch domain.ActionPatch
	if text != current.Text {
		patch.Text = &text
	}
	if note != current.Context {
		patch.Context = &note
	}
	if patch.IsEmpty() {
		return &EditActionResult{Action: current}, nil
	}

	updated, err := NewUpdateActionCommand(c.repo, c.ID, patch).Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &EditActionResult{Action: updated, Changed: true}, nil
}

func renderEditBuffer(a domain.Action) string {
	var b strings.Builder
	b.WriteString(a.Text)
	b.WriteString("\n\n")
	if a.Context != "" {
		b.WriteString(a.Context)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(editTemplateHelp)
	return b.String()
}

// parseEditBuffer splits an edited buffer into text and context
func parseEditBuffer(buf string) (text, note string) {
	var lines []string
	for _, line := range strings.Split(buf, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	// skip leading blank lines
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return "", ""
	}
	text = strings.TrimSpace(lines[0])

	rest := lines[1:]
	for len(rest) > 0 && strings.TrimSpace(rest[0]) != "" {
		// continuation of the text paragraph
		text += " " + strings.TrimSpace(rest[0])
		rest = rest[1:]
	}
	note = strings.TrimSpace(strings.Join(rest, "\n"))
	return text, note
}
