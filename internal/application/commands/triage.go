package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"archivist/internal/application"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

const (
	maxThreadPromptChars       = 24000
	maxRelationshipPromptChars = 8000
)

// ListTriageCommand returns the current triage document
type ListTriageCommand struct {
	repo ports.TriageRepository
}

// NewListTriageCommand creates a new ListTriageCommand
func NewListTriageCommand(repo ports.TriageRepository) *ListTriageCommand {
	return &ListTriageCommand{repo: repo}
}

// Execute runs the list command
func (c *ListTriageCommand) Execute(ctx context.Context) (domain.TriageDocument, error) {
	doc, err := c.repo.Load(ctx)
	if err != nil {
		return domain.TriageDocument{}, fmt.Errorf("failed to load triage: %w", err)
	}
	return doc, nil
}

// UpdateTriageStatusCommand moves a triage item to a new status.
// Every status is reachable from every other.
type UpdateTriageStatusCommand struct {
	repo   ports.TriageRepository
	ItemID string
	Status string
}

// NewUpdateTriageStatusCommand creates a new UpdateTriageStatusCommand
func NewUpdateTriageStatusCommand(repo ports.TriageRepository, itemID, status string) *UpdateTriageStatusCommand {
	return &UpdateTriageStatusCommand{repo: repo, ItemID: itemID, Status: status}
}

// Validate checks the id and the status vocabulary
func (c *UpdateTriageStatusCommand) Validate() error {
	if err := application.ValidateRequired("itemID", c.ItemID); err != nil {
		return err
	}
	_, err := application.ValidateTriageStatus(c.Status)
	return err
}

// Execute runs the status update
func (c *UpdateTriageStatusCommand) Execute(ctx context.Context) (domain.TriageItem, error) {
	if err := c.Validate(); err != nil {
		return domain.TriageItem{}, err
	}
	status, _ := application.ValidateTriageStatus(c.Status)

	item, err := c.repo.UpdateStatus(ctx, c.ItemID, status)
	if err != nil {
		return domain.TriageItem{}, fmt.Errorf("failed to update triage status: %w", err)
	}
	return item, nil
}

// RefreshTriageCommand starts the external triage generator in the background
type RefreshTriageCommand struct {
	runner ports.TriageRunner
}

// NewRefreshTriageCommand creates a new RefreshTriageCommand
func NewRefreshTriageCommand(runner ports.TriageRunner) *RefreshTriageCommand {
	return &RefreshTriageCommand{runner: runner}
}

// Execute runs the refresh command
func (c *RefreshTriageCommand) Execute(ctx context.Context) (ports.TriageRun, error) {
	run, err := c.runner.Start(ctx)
	if errors.Is(err, application.ErrNotFound) {
		return ports.TriageRun{}, err
	}
	if err != nil {
		return ports.TriageRun{}, application.Unavailable("triage script", err)
	}
	return run, nil
}

// DraftReplyResult carries a generated reply and the context it drew on
type DraftReplyResult struct {
	ItemID           string
	Draft            string
	HasRelationship  bool
	RelationshipSlug *string
}

// DraftReplyCommand drafts a reply to a triage item. It never changes the item's status.
type DraftReplyCommand struct {
	triage   ports.TriageRepository
	mail     ports.MailGateway
	contacts ports.ContactDirectory
	gen      ports.TextGenerator
	ItemID   string
}

// NewDraftReplyCommand creates a new DraftReplyCommand
func NewDraftReplyCommand(
	triage ports.TriageRepository,
	mail ports.MailGateway,
	contacts ports.ContactDirectory,
	gen ports.TextGenerator,
	itemID string,
) *DraftReplyCommand {
	return &DraftReplyCommand{
		triage:   triage,
		mail:     mail,
		contacts: contacts,
		gen:      gen,
		ItemID:   itemID,
	}
}

// Validate checks the id
func (c *DraftReplyCommand) Validate() error {
	return application.ValidateRequired("itemID", c.ItemID)
}

// Execute fetches the thread and relationship notes and asks the generator for a draft
func (c *DraftReplyCommand) Execute(ctx context.Context) (*DraftReplyResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	item, err := c.triage.Get(ctx, c.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load triage item: %w", err)
	}
	if strings.TrimSpace(item.ThreadID) == "" {
		return nil, &application.ValidationError{Field: "threadID", Message: "triage item has no thread ID"}
	}

	if !c.gen.IsAvailable() {
		return nil, application.Unavailable("text generation", errors.New("generator not installed"))
	}

	messages, err := c.mail.Thread(ctx, item.ThreadID)
	if err != nil {
		return nil, application.Unavailable("mail", err)
	}

	var relationship string
	if item.RelationshipSlug != nil && *item.RelationshipSlug != "" && c.contacts != nil {
		contact, err := c.contacts.Get(ctx, *item.RelationshipSlug)
		switch {
		case err == nil:
			relationship = contact.Content
		case errors.Is(err, application.ErrNotFound):
		default:
			return nil, fmt.Errorf("failed to load relationship %s: %w", *item.RelationshipSlug, err)
		}
	}

	draft, err := c.gen.Generate(ctx, BuildDraftPrompt(item, messages, relationship))
	if err != nil {
		return nil, application.Unavailable("text generation", err)
	}

	return &DraftReplyResult{
		ItemID:           item.ID,
		Draft:            strings.TrimSpace(draft),
		HasRelationship:  relationship != "",
		RelationshipSlug: item.RelationshipSlug,
	}, nil
}

// BuildDraftPrompt composes the drafting prompt. Thread text and relationship
// notes are clipped so the prompt stays bounded.
func BuildDraftPrompt(item domain.TriageItem, messages []ports.Message, relationship string) string {
	name := item.FromName
	if name == "" {
		name = "Unknown"
	}

	rel := clipHead(strings.TrimSpace(relationship), maxRelationshipPromptChars)
	if rel == "" {
		rel = "No relationship context available."
	}

	var thread strings.Builder
	for i, m := range messages {
		if i > 0 {
			thread.WriteString("\n---\n")
		}
		fmt.Fprintf(&thread, "From: %s\nTo: %s\nSubject: %s\n", m.From, m.To, m.Subject)
		if !m.Date.IsZero() {
			fmt.Fprintf(&thread, "Date: %s\n", m.Date.Format("Mon, 02 Jan 2006 15:04"))
		}
		thread.WriteString("\n")
		thread.WriteString(strings.TrimSpace(m.Body))
		thread.WriteString("\n")
	}
	threadText := clipTail(thread.String(), maxThreadPromptChars)
	if threadText == "" {
		threadText = "(thread unavailable)"
	}

	return fmt.Sprintf(`You are helping draft a reply to an email. Use the context below to write a warm, personal response.

**From:** %s <%s>
**Subject:** %s
**Thread summary:** %s

**Relationship context:**
%s

**Full email thread:**
%s

Draft a reply that:
- Is warm and personal
- References specific things from the thread
- Uses the relationship context appropriately
- Keeps it concise (2-4 paragraphs unless more depth is warranted)
- Signs off appropriately for the relationship level

Output ONLY the draft email body, no meta-commentary.`,
		name, item.FromEmail, item.Subject, item.Summary, rel, threadText)
}

// clipTail keeps the last n runes of s; the newest messages sit at the end of a thread
func clipTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "[earlier content truncated]\n" + string(r[len(r)-n:])
}

func clipHead(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n[truncated]"
}
