package commands

import (
	"context"
	"strings"

	"archivist/internal/application"
	"archivist/internal/ports"
)

const (
	defaultRecentLimit = 30
	searchLimit        = 50
)

var automatedAuthorPatterns = []string{
	"noreply@", "no-reply@", "notifications@", "mailer-daemon@",
	"donotreply@", "updates@", "news@", "newsletter@", "marketing@",
	"bounce", "daemon",
	"github.com", "linkedin.com", "substack.com", "stripe.com",
	"google.com", "googlemail.com", "facebookmail.com", "twitter.com",
	"amazonses.com", "sendgrid.net", "mailchimp.com", "constantcontact.com",
}

// IsAutomated reports whether a thread's authors look like a bulk or machine sender
func IsAutomated(authors string) bool {
	authors = strings.ToLower(authors)
	for _, p := range automatedAuthorPatterns {
		if strings.Contains(authors, p) {
			return true
		}
	}
	return false
}

// ThreadList is a read result. A collaborator failure leaves Threads empty
// and keeps the raw error text in Error.
type ThreadList struct {
	Query   string
	Threads []ports.ThreadSummary
	Error   string
}

// RecentEmailCommand lists recent inbox threads from people
type RecentEmailCommand struct {
	mail  ports.MailGateway
	Limit int
}

// NewRecentEmailCommand creates a new RecentEmailCommand
func NewRecentEmailCommand(mail ports.MailGateway, limit int) *RecentEmailCommand {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return &RecentEmailCommand{mail: mail, Limit: limit}
}

// Execute runs the recent query. It over-fetches to make room for filtered senders.
func (c *RecentEmailCommand) Execute(ctx context.Context) (*ThreadList, error) {
	threads, err := c.mail.Search(ctx, ports.MailQuery{Raw: "tag:inbox", Limit: c.Limit * 4})
	if err != nil {
		return &ThreadList{Threads: []ports.ThreadSummary{}, Error: err.Error()}, nil
	}

	out := make([]ports.ThreadSummary, 0, c.Limit)
	for _, t := range threads {
		if IsAutomated(t.Authors) {
			continue
		}
		out = append(out, t)
		if len(out) >= c.Limit {
			break
		}
	}
	return &ThreadList{Threads: out}, nil
}

// SearchEmailCommand runs a raw query against the mail index
type SearchEmailCommand struct {
	mail  ports.MailGateway
	Query string
}

// NewSearchEmailCommand creates a new SearchEmailCommand
func NewSearchEmailCommand(mail ports.MailGateway, query string) *SearchEmailCommand {
	return &SearchEmailCommand{mail: mail, Query: query}
}

// Execute runs the search
func (c *SearchEmailCommand) Execute(ctx context.Context) (*ThreadList, error) {
	if err := application.ValidateRequired("query", c.Query); err != nil {
		return nil, err
	}
	threads, err := c.mail.Search(ctx, ports.MailQuery{Raw: c.Query, Limit: searchLimit})
	if err != nil {
		return &ThreadList{Query: c.Query, Threads: []ports.ThreadSummary{}, Error: err.Error()}, nil
	}
	return &ThreadList{Query: c.Query, Threads: threads}, nil
}

// ThreadView is a read result for one thread
type ThreadView struct {
	ThreadID string
	Messages []ports.Message
	Error    string
}

// ReadThreadCommand loads every message of a thread
type ReadThreadCommand struct {
	mail     ports.MailGateway
	ThreadID string
}

// NewReadThreadCommand creates a new ReadThreadCommand
func NewReadThreadCommand(mail ports.MailGateway, threadID string) *ReadThreadCommand {
	return &ReadThreadCommand{mail: mail, ThreadID: threadID}
}

// Execute runs the read
func (c *ReadThreadCommand) Execute(ctx context.Context) (*ThreadView, error) {
	if err := application.ValidateRequired("threadID", c.ThreadID); err != nil {
		return nil, err
	}
	msgs, err := c.mail.Thread(ctx, c.ThreadID)
	if err != nil {
		return &ThreadView{ThreadID: c.ThreadID, Messages: []ports.Message{}, Error: err.Error()}, nil
	}
	return &ThreadView{ThreadID: c.ThreadID, Messages: msgs}, nil
}
