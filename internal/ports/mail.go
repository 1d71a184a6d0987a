package ports

import (
	"context"
	"time"
)

// MailQuery selects threads from the mail index
type MailQuery struct {
	// Since limits results to threads with activity at or after this time
	Since time.Time
	// ExcludeFrom drops threads sent by this address
	ExcludeFrom string
	// Raw is a backend specific free-text query, ANDed with the fields above
	Raw   string
	Limit int
}

// ThreadSummary is one search hit
type ThreadSummary struct {
	ThreadID  string
	Subject   string
	Authors   string
	Timestamp time.Time
	Tags      []string
}

// Message is one message of a thread with its text/plain body
type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	Date    time.Time
	Body    string
}

// MailGateway wraps the external mail store and its index
type MailGateway interface {
	// Sync pulls new mail into the local index
	Sync(ctx context.Context) error

	Search(ctx context.Context, q MailQuery) ([]ThreadSummary, error)

	// Sender returns the raw From header of the first message of a thread
	Sender(ctx context.Context, threadID string) (string, error)

	Thread(ctx context.Context, threadID string) ([]Message, error)
}
