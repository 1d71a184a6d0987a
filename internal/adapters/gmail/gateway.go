package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"

	"archivist/internal/ports"
	"archivist/internal/rate"
)

const (
	user             = "me"
	defaultPageLimit = 100
)

// Gateway implements ports.MailGateway over the Gmail API.
// Every API call waits on the limiter first.
type Gateway struct {
	svc     *gmailv1.Service
	limiter rate.Limiter
}

var _ ports.MailGateway = (*Gateway)(nil)

// NewGateway wraps svc; a nil limiter allows 5 calls per second
func NewGateway(svc *gmailv1.Service, limiter rate.Limiter) *Gateway {
	if limiter == nil {
		limiter = rate.NewTokenBucket(5)
	}
	return &Gateway{svc: svc, limiter: limiter}
}

// Sync is a no-op: the API always reflects the mailbox
func (g *Gateway) Sync(ctx context.Context) error {
	return nil
}

// Search lists matching threads and summarizes each one
func (g *Gateway) Search(ctx context.Context, q ports.MailQuery) ([]ports.ThreadSummary, error) {
	query := BuildQuery(q)

	var ids []string
	pageToken := ""
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		call := g.svc.Users.Threads.List(user).Q(query).MaxResults(defaultPageLimit)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("list threads: %w", err)
		}
		for _, t := range res.Threads {
			ids = append(ids, t.Id)
		}
		if res.NextPageToken == "" || (q.Limit > 0 && len(ids) >= q.Limit) {
			break
		}
		pageToken = res.NextPageToken
	}
	if q.Limit > 0 && len(ids) > q.Limit {
		ids = ids[:q.Limit]
	}

	out := make([]ports.ThreadSummary, 0, len(ids))
	for _, id := range ids {
		th, err := g.getThread(ctx, id, "metadata")
		if err != nil {
			return nil, err
		}
		if s, ok := summarize(th); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Sender returns the From header of the first message in the thread
func (g *Gateway) Sender(ctx context.Context, threadID string) (string, error) {
	th, err := g.getThread(ctx, threadID, "metadata")
	if err != nil {
		return "", err
	}
	if len(th.Messages) == 0 {
		return "", fmt.Errorf("thread %s has no messages", threadID)
	}
	return header(th.Messages[0], "From"), nil
}

// Thread returns every message with its text/plain body
func (g *Gateway) Thread(ctx context.Context, threadID string) ([]ports.Message, error) {
	th, err := g.getThread(ctx, threadID, "full")
	if err != nil {
		return nil, err
	}

	msgs := make([]ports.Message, 0, len(th.Messages))
	for _, m := range th.Messages {
		var parts []string
		collectPlainText(m.Payload, &parts)
		body := strings.Join(parts, "\n")
		if body == "" {
			body = "(no text content)"
		}
		msgs = append(msgs, ports.Message{
			ID:      m.Id,
			From:    header(m, "From"),
			To:      header(m, "To"),
			Subject: header(m, "Subject"),
			Date:    time.UnixMilli(m.InternalDate).UTC(),
			Body:    body,
		})
	}
	return msgs, nil
}

func (g *Gateway) getThread(ctx context.Context, id, format string) (*gmailv1.Thread, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	call := g.svc.Users.Threads.Get(user, id).Format(format)
	if format == "metadata" {
		call = call.MetadataHeaders("From", "To", "Subject")
	}
	th, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}
	return th, nil
}

// BuildQuery renders a MailQuery in Gmail search syntax. notmuch style
// tag: terms in Raw are read as Gmail labels.
func BuildQuery(q ports.MailQuery) string {
	var parts []string
	if !q.Since.IsZero() {
		parts = append(parts, fmt.Sprintf("after:%d", q.Since.Unix()))
	}
	if q.ExcludeFrom != "" {
		parts = append(parts, "-from:"+q.ExcludeFrom)
	}
	if raw := strings.TrimSpace(q.Raw); raw != "" {
		raw = strings.ReplaceAll(raw, "tag:", "label:")
		if len(parts) > 0 {
			raw = "(" + raw + ")"
		}
		parts = append(parts, raw)
	}
	return strings.Join(parts, " ")
}

func summarize(th *gmailv1.Thread) (ports.ThreadSummary, bool) {
	if len(th.Messages) == 0 {
		return ports.ThreadSummary{}, false
	}
	first := th.Messages[0]
	last := th.Messages[len(th.Messages)-1]

	var authors []string
	seen := map[string]bool{}
	for _, m := range th.Messages {
		name := authorName(header(m, "From"))
		if name != "" && !seen[name] {
			seen[name] = true
			authors = append(authors, name)
		}
	}

	return ports.ThreadSummary{
		ThreadID:  th.Id,
		Subject:   header(first, "Subject"),
		Authors:   strings.Join(authors, ", "),
		Timestamp: time.UnixMilli(last.InternalDate).UTC(),
		Tags:      last.LabelIds,
	}, true
}

// authorName returns the display part of a From header, or the address
func authorName(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.LastIndex(from, "<"); i > 0 {
		if name := strings.Trim(strings.TrimSpace(from[:i]), `"`); name != "" {
			return name
		}
	}
	return strings.Trim(from, "<>")
}

func header(m *gmailv1.Message, name string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func collectPlainText(part *gmailv1.MessagePart, parts *[]string) {
	if part == nil {
		return
	}
	if strings.EqualFold(part.MimeType, "text/plain") && part.Body != nil && part.Body.Data != "" {
		if text := decodeBase64URL(part.Body.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for _, sub := range part.Parts {
		collectPlainText(sub, parts)
	}
}

func decodeBase64URL(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail uses unpadded base64url
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}
