package notmuch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"archivist/internal/ports"
)

// DefaultChannel is the mbsync channel pulled before each search
const DefaultChannel = "gmail"

// Runner executes an external command and returns its stdout
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Gateway implements ports.MailGateway over mbsync and the notmuch CLI
type Gateway struct {
	channel string
	run     Runner
}

var _ ports.MailGateway = (*Gateway)(nil)

// Option configures the Gateway
type Option func(*Gateway)

// WithChannel sets the mbsync channel; an empty channel skips mbsync
func WithChannel(channel string) Option {
	return func(g *Gateway) { g.channel = channel }
}

// WithRunner replaces command execution
func WithRunner(r Runner) Option {
	return func(g *Gateway) { g.run = r }
}

// NewGateway creates a notmuch-backed gateway
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{channel: DefaultChannel, run: execRunner}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Sync fetches mail with mbsync and indexes it with notmuch new
func (g *Gateway) Sync(ctx context.Context) error {
	if g.channel != "" {
		if _, err := g.run(ctx, "mbsync", g.channel); err != nil {
			return fmt.Errorf("mbsync %s: %w", g.channel, err)
		}
	}
	if _, err := g.run(ctx, "notmuch", "new"); err != nil {
		return fmt.Errorf("notmuch new: %w", err)
	}
	return nil
}

// Search returns thread summaries, newest first
func (g *Gateway) Search(ctx context.Context, q ports.MailQuery) ([]ports.ThreadSummary, error) {
	args := []string{"search", "--format=json", "--output=summary", "--sort=newest-first"}
	if q.Limit > 0 {
		args = append(args, "--limit="+strconv.Itoa(q.Limit))
	}
	args = append(args, BuildQuery(q))

	out, err := g.run(ctx, "notmuch", args...)
	if err != nil {
		return nil, fmt.Errorf("notmuch search: %w", err)
	}
	return parseSearch(out)
}

// Sender returns the From header of the first message in the thread
func (g *Gateway) Sender(ctx context.Context, threadID string) (string, error) {
	out, err := g.run(ctx, "notmuch", "show", "--format=json", "--entire-thread=false", "thread:"+threadID)
	if err != nil {
		return "", fmt.Errorf("notmuch show: %w", err)
	}
	msgs, err := parseShow(out)
	if err != nil {
		return "", err
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("thread %s has no messages", threadID)
	}
	return msgs[0].From, nil
}

// Thread returns every message of the thread in display order
func (g *Gateway) Thread(ctx context.Context, threadID string) ([]ports.Message, error) {
	out, err := g.run(ctx, "notmuch", "show", "--format=json", "--entire-thread=true", "thread:"+threadID)
	if err != nil {
		return nil, fmt.Errorf("notmuch show: %w", err)
	}
	return parseShow(out)
}

// BuildQuery renders a MailQuery in notmuch search syntax
func BuildQuery(q ports.MailQuery) string {
	var parts []string
	if !q.Since.IsZero() {
		parts = append(parts, fmt.Sprintf("date:@%d..", q.Since.Unix()))
	}
	if q.ExcludeFrom != "" {
		parts = append(parts, "NOT from:"+q.ExcludeFrom)
	}
	if raw := strings.TrimSpace(q.Raw); raw != "" {
		if len(parts) > 0 {
			raw = "(" + raw + ")"
		}
		parts = append(parts, raw)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " AND ")
}

type searchHit struct {
	Thread    string   `json:"thread"`
	Timestamp int64    `json:"timestamp"`
	Authors   string   `json:"authors"`
	Subject   string   `json:"subject"`
	Tags      []string `json:"tags"`
}

func parseSearch(data []byte) ([]ports.ThreadSummary, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []ports.ThreadSummary{}, nil
	}
	var hits []searchHit
	if err := json.Unmarshal(data, &hits); err != nil {
		return nil, fmt.Errorf("parse notmuch search output: %w", err)
	}

	out := make([]ports.ThreadSummary, 0, len(hits))
	for _, h := range hits {
		if h.Thread == "" {
			continue
		}
		out = append(out, ports.ThreadSummary{
			ThreadID:  h.Thread,
			Subject:   h.Subject,
			Authors:   h.Authors,
			Timestamp: time.Unix(h.Timestamp, 0).UTC(),
			Tags:      h.Tags,
		})
	}
	return out, nil
}

// parseShow flattens notmuch's nested thread/reply structure into messages
func parseShow(data []byte) ([]ports.Message, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []ports.Message{}, nil
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("parse notmuch show output: %w", err)
	}

	msgs := []ports.Message{}
	collectMessages(tree, &msgs)
	return msgs, nil
}

func collectMessages(node any, msgs *[]ports.Message) {
	switch v := node.(type) {
	case []any:
		for _, child := range v {
			collectMessages(child, msgs)
		}
	case map[string]any:
		headers, ok := v["headers"].(map[string]any)
		if !ok {
			for _, child := range v {
				collectMessages(child, msgs)
			}
			return
		}

		var parts []string
		collectText(v["body"], &parts)
		body := strings.Join(parts, "\n")
		if body == "" {
			body = "(no text content)"
		}

		msg := ports.Message{
			ID:      str(v["id"]),
			From:    str(headers["From"]),
			To:      str(headers["To"]),
			Subject: str(headers["Subject"]),
			Body:    body,
		}
		if ts, ok := v["timestamp"].(float64); ok {
			msg.Date = time.Unix(int64(ts), 0).UTC()
		}
		*msgs = append(*msgs, msg)
	}
}

func collectText(node any, parts *[]string) {
	switch v := node.(type) {
	case []any:
		for _, child := range v {
			collectText(child, parts)
		}
	case map[string]any:
		content := v["content"]
		if v["content-type"] == "text/plain" {
			if s, ok := content.(string); ok {
				*parts = append(*parts, s)
				return
			}
		}
		if list, ok := content.([]any); ok {
			collectText(list, parts)
		}
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}
