package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"archivist/internal/application"
	"archivist/internal/application/commands"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

// --- actions ---

func (s *Server) listActions(w http.ResponseWriter, r *http.Request) {
	include := r.URL.Query().Get("include_completed") == "true"
	actions, err := commands.NewListActionsCommand(s.console.Actions, include).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ActionsDocument{Actions: nonNil(actions)})
}

type addActionRequest struct {
	Text    string  `json:"text"`
	Type    string  `json:"type"`
	Target  *string `json:"target"`
	Context string  `json:"context"`
}

func (s *Server) addAction(w http.ResponseWriter, r *http.Request) {
	var req addActionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	kind := domain.KindAction
	if req.Type != "" {
		kind = domain.ActionKind(req.Type)
	}

	a, err := commands.NewCreateActionCommand(s.console.Actions, req.Text, kind, req.Target, req.Context).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// updateActionRequest distinguishes absent fields from explicit nulls.
// completed accepts null or false to reopen, true for now, or an RFC 3339 time.
type updateActionRequest struct {
	Text      *string         `json:"text"`
	Context   *string         `json:"context"`
	Completed json.RawMessage `json:"completed"`
}

func (s *Server) updateAction(w http.ResponseWriter, r *http.Request) {
	var req updateActionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	patch := domain.ActionPatch{Text: req.Text, Context: req.Context}
	if len(req.Completed) > 0 {
		at, err := parseCompleted(req.Completed)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.SetCompleted = true
		patch.Completed = at
	}

	a, err := commands.NewUpdateActionCommand(s.console.Actions, r.PathValue("id"), patch).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func parseCompleted(raw json.RawMessage) (*time.Time, error) {
	invalid := &application.ValidationError{Field: "completed", Message: "must be null, a boolean or an RFC 3339 timestamp"}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, invalid
	}
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if !val {
			return nil, nil
		}
		now := time.Now().UTC()
		return &now, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return nil, invalid
		}
		return &t, nil
	default:
		return nil, invalid
	}
}

func (s *Server) deleteAction(w http.ResponseWriter, r *http.Request) {
	if _, err := commands.NewDeleteActionCommand(s.console.Actions, r.PathValue("id")).Execute(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) reorderActions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Order []string `json:"order"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	actions, err := commands.NewReorderActionsCommand(s.console.Actions, req.Order).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.ActionsDocument{Actions: nonNil(actions)})
}

// --- notifications ---

type notificationItem struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	Context string    `json:"context"`
	Created time.Time `json:"created"`
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	res, err := commands.NewGetUnseenCommand(s.console.Actions, s.console.Seen).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]notificationItem, len(res.Actions))
	for i, a := range res.Actions {
		items[i] = notificationItem{ID: a.ID, Text: a.Text, Context: a.Context, Created: a.Created}
	}
	writeJSON(w, http.StatusOK, map[string]any{"new_items": items, "count": len(items)})
}

func (s *Server) markSeen(w http.ResponseWriter, r *http.Request) {
	at, err := commands.NewMarkSeenCommand(s.console.Seen, nil).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "last_seen": at})
}

// --- triage ---

func (s *Server) listTriage(w http.ResponseWriter, r *http.Request) {
	doc, err := commands.NewListTriageCommand(s.console.Triage).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if doc.Items == nil {
		doc.Items = []domain.TriageItem{}
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) refreshTriage(w http.ResponseWriter, r *http.Request) {
	run, err := commands.NewRefreshTriageCommand(s.console.Runner).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "started", "log": run.LogPath, "pid": run.PID})
}

func (s *Server) setTriageStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := commands.NewUpdateTriageStatusCommand(s.console.Triage, r.PathValue("id"), req.Status).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) draftReply(w http.ResponseWriter, r *http.Request) {
	c := s.console
	res, err := commands.NewDraftReplyCommand(c.Triage, c.Mail, c.Contacts, c.Generator, r.PathValue("id")).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"item_id":           res.ItemID,
		"draft":             res.Draft,
		"has_relationship":  res.HasRelationship,
		"relationship_slug": res.RelationshipSlug,
	})
}

// --- contacts ---

type contactResponse struct {
	Slug    string   `json:"slug"`
	Name    string   `json:"name"`
	Emails  []string `json:"emails"`
	Summary string   `json:"context"`
	Content string   `json:"content,omitempty"`
}

func toContact(c ports.Contact) contactResponse {
	emails := c.Emails
	if emails == nil {
		emails = []string{}
	}
	return contactResponse{Slug: c.Slug, Name: c.Name, Emails: emails, Summary: c.Summary, Content: c.Content}
}

func (s *Server) searchContacts(w http.ResponseWriter, r *http.Request) {
	matches, err := commands.NewSearchContactsCommand(s.console.Contacts, r.URL.Query().Get("q")).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]contactResponse, len(matches))
	for i, m := range matches {
		out[i] = toContact(m.Contact)
		out[i].Content = ""
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": out})
}

func (s *Server) showContact(w http.ResponseWriter, r *http.Request) {
	c, err := commands.NewShowContactCommand(s.console.Contacts, r.PathValue("slug")).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toContact(c))
}

// --- email ---

type threadResponse struct {
	ThreadID  string    `json:"thread_id"`
	Subject   string    `json:"subject"`
	Authors   string    `json:"authors"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags"`
}

type threadListResponse struct {
	Query   string           `json:"query,omitempty"`
	Threads []threadResponse `json:"threads"`
	Error   string           `json:"error,omitempty"`
}

func toThreadList(list *commands.ThreadList) threadListResponse {
	out := threadListResponse{Query: list.Query, Error: list.Error, Threads: make([]threadResponse, len(list.Threads))}
	for i, t := range list.Threads {
		tags := t.Tags
		if tags == nil {
			tags = []string{}
		}
		out.Threads[i] = threadResponse{ThreadID: t.ThreadID, Subject: t.Subject, Authors: t.Authors, Timestamp: t.Timestamp, Tags: tags}
	}
	return out
}

func (s *Server) recentEmail(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, r, &application.ValidationError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}
	list, err := commands.NewRecentEmailCommand(s.console.Mail, limit).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toThreadList(list))
}

func (s *Server) searchEmail(w http.ResponseWriter, r *http.Request) {
	list, err := commands.NewSearchEmailCommand(s.console.Mail, strings.TrimSpace(r.URL.Query().Get("q"))).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toThreadList(list))
}

type messageResponse struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Date    time.Time `json:"date"`
	Body    string    `json:"body"`
}

func (s *Server) readEmail(w http.ResponseWriter, r *http.Request) {
	view, err := commands.NewReadThreadCommand(s.console.Mail, r.PathValue("thread")).Execute(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msgs := make([]messageResponse, len(view.Messages))
	for i, m := range view.Messages {
		msgs[i] = messageResponse{ID: m.ID, From: m.From, To: m.To, Subject: m.Subject, Date: m.Date, Body: m.Body}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": view.ThreadID,
		"messages":  msgs,
		"error":     view.Error,
	})
}

func nonNil(actions []domain.Action) []domain.Action {
	if actions == nil {
		return []domain.Action{}
	}
	return actions
}
