package gmail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"archivist/internal/ports"
)

const threadJSON = `{
  "id": "t1",
  "messages": [
    {"id": "m1", "threadId": "t1", "labelIds": ["INBOX"], "internalDate": "1772355600000",
     "payload": {"mimeType": "multipart/alternative",
       "headers": [{"name": "From", "value": "Jane Doe <jane@example.com>"},
                   {"name": "To", "value": "me@home.net"},
                   {"name": "Subject", "value": "Dinner on Friday?"}],
       "parts": [{"mimeType": "text/plain", "body": {"data": "QXJlIHlvdSBmcmVlIG9uIEZyaWRheT8K"}},
                 {"mimeType": "text/html", "body": {"data": "PGI-aGk8L2I-"}}]}},
    {"id": "m2", "threadId": "t1", "labelIds": ["INBOX", "UNREAD"], "internalDate": "1772362800000",
     "payload": {"mimeType": "text/html",
       "headers": [{"name": "From", "value": "\"Bob\" <bob@example.com>"},
                   {"name": "Subject", "value": "Re: Dinner on Friday?"}],
       "body": {"data": "PGI-aGk8L2I-"}}}
  ]
}`

type fakeLimiter struct {
	mu    sync.Mutex
	waits int
}

func (f *fakeLimiter) Wait(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits++
	return nil
}

func newTestGateway(t *testing.T, handler http.HandlerFunc) (*Gateway, *fakeLimiter) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gmailv1.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	lim := &fakeLimiter{}
	return NewGateway(svc, lim), lim
}

func TestBuildQuery(t *testing.T) {
	since := time.Unix(1772355600, 0)
	assert.Equal(t, "after:1772355600 -from:me@home.net",
		BuildQuery(ports.MailQuery{Since: since, ExcludeFrom: "me@home.net"}))
	assert.Equal(t, "label:inbox", BuildQuery(ports.MailQuery{Raw: "tag:inbox"}))
	assert.Equal(t, "after:1772355600 (from:jane)", BuildQuery(ports.MailQuery{Since: since, Raw: "from:jane"}))
	assert.Equal(t, "", BuildQuery(ports.MailQuery{}))
}

func TestGateway_Search(t *testing.T) {
	var gotQuery string
	g, lim := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/users/me/threads"):
			gotQuery = r.URL.Query().Get("q")
			w.Write([]byte(`{"threads": [{"id": "t1"}]}`))
		case strings.HasSuffix(r.URL.Path, "/users/me/threads/t1"):
			assert.Equal(t, "metadata", r.URL.Query().Get("format"))
			w.Write([]byte(threadJSON))
		default:
			http.NotFound(w, r)
		}
	})

	got, err := g.Search(context.Background(), ports.MailQuery{Raw: "tag:inbox", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "label:inbox", gotQuery)
	assert.Equal(t, "t1", got[0].ThreadID)
	assert.Equal(t, "Dinner on Friday?", got[0].Subject)
	assert.Equal(t, "Jane Doe, Bob", got[0].Authors)
	assert.True(t, got[0].Timestamp.Equal(time.Unix(1772362800, 0)))
	assert.Equal(t, []string{"INBOX", "UNREAD"}, got[0].Tags)
	assert.Equal(t, 2, lim.waits)
}

func TestGateway_SenderAndThread(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(threadJSON))
	})

	from, err := g.Sender(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe <jane@example.com>", from)

	msgs, err := g.Thread(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Are you free on Friday?\n", msgs[0].Body)
	assert.Equal(t, "me@home.net", msgs[0].To)
	assert.Equal(t, "(no text content)", msgs[1].Body)
	assert.True(t, msgs[1].Date.Equal(time.Unix(1772362800, 0)))
}

func TestGateway_APIError(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 500, "message": "backend"}}`, http.StatusInternalServerError)
	})

	_, err := g.Thread(context.Background(), "t1")
	assert.Error(t, err)
	assert.NoError(t, g.Sync(context.Background()))
}

func TestNewService_MissingToken(t *testing.T) {
	dir := t.TempDir()
	secret := `{"installed": {"client_id": "id", "client_secret": "s",
		"auth_uri": "https://accounts.google.com/o/oauth2/auth",
		"token_uri": "https://oauth2.googleapis.com/token",
		"redirect_uris": ["http://localhost"]}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client_secret.json"), []byte(secret), 0o600))

	_, err := NewService(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token.json")

	_, err = NewService(context.Background(), t.TempDir())
	assert.Error(t, err)
}
