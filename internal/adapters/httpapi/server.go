// Package httpapi exposes the console operations as an authenticated JSON API.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"archivist/internal/application"
)

// CookieName is the session cookie set by the login endpoint
const CookieName = "archive_session"

const cookieMaxAge = 30 * 24 * time.Hour

// Server serves the console API over HTTP
type Server struct {
	console *application.Console
	token   string
	log     *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request and error logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// New creates a server. Every route except the login page requires token.
func New(c *application.Console, token string, opts ...Option) (*Server, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("httpapi: empty access token")
	}
	s := &Server{console: c, token: token}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.loginSubmit)

	mux.Handle("GET /api/actions", s.auth(s.listActions))
	mux.Handle("POST /api/actions", s.auth(s.addAction))
	mux.Handle("POST /api/actions/reorder", s.auth(s.reorderActions))
	mux.Handle("PUT /api/actions/{id}", s.auth(s.updateAction))
	mux.Handle("DELETE /api/actions/{id}", s.auth(s.deleteAction))

	mux.Handle("GET /api/notifications", s.auth(s.notifications))
	mux.Handle("POST /api/notifications/mark-seen", s.auth(s.markSeen))

	mux.Handle("GET /api/triage", s.auth(s.listTriage))
	mux.Handle("POST /api/triage/refresh", s.auth(s.refreshTriage))
	mux.Handle("PUT /api/triage/{id}/status", s.auth(s.setTriageStatus))
	mux.Handle("POST /api/triage/{id}/draft-reply", s.auth(s.draftReply))

	mux.Handle("GET /api/contacts", s.auth(s.searchContacts))
	mux.Handle("GET /api/contacts/{slug}", s.auth(s.showContact))

	mux.Handle("GET /api/email/recent", s.auth(s.recentEmail))
	mux.Handle("GET /api/search/email", s.auth(s.searchEmail))
	mux.Handle("GET /api/email/{thread}", s.auth(s.readEmail))

	s.mux = mux
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("console listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// auth accepts the session cookie, a bearer header or a token query parameter
func (s *Server) auth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Unauthorized"})
			return
		}
		next(w, r)
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if c, err := r.Cookie(CookieName); err == nil && s.matches(c.Value) {
		return true
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") && s.matches(strings.TrimPrefix(auth, "Bearer ")) {
		return true
	}
	return s.matches(r.URL.Query().Get("token"))
}

func (s *Server) matches(candidate string) bool {
	if candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.token)) == 1
}

const loginForm = `<!doctype html>
<html><head><meta charset="utf-8"><title>Archive Console</title></head>
<body>
<form method="post" action="/login">
<input type="password" name="token" placeholder="access token" autofocus>
<button type="submit">Sign in</button>
</form>
</body></html>
`

func (s *Server) loginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, loginForm)
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if !s.matches(r.PostFormValue("token")) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Detail: "Invalid token"})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(cookieMaxAge.Seconds()),
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
