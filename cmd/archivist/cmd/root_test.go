package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/application"
	"archivist/internal/domain"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"usage", usageError{errors.New("accepts 1 arg(s)")}, ExitUsage},
		{"validation", &application.ValidationError{Field: "text", Message: "text is required"}, ExitUsage},
		{"wrapped validation", errors.Join(errors.New("ctx"), &application.ValidationError{Field: "order"}), ExitUsage},
		{"not found", domain.NotFound("action", "x"), ExitFailure},
		{"unavailable", application.Unavailable("mail", errors.New("down")), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRenderAction(t *testing.T) {
	target := "email:thread:abc"
	done := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	open := renderAction(1, domain.Action{ID: "a1", Text: "Call mum", Kind: domain.KindAction, Context: "birthday"}, true)
	assert.Contains(t, open, "[ ]")
	assert.Contains(t, open, "a1")
	assert.Contains(t, open, "birthday")

	pointer := renderAction(2, domain.Action{ID: "mail-1", Text: "Reply", Kind: domain.KindPointer, Target: &target, Completed: &done}, false)
	assert.Contains(t, pointer, "[x]")
	assert.Contains(t, pointer, "-> email:thread:abc")
}

// run executes the CLI against a scratch archive with versioning disabled
func run(t *testing.T, archive string, argv ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(archive, "archivist.yaml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--archive", archive, "--config", cfgPath}, argv...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newArchive(t *testing.T) string {
	t.Helper()
	archive := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(archive, "archivist.yaml"), []byte("git:\n  enabled: false\n"), 0o644))
	t.Setenv("ARCHIVE_DIR", archive)
	t.Setenv("ARCHIVIST_CONFIG", "")
	return archive
}

func TestCLI_ActionsRoundTrip(t *testing.T) {
	archive := newArchive(t)

	out, err := run(t, archive, "actions", "add", "Book flights", "--context", "March trip")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added")

	out, err = run(t, archive, "actions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Book flights")
	assert.Contains(t, out, "March trip")

	data, err := os.ReadFile(filepath.Join(archive, "coordination", "next-actions.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "Book flights"`)

	_, err = run(t, archive, "actions", "add", "   ")
	assert.Equal(t, ExitUsage, exitCode(err))

	_, err = run(t, archive, "actions", "done")
	assert.Equal(t, ExitUsage, exitCode(err))

	_, err = run(t, archive, "actions", "delete", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, ExitFailure, exitCode(err))
}

func TestCLI_NotifyCycle(t *testing.T) {
	archive := newArchive(t)

	_, err := run(t, archive, "actions", "add", "Something new")
	require.NoError(t, err)

	out, err := run(t, archive, "notify", "unseen")
	require.NoError(t, err)
	assert.Contains(t, out, "1 new")

	_, err = run(t, archive, "notify", "mark-seen")
	require.NoError(t, err)

	out, err = run(t, archive, "notify", "unseen")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing new.")
}

func TestCLI_TriageStatus(t *testing.T) {
	archive := newArchive(t)
	dir := filepath.Join(archive, "docs")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "communication-triage.json"), []byte(`{
  "generated": "2026-03-01T08:00:00Z",
  "items": [{"id": "t1", "thread_id": "th1", "from_name": "Jane", "from_email": "jane@example.com",
             "subject": "Lunch", "summary": "", "relationship_slug": null, "status": "needs-response"}]
}`), 0o644))

	_, err := run(t, archive, "triage", "status", "t1", "bogus")
	assert.Equal(t, ExitUsage, exitCode(err))

	out, err := run(t, archive, "triage", "status", "t1", "replied")
	require.NoError(t, err, out)
	assert.Contains(t, out, "replied")

	out, err = run(t, archive, "triage", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Lunch")
	assert.True(t, strings.Contains(out, "replied"))
}

func TestCLI_RefreshMissingScript(t *testing.T) {
	archive := newArchive(t)

	_, err := run(t, archive, "triage", "refresh")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
