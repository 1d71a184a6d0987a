package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/ports"
)

func TestIsAutomated(t *testing.T) {
	assert.True(t, IsAutomated("GitHub <noreply@github.com>"))
	assert.True(t, IsAutomated("Weekly Newsletter"))
	assert.False(t, IsAutomated("Jane Doe"))
}

func TestRecentEmailCommand_FiltersAndLimits(t *testing.T) {
	mail := &fakeMail{threads: []ports.ThreadSummary{
		{ThreadID: "1", Authors: "Jane Doe"},
		{ThreadID: "2", Authors: "noreply@shop.com"},
		{ThreadID: "3", Authors: "Bob"},
		{ThreadID: "4", Authors: "Carol"},
	}}

	got, err := NewRecentEmailCommand(mail, 2).Execute(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Threads, 2)
	assert.Equal(t, "1", got.Threads[0].ThreadID)
	assert.Equal(t, "3", got.Threads[1].ThreadID)
	assert.Equal(t, 8, mail.queries[0].Limit)
	assert.Equal(t, "tag:inbox", mail.queries[0].Raw)
}

func TestEmailReads_DegradeOnFailure(t *testing.T) {
	mail := &fakeMail{err: errors.New("notmuch: command not found")}

	recent, err := NewRecentEmailCommand(mail, 0).Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recent.Threads)
	assert.Contains(t, recent.Error, "command not found")

	search, err := NewSearchEmailCommand(mail, "from:jane").Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, search.Threads)
	assert.Equal(t, "from:jane", search.Query)

	view, err := NewReadThreadCommand(mail, "abc").Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, view.Messages)
	assert.NotEmpty(t, view.Error)
}

func TestSearchEmailCommand_RequiresQuery(t *testing.T) {
	_, err := NewSearchEmailCommand(&fakeMail{}, " ").Execute(context.Background())
	assert.Error(t, err)
}
