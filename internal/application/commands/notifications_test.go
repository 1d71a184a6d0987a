package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/domain"
)

func TestUnseenThenMarkSeen(t *testing.T) {
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	repo := &memActions{actions: []domain.Action{
		{ID: "new", Text: "new", Kind: domain.KindAction, Created: base.Add(time.Hour)},
		{ID: "old", Text: "old", Kind: domain.KindAction, Created: base.Add(-time.Hour)},
	}}
	cursor := &memCursor{at: &base}

	res, err := NewGetUnseenCommand(repo, cursor).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, actionIDs(res.Actions))
	require.NotNil(t, res.LastSeen)
	assert.True(t, res.LastSeen.Equal(base))

	seenAt := base.Add(2 * time.Hour)
	at, err := NewMarkSeenCommand(cursor, fixedClock(seenAt)).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, at.Equal(seenAt))

	res, err = NewGetUnseenCommand(repo, cursor).Execute(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Actions)
}

func TestUnseen_NoCursorReturnsAllOpen(t *testing.T) {
	done := time.Now().UTC()
	repo := &memActions{actions: []domain.Action{
		{ID: "a", Kind: domain.KindAction},
		{ID: "b", Kind: domain.KindAction, Completed: &done},
	}}

	res, err := NewGetUnseenCommand(repo, &memCursor{}).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, actionIDs(res.Actions))
	assert.Nil(t, res.LastSeen)
}
