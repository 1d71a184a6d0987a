package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.ID
	}
	return out
}

func act(id string) Action {
	return Action{ID: id, Text: "do " + id, Kind: KindAction}
}

func TestAppendAction_HeadAndTail(t *testing.T) {
	var list []Action
	var inserted bool

	list, _, inserted = AppendAction(list, act("a"), PositionTail)
	require.True(t, inserted)
	list, _, _ = AppendAction(list, act("b"), PositionTail)
	list, _, _ = AppendAction(list, act("x"), PositionHead)
	list, _, _ = AppendAction(list, act("y"), PositionHead)

	assert.Equal(t, []string{"y", "x", "a", "b"}, ids(list))
}

func TestAppendAction_DuplicateReturnsExisting(t *testing.T) {
	original := act("a")
	original.Text = "original"
	list := []Action{original, act("b")}

	dup := act("a")
	dup.Text = "replacement"
	out, got, inserted := AppendAction(list, dup, PositionHead)

	assert.False(t, inserted)
	assert.Equal(t, "original", got.Text)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestAppendAction_DoesNotMutateInput(t *testing.T) {
	list := []Action{act("a"), act("b")}
	_, _, _ = AppendAction(list, act("c"), PositionHead)
	assert.Equal(t, []string{"a", "b"}, ids(list))
}

func TestUpdateAction(t *testing.T) {
	list := []Action{act("a"), act("b")}
	done := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	out, updated, err := UpdateAction(list, "b", ActionPatch{
		Text:         StringPtr("new text"),
		SetCompleted: true,
		Completed:    &done,
	})
	require.NoError(t, err)
	assert.Equal(t, "new text", updated.Text)
	require.NotNil(t, updated.Completed)
	assert.True(t, updated.Completed.Equal(done))
	assert.Equal(t, "do b", list[1].Text, "input must be untouched")
	assert.Equal(t, updated, out[1])

	reopened, _, err := UpdateAction(out, "b", ActionPatch{SetCompleted: true})
	require.NoError(t, err)
	assert.Nil(t, reopened[1].Completed)
}

func TestUpdateAction_NotFound(t *testing.T) {
	list := []Action{act("a")}
	out, _, err := UpdateAction(list, "zzz", ActionPatch{Text: StringPtr("x")})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, list, out)
}

func TestDeleteAction(t *testing.T) {
	list := []Action{act("a"), act("b"), act("c")}

	out, removed, err := DeleteAction(list, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", removed.ID)
	assert.Equal(t, []string{"a", "c"}, ids(out))

	_, _, err = DeleteAction(out, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderActions(t *testing.T) {
	list := []Action{act("a"), act("b"), act("c")}

	tests := []struct {
		name  string
		order []string
		want  []string
	}{
		{"swap first two", []string{"b", "a"}, []string{"b", "a", "c"}},
		{"unknown id skipped", []string{"b", "x", "a"}, []string{"b", "a", "c"}},
		{"repeated id counted once", []string{"c", "c", "a"}, []string{"c", "a", "b"}},
		{"empty order keeps list", nil, []string{"a", "b", "c"}},
		{"full permutation", []string{"c", "b", "a"}, []string{"c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReorderActions(list, tt.order)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterActions(t *testing.T) {
	done := time.Now().UTC()
	closed := act("b")
	closed.Completed = &done
	list := []Action{act("a"), closed, act("c")}

	assert.Equal(t, []string{"a", "c"}, ids(FilterActions(list, false)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(FilterActions(list, true)))
}

func TestUnseenActions(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(id string, offset time.Duration) Action {
		a := act(id)
		a.Created = base.Add(offset)
		return a
	}
	done := base
	closed := at("closed", 3*time.Hour)
	closed.Completed = &done

	list := []Action{at("new", 2*time.Hour), closed, at("old", -time.Hour), at("edge", 0)}

	assert.Equal(t, []string{"new", "old", "edge"}, ids(UnseenActions(list, nil)))
	assert.Equal(t, []string{"new"}, ids(UnseenActions(list, &base)))

	later := base.Add(5 * time.Hour)
	assert.Empty(t, UnseenActions(list, &later))
}
