package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archivist/internal/application"
	"archivist/internal/domain"
	"archivist/internal/ports"
)

func triageFixture() *memTriage {
	slug := "jane-doe"
	return &memTriage{items: []domain.TriageItem{
		{ID: "t1", ThreadID: "thr1", FromName: "Jane Doe", FromEmail: "jane@example.com",
			Subject: "Dinner", Summary: "Asks about Friday", RelationshipSlug: &slug, Status: domain.StatusNeedsResponse},
		{ID: "t2", Status: domain.StatusToRead},
	}}
}

func TestUpdateTriageStatusCommand(t *testing.T) {
	for _, st := range domain.TriageStatuses {
		t.Run(string(st), func(t *testing.T) {
			repo := triageFixture()
			item, err := NewUpdateTriageStatusCommand(repo, "t1", string(st)).Execute(context.Background())
			require.NoError(t, err)
			assert.Equal(t, st, item.Status)
		})
	}
}

func TestUpdateTriageStatusCommand_Rejects(t *testing.T) {
	repo := triageFixture()

	_, err := NewUpdateTriageStatusCommand(repo, "t1", "done").Execute(context.Background())
	assert.True(t, application.IsValidation(err))
	assert.Equal(t, domain.StatusNeedsResponse, repo.items[0].Status)

	_, err = NewUpdateTriageStatusCommand(repo, "nope", "read").Execute(context.Background())
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestRefreshTriageCommand(t *testing.T) {
	run, err := NewRefreshTriageCommand(&fakeRunner{run: ports.TriageRun{PID: 42, LogPath: "/tmp/x.log"}}).
		Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, run.PID)

	_, err = NewRefreshTriageCommand(&fakeRunner{err: errors.New("no python")}).Execute(context.Background())
	assert.ErrorIs(t, err, application.ErrUnavailable)
}

func draftDeps() (*memTriage, *fakeMail, *fakeContacts) {
	mail := &fakeMail{messages: map[string][]ports.Message{
		"thr1": {{From: "Jane Doe <jane@example.com>", To: "me@home.net", Subject: "Dinner", Body: "Are you free Friday?"}},
	}}
	contacts := &fakeContacts{contacts: []ports.Contact{
		{Slug: "jane-doe", Name: "Jane Doe", Content: "# Jane\nCollege friend, loves hiking."},
	}}
	return triageFixture(), mail, contacts
}

func TestDraftReplyCommand(t *testing.T) {
	triage, mail, contacts := draftDeps()
	gen := &fakeGenerator{available: true, reply: "  Hi Jane, Friday works!  "}

	res, err := NewDraftReplyCommand(triage, mail, contacts, gen, "t1").Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Hi Jane, Friday works!", res.Draft)
	assert.True(t, res.HasRelationship)
	assert.Contains(t, gen.prompt, "**From:** Jane Doe <jane@example.com>")
	assert.Contains(t, gen.prompt, "College friend, loves hiking.")
	assert.Contains(t, gen.prompt, "Are you free Friday?")
	assert.Equal(t, domain.StatusNeedsResponse, triage.items[0].Status, "drafting must not change status")
}

func TestDraftReplyCommand_GeneratorFailureIsUnavailable(t *testing.T) {
	triage, mail, contacts := draftDeps()

	_, err := NewDraftReplyCommand(triage, mail, contacts, &fakeGenerator{available: true, err: errors.New("rate limited")}, "t1").
		Execute(context.Background())
	assert.ErrorIs(t, err, application.ErrUnavailable)

	_, err = NewDraftReplyCommand(triage, mail, contacts, &fakeGenerator{available: false}, "t1").
		Execute(context.Background())
	assert.ErrorIs(t, err, application.ErrUnavailable)
}

func TestDraftReplyCommand_Errors(t *testing.T) {
	triage, mail, contacts := draftDeps()
	gen := &fakeGenerator{available: true, reply: "x"}

	_, err := NewDraftReplyCommand(triage, mail, contacts, gen, "t2").Execute(context.Background())
	assert.True(t, application.IsValidation(err), "item without thread")

	_, err = NewDraftReplyCommand(triage, mail, contacts, gen, "missing").Execute(context.Background())
	assert.ErrorIs(t, err, application.ErrNotFound)

	mail.err = errors.New("notmuch: database locked")
	_, err = NewDraftReplyCommand(triage, mail, contacts, gen, "t1").Execute(context.Background())
	assert.ErrorIs(t, err, application.ErrUnavailable)
}

func TestDraftReplyCommand_MissingRelationship(t *testing.T) {
	triage, mail, _ := draftDeps()
	gen := &fakeGenerator{available: true, reply: "ok"}

	res, err := NewDraftReplyCommand(triage, mail, &fakeContacts{}, gen, "t1").Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.HasRelationship)
	assert.Contains(t, gen.prompt, "No relationship context available.")
}

func TestBuildDraftPrompt_Bounded(t *testing.T) {
	huge := strings.Repeat("a", maxThreadPromptChars*2)
	notes := strings.Repeat("n", maxRelationshipPromptChars*2)
	prompt := BuildDraftPrompt(domain.TriageItem{}, []ports.Message{{Body: huge + "END"}}, notes)

	assert.Less(t, len(prompt), maxThreadPromptChars+maxRelationshipPromptChars+2000)
	assert.Contains(t, prompt, "END", "newest text is kept")
	assert.Contains(t, prompt, "**From:** Unknown <>")
}
