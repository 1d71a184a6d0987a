package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"archivist/internal/application"
	"archivist/internal/ports"
)

// ContactMatch is a contact with a relevance score
type ContactMatch struct {
	ports.Contact
	Score int
}

// SearchContactsCommand searches the relationship directory with fuzzy matching
type SearchContactsCommand struct {
	dir   ports.ContactDirectory
	Query string
}

// NewSearchContactsCommand creates a new SearchContactsCommand
func NewSearchContactsCommand(dir ports.ContactDirectory, query string) *SearchContactsCommand {
	return &SearchContactsCommand{dir: dir, Query: query}
}

// Execute lists every contact for an empty query, else scored and sorted matches
func (c *SearchContactsCommand) Execute(ctx context.Context) ([]ContactMatch, error) {
	contacts, err := c.dir.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	query := strings.TrimSpace(c.Query)
	if query == "" {
		out := make([]ContactMatch, len(contacts))
		for i, ct := range contacts {
			out[i] = ContactMatch{Contact: ct}
		}
		return out, nil
	}
	return FuzzySort(contacts, query), nil
}

// ShowContactCommand returns one contact with its notes
type ShowContactCommand struct {
	dir  ports.ContactDirectory
	Slug string
}

// NewShowContactCommand creates a new ShowContactCommand
func NewShowContactCommand(dir ports.ContactDirectory, slug string) *ShowContactCommand {
	return &ShowContactCommand{dir: dir, Slug: slug}
}

// Execute runs the show command
func (c *ShowContactCommand) Execute(ctx context.Context) (ports.Contact, error) {
	if err := application.ValidateRequired("slug", c.Slug); err != nil {
		return ports.Contact{}, err
	}
	return c.dir.Get(ctx, c.Slug)
}

// FuzzyScore calculates a relevance score for how well target matches query
func FuzzyScore(target, query string) int {
	target = strings.ToLower(target)
	query = strings.ToLower(query)

	if len(query) == 0 {
		return 0
	}

	// Check for exact substring match first (highest priority)
	if strings.Contains(target, query) {
		score := 100
		if strings.HasPrefix(target, query) {
			score += 50
		}
		return score
	}

	// Fuzzy match: check if chars appear in order
	score := 0
	queryIdx := 0
	prevMatchIdx := -1

	for i := 0; i < len(target) && queryIdx < len(query); i++ {
		if target[i] == query[queryIdx] {
			if prevMatchIdx == i-1 {
				score += 10 // consecutive chars
			}
			if i == 0 {
				score += 15 // start of string
			}
			if i > 0 && (target[i-1] == ' ' || target[i-1] == '@' || target[i-1] == '-') {
				score += 10 // after separator
			}
			score += 1
			prevMatchIdx = i
			queryIdx++
		}
	}

	if queryIdx == len(query) {
		return score
	}
	return 0
}

// FuzzySort scores contacts by name, slug and address and drops non-matches
func FuzzySort(contacts []ports.Contact, query string) []ContactMatch {
	scored := make([]ContactMatch, 0, len(contacts))

	for _, ct := range contacts {
		best := max(FuzzyScore(ct.Name, query), FuzzyScore(ct.Slug, query))
		for _, e := range ct.Emails {
			best = max(best, FuzzyScore(e, query))
		}

		if best > 0 {
			scored = append(scored, ContactMatch{Contact: ct, Score: best})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}
