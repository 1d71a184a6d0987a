package ports

import (
	"context"

	"archivist/internal/domain"
)

// Contact is one person in the relationship directory
type Contact struct {
	Slug    string
	Name    string
	Path    string
	Emails  []string
	Summary string // the "**Context:**" line of the README
	Content string
}

// ContactDirectory is the relationship directory keyed by person slug
type ContactDirectory interface {
	domain.ContactMatcher

	List(ctx context.Context) ([]Contact, error)
	Get(ctx context.Context, slug string) (Contact, error)
}
