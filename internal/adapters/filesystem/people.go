package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"archivist/internal/domain"
	"archivist/internal/ports"
)

const readmeName = "README.md"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// PeopleDir implements ports.ContactDirectory over a directory of person
// folders, each holding a README.md and any other markdown notes.
type PeopleDir struct {
	root string
}

// NewPeopleDir creates a directory reader rooted at root
func NewPeopleDir(root string) *PeopleDir {
	return &PeopleDir{root: ExpandHome(root)}
}

// Root returns the directory being read
func (p *PeopleDir) Root() string {
	return p.root
}

// List returns every person folder sorted by slug, without note bodies
func (p *PeopleDir) List(ctx context.Context) ([]ports.Contact, error) {
	entries, err := os.ReadDir(p.root)
	if errors.Is(err, os.ErrNotExist) {
		return []ports.Contact{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read people dir: %w", err)
	}

	contacts := make([]ports.Contact, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		c := p.contact(e.Name())
		if content, err := os.ReadFile(c.Path); err == nil {
			c.Emails = extractEmails(string(content))
			c.Summary = contextLine(string(content))
		}
		contacts = append(contacts, c)
	}

	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Slug < contacts[j].Slug })
	return contacts, nil
}

// Get returns one person with the full README
func (p *PeopleDir) Get(ctx context.Context, slug string) (ports.Contact, error) {
	if slug == "" || strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return ports.Contact{}, domain.NotFound("contact", slug)
	}

	c := p.contact(slug)
	content, err := os.ReadFile(c.Path)
	if errors.Is(err, os.ErrNotExist) {
		return ports.Contact{}, domain.NotFound("contact", slug)
	}
	if err != nil {
		return ports.Contact{}, fmt.Errorf("read contact %s: %w", slug, err)
	}
	c.Content = string(content)
	c.Emails = extractEmails(c.Content)
	c.Summary = contextLine(c.Content)
	return c, nil
}

// IsKnown reports whether address appears in any markdown note, ignoring case
func (p *PeopleDir) IsKnown(ctx context.Context, address string) (bool, error) {
	needle := strings.ToLower(strings.TrimSpace(address))
	if needle == "" {
		return false, nil
	}

	found := false
	err := p.WalkNotes(func(path string, info fs.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if strings.Contains(strings.ToLower(string(content)), needle) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// WalkNotes calls fn for every markdown file under the root, skipping hidden directories
func (p *PeopleDir) WalkNotes(fn func(path string, info fs.FileInfo) error) error {
	if _, err := os.Stat(p.root); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != p.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		return fn(path, info)
	})
}

func (p *PeopleDir) contact(slug string) ports.Contact {
	return ports.Contact{
		Slug: slug,
		Name: SlugToName(slug),
		Path: filepath.Join(p.root, slug, readmeName),
	}
}

// SlugToName turns "jane-doe" into "Jane Doe"
func SlugToName(slug string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
}

// SlugFromPath returns the person folder a note under root belongs to
func SlugFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[0]
}

func extractEmails(content string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range emailPattern.FindAllString(content, -1) {
		m = strings.ToLower(m)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// contextLine returns the text after a "**Context:**" marker, if any
func contextLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if _, after, ok := strings.Cut(line, "**Context:**"); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}

var _ ports.ContactDirectory = (*PeopleDir)(nil)
