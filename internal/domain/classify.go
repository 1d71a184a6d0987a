package domain

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// Classification is the routing decision for a sender
type Classification int

const (
	ClassIgnore Classification = iota
	ClassVIP
	ClassKnown
	ClassUnknown
)

func (c Classification) String() string {
	switch c {
	case ClassIgnore:
		return "ignore"
	case ClassVIP:
		return "vip"
	case ClassKnown:
		return "known"
	default:
		return "unknown"
	}
}

// ContactMatcher reports whether an address belongs to a known person
type ContactMatcher interface {
	IsKnown(ctx context.Context, address string) (bool, error)
}

// DefaultIgnorePatterns are substrings of automated sender addresses
var DefaultIgnorePatterns = []string{
	"noreply@",
	"no-reply@",
	"notifications@",
	"mailer-daemon@",
	"donotreply@",
	"updates@",
	"news@",
	"newsletter@",
	"support@github.com",
	"github.com",
	"linkedin.com",
	"substack.com",
	"stripe.com",
	"googlealerts",
}

// Heuristics holds everything Classify consults
type Heuristics struct {
	Owner          string
	IgnorePatterns []string
	VIPs           []string
	Contacts       ContactMatcher
}

// Classify routes a sender address. Rules are evaluated in order and the
// first match wins: unparseable, self, ignore pattern, VIP, known contact.
// The contact lookup is the only step that does I/O and the only source
// of a non-nil error.
func Classify(ctx context.Context, address string, h Heuristics) (Classification, error) {
	// cases.Caser keeps state and is not safe for concurrent use
	fold := cases.Fold()
	norm := func(s string) string { return fold.String(strings.TrimSpace(s)) }

	addr := norm(address)
	if !looksLikeAddress(addr) {
		return ClassIgnore, nil
	}
	if h.Owner != "" && addr == norm(h.Owner) {
		return ClassIgnore, nil
	}
	for _, p := range h.IgnorePatterns {
		if p = norm(p); p != "" && strings.Contains(addr, p) {
			return ClassIgnore, nil
		}
	}
	for _, v := range h.VIPs {
		if addr == norm(v) {
			return ClassVIP, nil
		}
	}
	if h.Contacts == nil {
		return ClassUnknown, nil
	}
	known, err := h.Contacts.IsKnown(ctx, addr)
	if err != nil {
		return ClassUnknown, err
	}
	if known {
		return ClassKnown, nil
	}
	return ClassUnknown, nil
}
