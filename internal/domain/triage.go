package domain

import (
	"fmt"
	"strings"
)

// TriageStatus is the workflow state of a triage item
type TriageStatus string

const (
	StatusNeedsResponse TriageStatus = "needs-response"
	StatusReplied       TriageStatus = "replied"
	StatusWaiting       TriageStatus = "waiting"
	StatusSnoozed       TriageStatus = "snoozed"
	StatusArchived      TriageStatus = "archived"
	StatusToRead        TriageStatus = "to-read"
	StatusRead          TriageStatus = "read"
)

// TriageStatuses lists every accepted status in display order
var TriageStatuses = []TriageStatus{
	StatusNeedsResponse,
	StatusReplied,
	StatusWaiting,
	StatusSnoozed,
	StatusArchived,
	StatusToRead,
	StatusRead,
}

// ParseTriageStatus accepts exactly one of the known statuses
func ParseTriageStatus(s string) (TriageStatus, error) {
	for _, st := range TriageStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown triage status %q (want one of %s)", s, StatusList())
}

// StatusList joins the known statuses for help and error text
func StatusList() string {
	names := make([]string, len(TriageStatuses))
	for i, st := range TriageStatuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

// TriageItem is one tracked communication
type TriageItem struct {
	ID               string       `json:"id"`
	ThreadID         string       `json:"thread_id"`
	FromName         string       `json:"from_name"`
	FromEmail        string       `json:"from_email"`
	Subject          string       `json:"subject"`
	Summary          string       `json:"summary"`
	RelationshipSlug *string      `json:"relationship_slug"`
	Status           TriageStatus `json:"status"`
}

// TriageDocument is the persisted triage file: {"generated": ..., "items": [...]}
type TriageDocument struct {
	Generated *string      `json:"generated"`
	Items     []TriageItem `json:"items"`
}
