package application

import "archivist/internal/domain"

// Re-export domain types for use by adapters
type (
	Action         = domain.Action
	ActionKind     = domain.ActionKind
	ActionPatch    = domain.ActionPatch
	TriageItem     = domain.TriageItem
	TriageStatus   = domain.TriageStatus
	Classification = domain.Classification
)

const (
	KindAction  = domain.KindAction
	KindPointer = domain.KindPointer
)

// ParseTriageStatus accepts exactly one of the known triage statuses
func ParseTriageStatus(s string) (TriageStatus, error) {
	return ValidateTriageStatus(s)
}
