package application

import (
	"fmt"
	"strings"

	"archivist/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "actionID" -> "action ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"actionID": "action ID",
		"itemID":   "triage item ID",
		"threadID": "thread ID",
	}
	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateKind checks that kind is known and that pointers carry a target
func ValidateKind(kind domain.ActionKind, target *string) error {
	if !kind.Valid() {
		return &ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown action type %q (want action or pointer)", kind),
		}
	}
	if kind == domain.KindPointer && (target == nil || strings.TrimSpace(*target) == "") {
		return &ValidationError{
			Field:   "target",
			Message: "target is required for pointer actions",
		}
	}
	return nil
}

// ValidateTriageStatus parses a status string into a ValidationError on failure
func ValidateTriageStatus(value string) (domain.TriageStatus, error) {
	st, err := domain.ParseTriageStatus(value)
	if err != nil {
		return "", &ValidationError{Field: "status", Message: err.Error()}
	}
	return st, nil
}
