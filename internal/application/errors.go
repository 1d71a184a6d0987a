package application

import (
	"errors"
	"fmt"

	"archivist/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound     = domain.ErrNotFound
	ErrCorruptState = domain.ErrCorruptState
	ErrLockTimeout  = domain.ErrLockTimeout
	ErrUnavailable  = errors.New("service unavailable")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UnavailableError reports an external collaborator that could not serve a request
type UnavailableError struct {
	Service string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps err as an UnavailableError for service
func Unavailable(service string, err error) error {
	return &UnavailableError{Service: service, Err: err}
}

// CorruptStateError is re-exported from the domain
type CorruptStateError = domain.CorruptStateError

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
