package schema

import (
	"errors"
	"fmt"
)

// Sentinel errors for corpus lookups and conflict handling.
var (
	// ErrNotFound is returned when an identifier has no entity.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when a reject-on-conflict insert
	// collides with an existing identifier.
	ErrDuplicateID = errors.New("duplicate identifier")

	// ErrNoTemplateMatch is returned by prompt synthesis when no
	// template can be selected for the given context.
	ErrNoTemplateMatch = errors.New("no prompt template matches the given context")
)

// ValidationError reports a malformed record: a missing required field,
// an out-of-range priority, an unknown enum value, or a bad identifier.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
