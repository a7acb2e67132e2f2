package ports

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates that request pacing rejected the call before
// it reached the extraction collaborator.
var ErrRateLimited = errors.New("rate limited")

// ExtractionError represents a failure reported by the extraction
// collaborator, with enough context to attribute it in retry traces.
type ExtractionError struct {
	// PersonaID identifies the persona the extraction was for.
	PersonaID string

	// Attempt is the one-based extraction attempt that failed.
	Attempt int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for ExtractionError.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction attempt %d for persona %q: %v",
		e.Attempt, e.PersonaID, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExtractionError) Unwrap() error { return e.Err }

// NewExtractionError creates a new ExtractionError with the given details.
func NewExtractionError(personaID string, attempt int, err error) *ExtractionError {
	return &ExtractionError{
		PersonaID: personaID,
		Attempt:   attempt,
		Err:       err,
	}
}
