package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during scoring and validation
// operations.
var (
	// ErrInvalidWeights indicates that a weighted configuration's
	// component weights do not form a proper weighting.
	ErrInvalidWeights = errors.New("invalid weights")

	// ErrInvalidConfiguration indicates that configuration is invalid
	// or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNoCalibrationData indicates that calibration analytics were
	// requested before any calibration points were recorded.
	ErrNoCalibrationData = errors.New("no calibration data recorded")
)

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
