package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	ve := NewValidationError("confidence scorer config")
	assert.False(t, ve.HasErrors())

	ve.AddError("weights must sum to 1.0")
	assert.True(t, ve.HasErrors())
	assert.Contains(t, ve.Error(), "confidence scorer config")
	assert.Contains(t, ve.Error(), "weights must sum to 1.0")

	ve.AddError("min evidence count must be positive")
	assert.Len(t, ve.Errors, 2)
	assert.Contains(t, ve.Error(), "validation errors")
}

func TestSentinelErrorWrapping(t *testing.T) {
	err := fmt.Errorf("authority scorer: %w", ErrInvalidConfiguration)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	err = fmt.Errorf("content weights: %w", ErrInvalidWeights)
	assert.True(t, errors.Is(err, ErrInvalidWeights))
	assert.False(t, errors.Is(err, ErrInvalidConfiguration))
}
