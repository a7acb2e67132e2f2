package domain

import (
	"fmt"
	"math"
)

// WeightSumTolerance is the permitted deviation from 1.0 when
// validating that a set of component weights forms a proper weighting.
const WeightSumTolerance = 0.01

// Clamp01 bounds a score to the [0.0, 1.0] range. NaN clamps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CheckWeightSum verifies that weights sum to 1.0 within
// WeightSumTolerance and that every weight is non-negative. The label
// names the owning configuration in the returned error. Constructors
// and config updates must fail when this check fails.
func CheckWeightSum(label string, weights ...float64) error {
	sum := 0.0
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("%w: %s weight %d is negative (%.3f)",
				ErrInvalidWeights, label, i, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("%w: %s weights sum to %.3f, want 1.0 ±%.2f",
			ErrInvalidWeights, label, sum, WeightSumTolerance)
	}
	return nil
}
