package testutils

import (
	"math/rand"
	"time"

	"github.com/averen/credence/internal/domain"
)

// GenerateCalibrationPoints creates a synthetic predicted/observed
// dataset for exercising calibration analytics. The seed parameter
// controls randomization - use a fixed value for reproducible tests.
// Predictions cover most of the unit interval and observations follow
// a mildly miscalibrated model: outcomes trail predictions at the top
// of the scale and exceed them at the bottom, so reliability analysis
// has real structure to find.
func GenerateCalibrationPoints(n int, seed int64) []domain.CalibrationPoint {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	points := make([]domain.CalibrationPoint, 0, n)
	for i := 0; i < n; i++ {
		predicted := 0.05 + 0.9*rng.Float64()
		observed := predicted + (rng.Float64()-0.5)*0.2

		switch {
		case predicted > 0.8:
			observed -= 0.08
		case predicted < 0.3:
			observed += 0.05
		}

		points = append(points, domain.CalibrationPoint{
			Predicted:  domain.Clamp01(predicted),
			Observed:   domain.Clamp01(observed),
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return points
}
