package confidence

import (
	"math"
	"time"

	"github.com/averen/credence/internal/domain"
)

// calibrationBins is the number of prediction deciles in the
// calibration curve.
const calibrationBins = 10

// RecordCalibration appends a predicted/observed pair to the
// calibration log. A zero RecordedAt is stamped with the current time.
func (e *Engine) RecordCalibration(point domain.CalibrationPoint) {
	if point.RecordedAt.IsZero() {
		point.RecordedAt = time.Now()
	}
	e.calMu.Lock()
	e.calibration = append(e.calibration, point)
	e.calMu.Unlock()
}

// CalibrationSize returns the number of recorded calibration points.
func (e *Engine) CalibrationSize() int {
	e.calMu.Lock()
	defer e.calMu.Unlock()
	return len(e.calibration)
}

// AnalyzeCalibration summarizes how well predicted confidence tracks
// observed human judgment across the recorded log. Returns
// domain.ErrNoCalibrationData when nothing has been recorded.
func (e *Engine) AnalyzeCalibration() (domain.CalibrationReport, error) {
	e.calMu.Lock()
	points := make([]domain.CalibrationPoint, len(e.calibration))
	copy(points, e.calibration)
	e.calMu.Unlock()

	if len(points) == 0 {
		return domain.CalibrationReport{}, domain.ErrNoCalibrationData
	}
	return analyzeCalibration(points), nil
}

func analyzeCalibration(points []domain.CalibrationPoint) domain.CalibrationReport {
	n := float64(len(points))

	predicted := make([]float64, len(points))
	observed := make([]float64, len(points))
	var absSum, sqSum float64
	for i, p := range points {
		predicted[i] = p.Predicted
		observed[i] = p.Observed
		diff := p.Predicted - p.Observed
		absSum += math.Abs(diff)
		sqSum += diff * diff
	}

	curve := calibrationCurve(points)

	// Reliability penalizes each bin's mean deviation by the share of
	// points it holds; resolution rewards observed judgments that
	// actually vary.
	reliability := 1.0
	for _, bin := range curve {
		if bin.Count == 0 {
			continue
		}
		dev := bin.MeanPredicted - bin.MeanObserved
		reliability -= float64(bin.Count) / n * dev * dev
	}

	return domain.CalibrationReport{
		SampleCount: len(points),
		MAE:         absSum / n,
		RMSE:        math.Sqrt(sqSum / n),
		Correlation: pearson(predicted, observed),
		Curve:       curve,
		Reliability: reliability,
		Resolution:  variance(observed),
	}
}

// calibrationCurve buckets points into prediction deciles. The final
// bin is inclusive of 1.0.
func calibrationCurve(points []domain.CalibrationPoint) []domain.CalibrationBin {
	sums := make([][2]float64, calibrationBins)
	counts := make([]int, calibrationBins)
	for _, p := range points {
		idx := int(p.Predicted * calibrationBins)
		if idx >= calibrationBins {
			idx = calibrationBins - 1
		}
		if idx < 0 {
			idx = 0
		}
		sums[idx][0] += p.Predicted
		sums[idx][1] += p.Observed
		counts[idx]++
	}

	curve := make([]domain.CalibrationBin, calibrationBins)
	for i := range curve {
		curve[i] = domain.CalibrationBin{
			RangeLow:  float64(i) / calibrationBins,
			RangeHigh: float64(i+1) / calibrationBins,
			Count:     counts[i],
		}
		if counts[i] > 0 {
			curve[i].MeanPredicted = sums[i][0] / float64(counts[i])
			curve[i].MeanObserved = sums[i][1] / float64(counts[i])
		}
	}
	return curve
}

// pearson returns the correlation coefficient between two equal-length
// series, zero when either series is constant.
func pearson(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

func mean(vs []float64) float64 {
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// variance is the population variance.
func variance(vs []float64) float64 {
	m := mean(vs)
	sum := 0.0
	for _, v := range vs {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(vs))
}
