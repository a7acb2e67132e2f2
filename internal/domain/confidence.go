package domain

import "time"

// ConfidenceInterval bounds a confidence score with an uncertainty
// band. After clamping, Lower <= score <= Upper always holds.
type ConfidenceInterval struct {
	// Lower is the lower bound of the interval (0.0 to 1.0).
	Lower float64 `json:"lower"`

	// Upper is the upper bound of the interval (0.0 to 1.0).
	Upper float64 `json:"upper"`
}

// Width returns the spread of the interval.
func (i ConfidenceInterval) Width() float64 { return i.Upper - i.Lower }

// ConfidenceBreakdown explains how a claim's confidence score was
// assembled from its evidential components.
type ConfidenceBreakdown struct {
	// ClaimName identifies the scored claim field.
	ClaimName string `json:"claim_name"`

	// Score is the weighted composite confidence (0.0 to 1.0).
	Score float64 `json:"score"`

	// SourceAgreement measures support versus conflict among cited
	// evidence (0.0 to 1.0).
	SourceAgreement float64 `json:"source_agreement"`

	// EvidenceVolume measures whether enough independent supporting
	// evidence exists (0.0 to 1.0).
	EvidenceVolume float64 `json:"evidence_volume"`

	// SourceQuality is the similarity-weighted quality of supporting
	// evidence, normalized against the configured quality floor.
	SourceQuality float64 `json:"source_quality"`

	// Recency is the quality-weighted freshness of supporting
	// evidence (0.0 to 1.0).
	Recency float64 `json:"recency"`

	// Uncertainty estimates how unreliable the score itself is
	// (0.0 to 0.5). Scarce evidence, conflicts, and near-ambivalent
	// scores raise it.
	Uncertainty float64 `json:"uncertainty"`

	// Interval is the score plus uncertainty expressed as a bounded
	// confidence interval.
	Interval ConfidenceInterval `json:"interval"`

	// SupportingCount is the number of cited evidence units that
	// support the claim.
	SupportingCount int `json:"supporting_count"`

	// ConflictingCount is the number of uncited evidence units that
	// contradict the claim.
	ConflictingCount int `json:"conflicting_count"`

	// CacheHit is true when the breakdown was served from cache.
	CacheHit bool `json:"cache_hit"`
}

// Recommendation is the engine's disposition for a persona based on
// its aggregate confidence.
type Recommendation string

const (
	// RecommendationApprove means the persona's claims are confidently
	// grounded and need no human review.
	RecommendationApprove Recommendation = "approve"

	// RecommendationReview means confidence is moderate and a human
	// should look before use.
	RecommendationReview Recommendation = "review"

	// RecommendationReject means confidence is too low for the persona
	// to be used.
	RecommendationReject Recommendation = "reject"
)

// ClaimConfidence pairs a claim with its breakdown and the weight it
// carried in persona aggregation.
type ClaimConfidence struct {
	// Claim is the scored claim field name.
	Claim string `json:"claim"`

	// Breakdown is the full component decomposition.
	Breakdown ConfidenceBreakdown `json:"breakdown"`

	// Weight is the claim's contribution weight in the persona
	// aggregate (0.0 to 1.0).
	Weight float64 `json:"weight"`
}

// PersonaConfidence is the aggregate confidence judgment for one
// persona.
type PersonaConfidence struct {
	// PersonaID identifies the assessed persona.
	PersonaID string `json:"persona_id"`

	// Overall is the aggregate confidence score (0.0 to 1.0).
	Overall float64 `json:"overall"`

	// WeightedAverage is the claim-weight-weighted mean confidence
	// before the floor multiplier and distribution adjustments.
	WeightedAverage float64 `json:"weighted_average"`

	// MinClaim is the lowest claim confidence observed.
	MinClaim float64 `json:"min_claim"`

	// HighCount is the number of claims scoring above the
	// high-confidence threshold.
	HighCount int `json:"high_count"`

	// LowCount is the number of claims scoring below the
	// low-confidence threshold.
	LowCount int `json:"low_count"`

	// Recommendation is the engine's disposition for this persona.
	Recommendation Recommendation `json:"recommendation"`

	// Claims holds the per-claim confidence details.
	Claims []ClaimConfidence `json:"claims,omitempty"`

	// EvaluatedAt records when the persona was scored.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// PersonaFailure records a persona that could not be scored during a
// batch, without failing the batch.
type PersonaFailure struct {
	// PersonaID identifies the persona that failed.
	PersonaID string `json:"persona_id"`

	// Error is the failure description.
	Error string `json:"error"`
}

// BatchStats aggregates outcomes across a confidence batch.
type BatchStats struct {
	// Total is the number of personas submitted.
	Total int `json:"total"`

	// Approved counts approve recommendations.
	Approved int `json:"approved"`

	// Review counts review recommendations.
	Review int `json:"review"`

	// Rejected counts reject recommendations.
	Rejected int `json:"rejected"`

	// Failed counts personas whose scoring errored.
	Failed int `json:"failed"`

	// MeanConfidence is the mean overall score across scored personas.
	MeanConfidence float64 `json:"mean_confidence"`

	// Elapsed is the wall-clock duration of the batch.
	Elapsed time.Duration `json:"elapsed"`
}

// BatchResult carries per-persona results, isolated failures, and
// aggregate statistics for one batch run.
type BatchResult struct {
	// Results holds successful persona confidences in input order.
	Results []PersonaConfidence `json:"results"`

	// Failures holds personas whose scoring errored.
	Failures []PersonaFailure `json:"failures,omitempty"`

	// Stats aggregates the batch outcomes.
	Stats BatchStats `json:"stats"`
}

// CalibrationPoint pairs a predicted confidence with an observed human
// judgment of the same claim, for calibration analytics.
type CalibrationPoint struct {
	// Predicted is the engine's confidence score (0.0 to 1.0).
	Predicted float64 `json:"predicted"`

	// Observed is the human judgment on the same scale (0.0 to 1.0).
	Observed float64 `json:"observed"`

	// RecordedAt is when the pair was captured.
	RecordedAt time.Time `json:"recorded_at"`
}

// CalibrationBin is one cell of the 10-bin calibration curve.
type CalibrationBin struct {
	// RangeLow is the inclusive lower edge of the prediction bin.
	RangeLow float64 `json:"range_low"`

	// RangeHigh is the exclusive upper edge of the prediction bin
	// (inclusive for the final bin).
	RangeHigh float64 `json:"range_high"`

	// MeanPredicted is the mean predicted confidence in the bin.
	MeanPredicted float64 `json:"mean_predicted"`

	// MeanObserved is the mean human judgment in the bin.
	MeanObserved float64 `json:"mean_observed"`

	// Count is the number of points in the bin.
	Count int `json:"count"`
}

// CalibrationReport summarizes how well predicted confidence tracks
// human judgment.
type CalibrationReport struct {
	// SampleCount is the number of calibration points analyzed.
	SampleCount int `json:"sample_count"`

	// MAE is the mean absolute error between predictions and
	// observations.
	MAE float64 `json:"mae"`

	// RMSE is the root mean squared error.
	RMSE float64 `json:"rmse"`

	// Correlation is the Pearson correlation coefficient, zero when
	// either series is constant.
	Correlation float64 `json:"correlation"`

	// Curve is the 10-bin calibration curve over prediction deciles.
	Curve []CalibrationBin `json:"curve"`

	// Reliability is 1 minus the count-weighted squared deviation
	// between bin means; 1.0 is perfectly calibrated.
	Reliability float64 `json:"reliability"`

	// Resolution is the variance of the observed judgments; higher
	// means predictions discriminate between outcomes.
	Resolution float64 `json:"resolution"`
}
