package domain

import "time"

// Component names one signal contributing to an evidence quality
// assessment.
type Component string

const (
	// ComponentAuthority scores the trustworthiness of the source.
	ComponentAuthority Component = "authority"

	// ComponentContent scores the intrinsic quality of the evidence
	// text.
	ComponentContent Component = "content"

	// ComponentRecency scores the temporal relevance of the evidence.
	ComponentRecency Component = "recency"

	// ComponentCorroboration scores independent confirmation by other
	// evidence.
	ComponentCorroboration Component = "corroboration"

	// ComponentRelevance scores fit against an assessment target.
	ComponentRelevance Component = "relevance"
)

// QualityAssessment is the composite quality judgment for a single
// evidence unit. Component scores that were not evaluated (for
// example corroboration without related evidence) are absent from the
// breakdown rather than reported as zero.
type QualityAssessment struct {
	// UnitID identifies the assessed evidence unit.
	UnitID string `json:"unit_id"`

	// Score is the weighted composite quality score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Breakdown holds the per-component scores that were evaluated.
	Breakdown map[Component]float64 `json:"breakdown"`

	// Confidence indicates how much signal backed this assessment
	// (0.0 to 1.0). More evaluated components and stronger authority
	// or corroboration raise it.
	Confidence float64 `json:"confidence"`

	// Reasoning collects human-readable notes explaining score
	// adjustments.
	Reasoning []string `json:"reasoning,omitempty"`

	// CacheHit is true when the assessment was served from the
	// engine's cache rather than recomputed.
	CacheHit bool `json:"cache_hit"`

	// EvaluatedAt records when the assessment was computed. Cache
	// hits retain the original computation time.
	EvaluatedAt time.Time `json:"evaluated_at"`
}
