package grounding

import (
	"math"
	"time"

	"github.com/averen/credence/internal/domain"
)

// Constraint tightening applied between retry attempts.
const (
	// confidenceStep is added to MinCitationConfidence on every retry.
	confidenceStep = 0.1
	// tightenedConfidenceFloor is the lowest MinCitationConfidence a
	// retry request may carry.
	tightenedConfidenceFloor = 0.5
	// tightenedConfidenceCap keeps retries from demanding near-perfect
	// citation confidence.
	tightenedConfidenceCap = 0.95

	// semanticStep is subtracted from the alignment threshold on each
	// progressive-strictness retry, trading alignment slack for the
	// stricter citation demands.
	semanticStep = 0.05
	// semanticFloor bounds how far progressive strictness may relax
	// the alignment threshold.
	semanticFloor = 0.6
	// citationsPerSentenceCap bounds how many citations per sentence
	// progressive strictness may demand.
	citationsPerSentenceCap = 3
)

// State is one phase of the validate-and-retry cycle.
type State string

const (
	// StateValidating is the in-progress phase of every attempt.
	StateValidating State = "validating"
	// StateRetrying means the last attempt was not grounded and a
	// stricter attempt follows.
	StateRetrying State = "retrying"
	// StateSucceeded means the last attempt was grounded.
	StateSucceeded State = "succeeded"
	// StateFailed means retries are exhausted without grounding.
	StateFailed State = "failed"
)

// RetryConfig controls the auto-retry loop.
type RetryConfig struct {
	// MaxRetries is how many re-extractions may follow the initial
	// attempt. Zero disables retrying.
	MaxRetries int `yaml:"max_retries" json:"max_retries" validate:"min=0"`

	// AttemptTimeout bounds each individual extract-and-validate
	// attempt.
	AttemptTimeout time.Duration `yaml:"attempt_timeout" json:"attempt_timeout" validate:"gt=0"`

	// ProgressiveStrictness additionally raises the per-sentence
	// citation demand and relaxes the alignment threshold on each
	// retry.
	ProgressiveStrictness bool `yaml:"progressive_strictness" json:"progressive_strictness"`
}

// DefaultRetryConfig returns the standard retry policy: two retries,
// thirty seconds per attempt, no progressive strictness.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		AttemptTimeout: 30 * time.Second,
	}
}

// Decision is the outcome of one retry transition.
type Decision struct {
	// State is the phase the loop moves to.
	State State

	// Next is the tightened request for the following attempt.
	// Populated only when State is StateRetrying.
	Next domain.ExtractionRequest
}

// Transition decides what follows a completed validation attempt.
// Pure: no I/O and no clock, so retry policy is testable without the
// extraction collaborator. The request's Attempt field is the
// one-based number of the attempt the report came from.
func Transition(report domain.GroundingReport, req domain.ExtractionRequest, config RetryConfig) Decision {
	if report.Grounded {
		return Decision{State: StateSucceeded}
	}
	if req.Attempt-1 >= config.MaxRetries {
		return Decision{State: StateFailed}
	}

	next := req
	next.Attempt = req.Attempt + 1
	next.Constraints = tightenConstraints(req.Constraints, config)
	next.Guidance = report.Improvements
	return Decision{State: StateRetrying, Next: next}
}

// tightenConstraints raises the bar for the next extraction attempt.
func tightenConstraints(c domain.ExtractionConstraints, config RetryConfig) domain.ExtractionConstraints {
	tightened := c
	tightened.MinCitationConfidence = math.Min(tightenedConfidenceCap,
		math.Max(tightenedConfidenceFloor, c.MinCitationConfidence+confidenceStep))
	if config.ProgressiveStrictness {
		tightened.MinCitationsPerSentence = min(c.MinCitationsPerSentence+1, citationsPerSentenceCap)
		tightened.SemanticAlignmentThreshold = math.Max(semanticFloor,
			c.SemanticAlignmentThreshold-semanticStep)
	}
	return tightened
}
