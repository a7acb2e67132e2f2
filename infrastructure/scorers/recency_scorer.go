package scorers

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
)

// ContentType classifies evidence for recency decay purposes. News
// decays in weeks; academic work in years; reference material slower
// still; historical content barely at all.
type ContentType string

const (
	// ContentNews marks time-sensitive reporting.
	ContentNews ContentType = "news"

	// ContentAcademic marks research output.
	ContentAcademic ContentType = "academic"

	// ContentReference marks documentation and encyclopedic material.
	// It is the fallback classification.
	ContentReference ContentType = "reference"

	// ContentHistorical marks content about the past whose value does
	// not fade.
	ContentHistorical ContentType = "historical"
)

// DecayCurve parameterizes exponential freshness decay for one content
// type.
type DecayCurve struct {
	// HalfLifeDays is the age at which the decayed score halves.
	HalfLifeDays float64 `yaml:"half_life_days" json:"half_life_days" validate:"gt=0"`

	// MaxAgeDays zeroes the decayed score once age exceeds it.
	MaxAgeDays float64 `yaml:"max_age_days" json:"max_age_days" validate:"gt=0"`
}

// RecencyConfig defines the configuration parameters for the
// RecencyScorer.
type RecencyConfig struct {
	// Curves maps each content type to its decay curve. All four
	// types must be present.
	Curves map[ContentType]DecayCurve `yaml:"curves" json:"curves" validate:"required"`

	// TimelessBoostCap bounds the timeless-topic boost.
	TimelessBoostCap float64 `yaml:"timeless_boost_cap" json:"timeless_boost_cap" validate:"min=0,max=1"`

	// FactualBoostCap bounds the factual-language boost.
	FactualBoostCap float64 `yaml:"factual_boost_cap" json:"factual_boost_cap" validate:"min=0,max=1"`

	// FreshnessPenaltyCap bounds the stale freshness-critical penalty.
	FreshnessPenaltyCap float64 `yaml:"freshness_penalty_cap" json:"freshness_penalty_cap" validate:"min=0,max=1"`
}

// RecencyOverrides carries optional replacements for individual
// RecencyConfig fields. Nil fields keep the current value.
type RecencyOverrides struct {
	Curves              map[ContentType]DecayCurve `yaml:"curves" json:"curves"`
	TimelessBoostCap    *float64                   `yaml:"timeless_boost_cap" json:"timeless_boost_cap"`
	FactualBoostCap     *float64                   `yaml:"factual_boost_cap" json:"factual_boost_cap"`
	FreshnessPenaltyCap *float64                   `yaml:"freshness_penalty_cap" json:"freshness_penalty_cap"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c RecencyConfig) WithOverrides(o RecencyOverrides) RecencyConfig {
	merged := c
	merged.Curves = copyCurves(c.Curves)
	if o.Curves != nil {
		merged.Curves = copyCurves(o.Curves)
	}
	if o.TimelessBoostCap != nil {
		merged.TimelessBoostCap = *o.TimelessBoostCap
	}
	if o.FactualBoostCap != nil {
		merged.FactualBoostCap = *o.FactualBoostCap
	}
	if o.FreshnessPenaltyCap != nil {
		merged.FreshnessPenaltyCap = *o.FreshnessPenaltyCap
	}
	return merged
}

// DefaultRecencyConfig returns a RecencyConfig with the standard decay
// curves: news halves monthly, academic yearly, reference every two
// years, historical every ten.
func DefaultRecencyConfig() RecencyConfig {
	return RecencyConfig{
		Curves: map[ContentType]DecayCurve{
			ContentNews:       {HalfLifeDays: 30, MaxAgeDays: 365},
			ContentAcademic:   {HalfLifeDays: 365, MaxAgeDays: 3650},
			ContentReference:  {HalfLifeDays: 730, MaxAgeDays: 7300},
			ContentHistorical: {HalfLifeDays: 3650, MaxAgeDays: 36500},
		},
		TimelessBoostCap:    0.3,
		FactualBoostCap:     0.15,
		FreshnessPenaltyCap: 0.4,
	}
}

// RecencyResult carries the recency score with the classification and
// age that produced it.
type RecencyResult struct {
	// Score is the final recency score (0.0 to 1.0).
	Score float64 `json:"score"`

	// ContentType is the detected content classification.
	ContentType ContentType `json:"content_type"`

	// AgeDays is the evidence age in days at scoring time.
	AgeDays float64 `json:"age_days"`

	// Reasoning explains classification and each adjustment.
	Reasoning []string `json:"reasoning"`
}

// RecencyScorer scores the temporal relevance of evidence. Content is
// classified by pattern families, aged from its effective date, and
// decayed on the type's half-life curve; timeless and factual language
// push back against decay while stale freshness-critical language is
// penalized.
type RecencyScorer struct {
	// name is the unique identifier for this scorer instance.
	name string
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config RecencyConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
	// now supplies the current time; injectable for deterministic
	// tests.
	now func() time.Time
}

// NewRecencyScorer creates a RecencyScorer with the specified
// configuration. Returns an error if configuration validation fails.
func NewRecencyScorer(name string, config RecencyConfig) (*RecencyScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if err := validateRecencyConfig(config); err != nil {
		return nil, err
	}
	return &RecencyScorer{
		name:   name,
		config: config,
		tracer: otel.Tracer("recency-scorer"),
		now:    time.Now,
	}, nil
}

func validateRecencyConfig(config RecencyConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	for _, ct := range []ContentType{
		ContentNews, ContentAcademic, ContentReference, ContentHistorical,
	} {
		curve, ok := config.Curves[ct]
		if !ok {
			return fmt.Errorf("%w: content type %q has no decay curve",
				domain.ErrInvalidConfiguration, ct)
		}
		if curve.HalfLifeDays <= 0 || curve.MaxAgeDays <= 0 {
			return fmt.Errorf("%w: content type %q curve must be positive",
				domain.ErrInvalidConfiguration, ct)
		}
	}
	return nil
}

// Name returns the unique identifier for this scorer instance.
func (s *RecencyScorer) Name() string { return s.name }

// Config returns a copy of the current configuration.
func (s *RecencyScorer) Config() RecencyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.Curves = copyCurves(s.config.Curves)
	return cfg
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in.
func (s *RecencyScorer) UpdateConfig(o RecencyOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.config.WithOverrides(o)
	if err := validateRecencyConfig(merged); err != nil {
		return err
	}
	s.config = merged
	return nil
}

// Score evaluates the temporal relevance of evidence text from the
// given source. The source's published date (or fetched date as
// fallback) anchors the age.
func (s *RecencyScorer) Score(ctx context.Context, text string, source domain.Source) (RecencyResult, error) {
	_, span := s.tracer.Start(ctx, "RecencyScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.id", s.name),
			attribute.String("source.id", source.ID),
		),
	)
	defer span.End()

	start := time.Now()
	config := s.Config()
	profile := profileText(text)

	contentType, counts := classifyContent(profile)
	ageDays := s.now().Sub(source.EffectiveDate()).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	curve := config.Curves[contentType]
	reasoning := []string{
		fmt.Sprintf("classified as %s (news=%d academic=%d reference=%d historical=%d)",
			contentType, counts[ContentNews], counts[ContentAcademic],
			counts[ContentReference], counts[ContentHistorical]),
		fmt.Sprintf("age %.0f days, half-life %.0f days", ageDays, curve.HalfLifeDays),
	}

	decayed := 0.0
	if ageDays <= curve.MaxAgeDays {
		decayed = math.Pow(0.5, ageDays/curve.HalfLifeDays)
	} else {
		reasoning = append(reasoning,
			fmt.Sprintf("age exceeds max age %.0f days: decayed score zeroed", curve.MaxAgeDays))
	}

	score := decayed

	if hits := profile.countHits(timelessPatterns); hits > 0 {
		boost := 0.1 * float64(hits)
		if boost > config.TimelessBoostCap {
			boost = config.TimelessBoostCap
		}
		// Timeless content earns back what decay took, never more.
		boost *= 1 - decayed
		score += boost
		reasoning = append(reasoning,
			fmt.Sprintf("timeless topic (%d signals): +%.2f", hits, boost))
	}

	factual := profile.countHits(factualPatterns)
	opinion := profile.countHits(opinionPatterns)
	if factual > opinion {
		boost := 0.05 * float64(factual-opinion)
		if boost > config.FactualBoostCap {
			boost = config.FactualBoostCap
		}
		score += boost
		reasoning = append(reasoning,
			fmt.Sprintf("factual language (%d factual vs %d opinion): +%.2f",
				factual, opinion, boost))
	}

	if ageDays > 7 && profile.hasAny(freshnessPatterns) {
		penalty := 0.1 * math.Log2(ageDays/7+1)
		if penalty > config.FreshnessPenaltyCap {
			penalty = config.FreshnessPenaltyCap
		}
		score -= penalty
		reasoning = append(reasoning,
			fmt.Sprintf("stale freshness-critical content: -%.2f", penalty))
	}

	score = domain.Clamp01(score)

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.String("eval.content_type", string(contentType)),
		attribute.Float64("eval.age_days", ageDays),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return RecencyResult{
		Score:       score,
		ContentType: contentType,
		AgeDays:     ageDays,
		Reasoning:   reasoning,
	}, nil
}

// classifyContent picks the content type with the most pattern hits.
// Ties, including the all-zero case, fall back to reference.
func classifyContent(p textProfile) (ContentType, map[ContentType]int) {
	counts := map[ContentType]int{
		ContentNews:       p.countHits(newsPatterns),
		ContentAcademic:   p.countHits(academicPatterns),
		ContentReference:  p.countHits(referencePatterns),
		ContentHistorical: p.countHits(historicalPatterns),
	}

	best := ContentReference
	bestCount := -1
	tied := false
	for _, ct := range []ContentType{
		ContentNews, ContentAcademic, ContentReference, ContentHistorical,
	} {
		switch {
		case counts[ct] > bestCount:
			best, bestCount, tied = ct, counts[ct], false
		case counts[ct] == bestCount:
			tied = true
		}
	}
	if tied || bestCount == 0 {
		return ContentReference, counts
	}
	return best, counts
}

// copyCurves deep-copies a decay curve table.
func copyCurves(in map[ContentType]DecayCurve) map[ContentType]DecayCurve {
	out := make(map[ContentType]DecayCurve, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
