// Package quality composes the component scorers into a single
// evidence quality engine with caching, batching and performance
// modes.
package quality

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/averen/credence/infrastructure/scorers"
	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// validate is a package-level validator instance shared by all
// configuration validation in this package.
var validate = validator.New()

// cacheKeyTextLimit bounds how much evidence text feeds the cache key.
// Edits past this prefix reuse the stale entry until it expires.
const cacheKeyTextLimit = 160

// ErrNilScorer indicates the engine was constructed without one of its
// five component scorers.
var ErrNilScorer = errors.New("all component scorers must be provided")

// PerformanceMode selects the latency/completeness trade-off for
// assessments.
type PerformanceMode string

const (
	// ModeFast evaluates only authority, content and recency with high
	// batch concurrency.
	ModeFast PerformanceMode = "fast"

	// ModeBalanced evaluates every applicable component with moderate
	// batch concurrency.
	ModeBalanced PerformanceMode = "balanced"

	// ModeThorough evaluates every applicable component with low batch
	// concurrency, leaving headroom for expensive similarity backends.
	ModeThorough PerformanceMode = "thorough"
)

// Valid reports whether the mode is one of the three known modes.
func (m PerformanceMode) Valid() bool {
	switch m {
	case ModeFast, ModeBalanced, ModeThorough:
		return true
	}
	return false
}

// concurrency returns the batch worker limit for the mode.
func (m PerformanceMode) concurrency() int {
	switch m {
	case ModeFast:
		return 10
	case ModeThorough:
		return 2
	default:
		return 5
	}
}

// ComponentWeights control how component scores combine into the
// composite quality score. They must sum to 1.0; components skipped
// for an assessment have their weight renormalized away rather than
// dragging the composite toward zero.
type ComponentWeights struct {
	// Authority weights source trustworthiness.
	Authority float64 `yaml:"authority" json:"authority" validate:"min=0,max=1"`

	// Content weights intrinsic text quality.
	Content float64 `yaml:"content" json:"content" validate:"min=0,max=1"`

	// Recency weights temporal relevance.
	Recency float64 `yaml:"recency" json:"recency" validate:"min=0,max=1"`

	// Corroboration weights independent confirmation.
	Corroboration float64 `yaml:"corroboration" json:"corroboration" validate:"min=0,max=1"`

	// Relevance weights fit against the assessment target.
	Relevance float64 `yaml:"relevance" json:"relevance" validate:"min=0,max=1"`
}

// Config defines the configuration parameters for the quality Engine.
type Config struct {
	// Mode selects the performance mode.
	Mode PerformanceMode `yaml:"mode" json:"mode" validate:"required"`

	// Weights blend the component scores.
	Weights ComponentWeights `yaml:"weights" json:"weights"`

	// EnableCaching serves repeated assessments from the cache store.
	EnableCaching bool `yaml:"enable_caching" json:"enable_caching"`

	// CacheTTL bounds how long cached assessments stay valid.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl" validate:"min=0"`
}

// Overrides carries optional replacements for individual Config
// fields. Nil fields keep the current value.
type Overrides struct {
	Mode          *PerformanceMode  `yaml:"mode" json:"mode"`
	Weights       *ComponentWeights `yaml:"weights" json:"weights"`
	EnableCaching *bool             `yaml:"enable_caching" json:"enable_caching"`
	CacheTTL      *time.Duration    `yaml:"cache_ttl" json:"cache_ttl"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c Config) WithOverrides(o Overrides) Config {
	merged := c
	if o.Mode != nil {
		merged.Mode = *o.Mode
	}
	if o.Weights != nil {
		merged.Weights = *o.Weights
	}
	if o.EnableCaching != nil {
		merged.EnableCaching = *o.EnableCaching
	}
	if o.CacheTTL != nil {
		merged.CacheTTL = *o.CacheTTL
	}
	return merged
}

// DefaultConfig returns a Config with balanced mode, standard
// component weights and a 15 minute cache TTL.
func DefaultConfig() Config {
	return Config{
		Mode: ModeBalanced,
		Weights: ComponentWeights{
			Authority:     0.3,
			Content:       0.25,
			Recency:       0.2,
			Corroboration: 0.15,
			Relevance:     0.1,
		},
		EnableCaching: true,
		CacheTTL:      15 * time.Minute,
	}
}

func validateConfig(config Config) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if !config.Mode.Valid() {
		return fmt.Errorf("%w: unknown performance mode %q",
			domain.ErrInvalidConfiguration, config.Mode)
	}
	w := config.Weights
	return domain.CheckWeightSum("quality component weights",
		w.Authority, w.Content, w.Recency, w.Corroboration, w.Relevance)
}

// Scorers bundles the five component scorers the engine composes.
type Scorers struct {
	Authority     *scorers.AuthorityScorer
	Content       *scorers.ContentScorer
	Recency       *scorers.RecencyScorer
	Corroboration *scorers.CorroborationScorer
	Relevance     *scorers.RelevanceScorer
}

func (s Scorers) complete() bool {
	return s.Authority != nil && s.Content != nil && s.Recency != nil &&
		s.Corroboration != nil && s.Relevance != nil
}

// Input carries one evidence unit to assess together with its source
// and the optional context that unlocks corroboration and relevance
// scoring.
type Input struct {
	// Unit is the evidence to assess.
	Unit domain.EvidenceUnit

	// Source is the unit's source record.
	Source domain.Source

	// Related supplies candidate evidence for corroboration; nil or
	// empty skips the corroboration component.
	Related *domain.EvidenceContext

	// Target supplies the relevance target; nil or empty skips the
	// relevance component.
	Target *domain.RelevanceTarget
}

// BatchItem pairs one batch input's position with its assessment or
// failure.
type BatchItem struct {
	// Index is the input's position in the batch.
	Index int `json:"index"`

	// Assessment is the result when Err is nil.
	Assessment domain.QualityAssessment `json:"assessment"`

	// Err is the per-item failure, if any.
	Err error `json:"-"`
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithCache wires a cache store into the engine.
func WithCache(store ports.CacheStore) Option {
	return func(e *Engine) { e.cache = store }
}

// WithMetrics wires a metrics collector into the engine.
func WithMetrics(collector ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = collector }
}

// Engine assesses evidence quality by composing the five component
// scorers. It caches assessments, isolates per-item failures in
// batches, and honors a performance mode that trades completeness for
// latency.
type Engine struct {
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config Config

	scorers Scorers
	cache   ports.CacheStore
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewEngine creates a quality Engine from the given scorers and
// configuration. Returns an error if any scorer is missing or the
// configuration fails validation.
func NewEngine(config Config, s Scorers, opts ...Option) (*Engine, error) {
	if !s.complete() {
		return nil, ErrNilScorer
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	e := &Engine{
		config:  config,
		scorers: s,
		tracer:  otel.Tracer("quality-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in. Disabling caching clears
// the cache so stale assessments cannot resurface when it is
// re-enabled.
func (e *Engine) UpdateConfig(ctx context.Context, o Overrides) error {
	e.mu.Lock()
	merged := e.config.WithOverrides(o)
	if err := validateConfig(merged); err != nil {
		e.mu.Unlock()
		return err
	}
	wasCaching := e.config.EnableCaching
	e.config = merged
	e.mu.Unlock()

	if wasCaching && !merged.EnableCaching && e.cache != nil {
		if err := e.cache.Clear(ctx); err != nil {
			return fmt.Errorf("clearing cache after disabling: %w", err)
		}
	}
	return nil
}

// Assess scores one evidence unit. Authority, content and recency are
// always evaluated; corroboration requires related evidence, relevance
// requires a target, and fast mode skips both regardless.
func (e *Engine) Assess(ctx context.Context, input Input) (domain.QualityAssessment, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Assess",
		trace.WithAttributes(attribute.String("unit.id", input.Unit.ID)),
	)
	defer span.End()

	start := time.Now()
	config := e.Config()
	key := cacheKey(input.Unit)

	if config.EnableCaching && e.cache != nil {
		if cached, ok := e.cacheLookup(ctx, key); ok {
			e.count("assessment_cache_hits_total", nil)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
		e.count("assessment_cache_misses_total", nil)
	}

	assessment, err := e.compute(ctx, input, config)
	if err != nil {
		span.RecordError(err)
		return domain.QualityAssessment{}, err
	}

	if config.EnableCaching && e.cache != nil {
		if err := e.cache.Set(ctx, key, assessment, config.CacheTTL); err != nil {
			// A failed cache write degrades performance, not
			// correctness.
			span.RecordError(err)
		}
	}

	e.count("assessments_total", map[string]string{"mode": string(config.Mode)})
	if e.metrics != nil {
		e.metrics.RecordHistogram("assessment_score", assessment.Score, nil)
		e.metrics.RecordLatency("assess", time.Since(start),
			map[string]string{"mode": string(config.Mode)})
	}
	span.SetAttributes(
		attribute.Float64("eval.score", assessment.Score),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)
	return assessment, nil
}

// compute runs the applicable component scorers and blends their
// scores with renormalized weights.
func (e *Engine) compute(ctx context.Context, input Input, config Config) (domain.QualityAssessment, error) {
	breakdown := make(map[domain.Component]float64, 5)
	var reasoning []string

	authority, err := e.scorers.Authority.Score(ctx, input.Source)
	if err != nil {
		return domain.QualityAssessment{}, fmt.Errorf("scoring authority for unit %q: %w", input.Unit.ID, err)
	}
	breakdown[domain.ComponentAuthority] = authority.Score
	reasoning = appendComponentReasoning(reasoning, domain.ComponentAuthority, authority.Score, authority.Reasoning)

	content, err := e.scorers.Content.Score(ctx, scorers.ContentInputForText(input.Unit.Text))
	if err != nil {
		return domain.QualityAssessment{}, fmt.Errorf("scoring content for unit %q: %w", input.Unit.ID, err)
	}
	breakdown[domain.ComponentContent] = content.Score
	reasoning = appendComponentReasoning(reasoning, domain.ComponentContent, content.Score, content.Reasoning)

	recency, err := e.scorers.Recency.Score(ctx, input.Unit.Text, input.Source)
	if err != nil {
		return domain.QualityAssessment{}, fmt.Errorf("scoring recency for unit %q: %w", input.Unit.ID, err)
	}
	breakdown[domain.ComponentRecency] = recency.Score
	reasoning = appendComponentReasoning(reasoning, domain.ComponentRecency, recency.Score, recency.Reasoning)

	full := config.Mode != ModeFast

	if full && input.Related != nil && !input.Related.Empty() {
		corroboration, err := e.scorers.Corroboration.Score(ctx, input.Unit, input.Source, *input.Related)
		if err != nil {
			return domain.QualityAssessment{}, fmt.Errorf("scoring corroboration for unit %q: %w", input.Unit.ID, err)
		}
		breakdown[domain.ComponentCorroboration] = corroboration.Score
		reasoning = appendComponentReasoning(reasoning, domain.ComponentCorroboration, corroboration.Score, corroboration.Reasoning)
	}

	if full && input.Target != nil && !input.Target.Empty() {
		relevance, err := e.scorers.Relevance.Score(ctx, input.Unit.Text, *input.Target)
		if err != nil {
			return domain.QualityAssessment{}, fmt.Errorf("scoring relevance for unit %q: %w", input.Unit.ID, err)
		}
		breakdown[domain.ComponentRelevance] = relevance.Score
		reasoning = appendComponentReasoning(reasoning, domain.ComponentRelevance, relevance.Score, relevance.Reasoning)
	}

	return domain.QualityAssessment{
		UnitID:      input.Unit.ID,
		Score:       compositeScore(breakdown, config.Weights),
		Breakdown:   breakdown,
		Confidence:  assessmentConfidence(breakdown),
		Reasoning:   reasoning,
		EvaluatedAt: time.Now(),
	}, nil
}

// AssessBatch scores many inputs concurrently with the mode's worker
// limit. Failures are isolated per item; the returned slice always has
// one entry per input, in input order.
func (e *Engine) AssessBatch(ctx context.Context, inputs []Input) []BatchItem {
	ctx, span := e.tracer.Start(ctx, "Engine.AssessBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(inputs))),
	)
	defer span.End()

	items := make([]BatchItem, len(inputs))
	if len(inputs) == 0 {
		return items
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Config().Mode.concurrency())

	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			assessment, err := e.Assess(gctx, input)
			items[i] = BatchItem{Index: i, Assessment: assessment, Err: err}
			// Item failures stay in the item so one bad unit cannot
			// cancel the rest of the batch.
			return nil
		})
	}
	// Workers never return errors, so Wait only synchronizes.
	_ = g.Wait()

	return items
}

// cacheLookup fetches and type-checks a cached assessment, marking it
// as a hit. Corrupt entries are dropped and treated as misses.
func (e *Engine) cacheLookup(ctx context.Context, key string) (domain.QualityAssessment, bool) {
	value, found, err := e.cache.Get(ctx, key)
	if err != nil || !found {
		return domain.QualityAssessment{}, false
	}
	assessment, ok := value.(domain.QualityAssessment)
	if !ok {
		_ = e.cache.Delete(ctx, key)
		return domain.QualityAssessment{}, false
	}
	assessment.CacheHit = true
	return assessment, true
}

func (e *Engine) count(metric string, labels map[string]string) {
	if e.metrics != nil {
		e.metrics.RecordCounter(metric, 1, labels)
	}
}

// cacheKey derives a stable key from the unit's identity and a bounded
// text prefix.
func cacheKey(unit domain.EvidenceUnit) string {
	text := unit.Text
	if len(text) > cacheKeyTextLimit {
		text = text[:cacheKeyTextLimit]
	}
	sum := sha256.Sum256([]byte(unit.ID + "|" + unit.SourceID + "|" + text))
	return "quality:v1:" + hex.EncodeToString(sum[:])
}

// compositeScore blends evaluated components with their weights,
// renormalizing over the evaluated subset so skipped components do not
// cap the composite.
func compositeScore(breakdown map[domain.Component]float64, weights ComponentWeights) float64 {
	weightFor := map[domain.Component]float64{
		domain.ComponentAuthority:     weights.Authority,
		domain.ComponentContent:       weights.Content,
		domain.ComponentRecency:       weights.Recency,
		domain.ComponentCorroboration: weights.Corroboration,
		domain.ComponentRelevance:     weights.Relevance,
	}

	weighted, total := 0.0, 0.0
	for component, score := range breakdown {
		w := weightFor[component]
		weighted += w * score
		total += w
	}
	if total == 0 {
		return 0
	}
	return domain.Clamp01(weighted / total)
}

// assessmentConfidence reflects how much signal backed the assessment:
// a base plus a step per evaluated component, with bonuses for strong
// authority and corroboration.
func assessmentConfidence(breakdown map[domain.Component]float64) float64 {
	confidence := 0.2 + 0.13*float64(len(breakdown))
	if breakdown[domain.ComponentAuthority] >= 0.8 {
		confidence += 0.07
	}
	if score, ok := breakdown[domain.ComponentCorroboration]; ok && score >= 0.7 {
		confidence += 0.08
	}
	return domain.Clamp01(confidence)
}

// appendComponentReasoning folds one component's reasoning into the
// assessment-level reasoning list as a single summary line.
func appendComponentReasoning(reasoning []string, component domain.Component, score float64, lines []string) []string {
	return append(reasoning, fmt.Sprintf("%s=%.2f: %s", component, score, strings.Join(lines, "; ")))
}
