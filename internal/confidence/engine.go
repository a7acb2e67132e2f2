package confidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// ErrNilScorer indicates the engine was constructed without a claim
// scorer.
var ErrNilScorer = errors.New("claim confidence scorer must be provided")

const (
	// highClaimThreshold marks a claim as high-confidence for the
	// distribution bonus.
	highClaimThreshold = 0.8

	// lowClaimThreshold marks a claim as low-confidence for the
	// distribution penalty.
	lowClaimThreshold = 0.5

	// minScoreFloor bounds how hard the weakest claim can drag the
	// persona aggregate down.
	minScoreFloor = 0.3
)

// EngineConfig defines the configuration parameters for the confidence
// Engine.
type EngineConfig struct {
	// ApproveThreshold is the overall confidence at or above which a
	// persona can be approved.
	ApproveThreshold float64 `yaml:"approve_threshold" json:"approve_threshold" validate:"min=0,max=1"`

	// ReviewThreshold is the overall confidence at or above which a
	// persona goes to human review instead of rejection.
	ReviewThreshold float64 `yaml:"review_threshold" json:"review_threshold" validate:"min=0,max=1"`

	// MinClaimThreshold is the weakest-claim confidence a persona must
	// clear to be approved.
	MinClaimThreshold float64 `yaml:"min_claim_threshold" json:"min_claim_threshold" validate:"min=0,max=1"`

	// BatchSize is the number of personas processed per batch chunk.
	BatchSize int `yaml:"batch_size" json:"batch_size" validate:"min=1"`

	// BatchConcurrency is the worker limit within a chunk.
	BatchConcurrency int `yaml:"batch_concurrency" json:"batch_concurrency" validate:"min=1"`

	// EnableCaching serves repeated claim scores from the cache store.
	EnableCaching bool `yaml:"enable_caching" json:"enable_caching"`

	// CacheTTL bounds how long cached claim scores stay valid.
	CacheTTL time.Duration `yaml:"cache_ttl" json:"cache_ttl" validate:"min=0"`
}

// EngineOverrides carries optional replacements for individual
// EngineConfig fields. Nil fields keep the current value.
type EngineOverrides struct {
	ApproveThreshold  *float64       `yaml:"approve_threshold" json:"approve_threshold"`
	ReviewThreshold   *float64       `yaml:"review_threshold" json:"review_threshold"`
	MinClaimThreshold *float64       `yaml:"min_claim_threshold" json:"min_claim_threshold"`
	BatchSize         *int           `yaml:"batch_size" json:"batch_size"`
	BatchConcurrency  *int           `yaml:"batch_concurrency" json:"batch_concurrency"`
	EnableCaching     *bool          `yaml:"enable_caching" json:"enable_caching"`
	CacheTTL          *time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied.
func (c EngineConfig) WithOverrides(o EngineOverrides) EngineConfig {
	merged := c
	if o.ApproveThreshold != nil {
		merged.ApproveThreshold = *o.ApproveThreshold
	}
	if o.ReviewThreshold != nil {
		merged.ReviewThreshold = *o.ReviewThreshold
	}
	if o.MinClaimThreshold != nil {
		merged.MinClaimThreshold = *o.MinClaimThreshold
	}
	if o.BatchSize != nil {
		merged.BatchSize = *o.BatchSize
	}
	if o.BatchConcurrency != nil {
		merged.BatchConcurrency = *o.BatchConcurrency
	}
	if o.EnableCaching != nil {
		merged.EnableCaching = *o.EnableCaching
	}
	if o.CacheTTL != nil {
		merged.CacheTTL = *o.CacheTTL
	}
	return merged
}

// DefaultEngineConfig returns an EngineConfig with standard
// recommendation thresholds, 100-persona chunks of 10 workers and a
// 15 minute cache TTL.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ApproveThreshold:  0.85,
		ReviewThreshold:   0.6,
		MinClaimThreshold: 0.6,
		BatchSize:         100,
		BatchConcurrency:  10,
		EnableCaching:     true,
		CacheTTL:          15 * time.Minute,
	}
}

func validateEngineConfig(config EngineConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if config.ApproveThreshold < config.ReviewThreshold {
		return fmt.Errorf("%w: approve threshold %.2f below review threshold %.2f",
			domain.ErrInvalidConfiguration,
			config.ApproveThreshold, config.ReviewThreshold)
	}
	return nil
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

// Engine aggregates per-claim confidence into persona-level judgments
// and recommendations, processes persona batches with isolated
// failures, and keeps a calibration log of predicted versus observed
// confidence.
type Engine struct {
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config EngineConfig

	scorer  *Scorer
	cache   ports.CacheStore
	metrics ports.MetricsCollector
	tracer  trace.Tracer

	// calMu guards the calibration log.
	calMu       sync.Mutex
	calibration []domain.CalibrationPoint
}

// NewEngine creates a confidence Engine from the given claim scorer
// and configuration. Returns an error if the scorer is nil or the
// configuration fails validation.
func NewEngine(config EngineConfig, scorer *Scorer, opts ...Option) (*Engine, error) {
	if scorer == nil {
		return nil, ErrNilScorer
	}
	if err := validateEngineConfig(config); err != nil {
		return nil, err
	}
	e := &Engine{
		config: config,
		scorer: scorer,
		tracer: otel.Tracer("confidence-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() EngineConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config
}

// UpdateConfig applies overrides to the live configuration, validating
// the merged result before swapping it in. Disabling caching clears
// the cache so stale claim scores cannot resurface when it is
// re-enabled.
func (e *Engine) UpdateConfig(ctx context.Context, o EngineOverrides) error {
	e.mu.Lock()
	merged := e.config.WithOverrides(o)
	if err := validateEngineConfig(merged); err != nil {
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

// ScorePersona scores every claim of one persona and aggregates the
// results. A persona with no claims yields a zero result with a reject
// recommendation rather than an error.
func (e *Engine) ScorePersona(ctx context.Context, persona domain.Persona, ev domain.EvidenceContext) (domain.PersonaConfidence, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.ScorePersona",
		trace.WithAttributes(
			attribute.String("persona.id", persona.ID),
			attribute.Int("claims.count", len(persona.Claims)),
		),
	)
	defer span.End()

	start := time.Now()
	config := e.Config()

	if len(persona.Claims) == 0 {
		return domain.PersonaConfidence{
			PersonaID:      persona.ID,
			Recommendation: domain.RecommendationReject,
			EvaluatedAt:    time.Now(),
		}, nil
	}

	claims := make([]domain.ClaimConfidence, 0, len(persona.Claims))
	var weighted, totalWeight float64
	minScore := 1.0
	high, low := 0, 0

	for _, claim := range persona.Claims {
		breakdown, err := e.scoreClaim(ctx, claim, ev, config)
		if err != nil {
			span.RecordError(err)
			return domain.PersonaConfidence{}, fmt.Errorf("scoring claim %q for persona %q: %w",
				claim.Name, persona.ID, err)
		}
		weight := claimWeight(claim, breakdown)
		claims = append(claims, domain.ClaimConfidence{
			Claim:     claim.Name,
			Breakdown: breakdown,
			Weight:    weight,
		})

		weighted += weight * breakdown.Score
		totalWeight += weight
		minScore = math.Min(minScore, breakdown.Score)
		if breakdown.Score > highClaimThreshold {
			high++
		}
		if breakdown.Score < lowClaimThreshold {
			low++
		}
	}

	weightedAvg := 0.0
	if totalWeight > 0 {
		weightedAvg = weighted / totalWeight
	}
	total := float64(len(claims))
	overall := domain.Clamp01(weightedAvg*math.Max(minScoreFloor, minScore) +
		0.05*float64(high)/total - 0.1*float64(low)/total)

	result := domain.PersonaConfidence{
		PersonaID:       persona.ID,
		Overall:         overall,
		WeightedAverage: weightedAvg,
		MinClaim:        minScore,
		HighCount:       high,
		LowCount:        low,
		Recommendation:  recommendFor(config, overall, minScore),
		Claims:          claims,
		EvaluatedAt:     time.Now(),
	}

	e.count("personas_scored_total",
		map[string]string{"recommendation": string(result.Recommendation)})
	if e.metrics != nil {
		e.metrics.RecordHistogram("persona_confidence", overall, nil)
		e.metrics.RecordLatency("score_persona", time.Since(start), nil)
	}
	span.SetAttributes(
		attribute.Float64("eval.score", overall),
		attribute.String("recommendation", string(result.Recommendation)),
	)
	return result, nil
}

// ProcessBatch scores personas in chunks with bounded concurrency.
// Per-persona failures are isolated into the result's failure list;
// the returned error reflects only context cancellation.
func (e *Engine) ProcessBatch(ctx context.Context, personas []domain.Persona, ev domain.EvidenceContext) (domain.BatchResult, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.ProcessBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(personas))),
	)
	defer span.End()

	start := time.Now()
	config := e.Config()

	type outcome struct {
		result domain.PersonaConfidence
		err    error
	}
	outcomes := make([]outcome, len(personas))

	for chunkStart := 0; chunkStart < len(personas); chunkStart += config.BatchSize {
		chunkEnd := min(chunkStart+config.BatchSize, len(personas))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(config.BatchConcurrency)
		for i := chunkStart; i < chunkEnd; i++ {
			i := i
			g.Go(func() error {
				result, err := e.ScorePersona(gctx, personas[i], ev)
				outcomes[i] = outcome{result: result, err: err}
				// Persona failures stay in the outcome so one bad
				// persona cannot cancel the rest of the chunk.
				return nil
			})
		}
		// Workers never return errors, so Wait only synchronizes.
		_ = g.Wait()
	}

	result := domain.BatchResult{
		Results: make([]domain.PersonaConfidence, 0, len(personas)),
	}
	result.Stats.Total = len(personas)

	var confidenceSum float64
	for i, o := range outcomes {
		if o.err != nil {
			result.Failures = append(result.Failures, domain.PersonaFailure{
				PersonaID: personas[i].ID,
				Error:     o.err.Error(),
			})
			result.Stats.Failed++
			continue
		}
		result.Results = append(result.Results, o.result)
		confidenceSum += o.result.Overall
		switch o.result.Recommendation {
		case domain.RecommendationApprove:
			result.Stats.Approved++
		case domain.RecommendationReview:
			result.Stats.Review++
		case domain.RecommendationReject:
			result.Stats.Rejected++
		}
	}
	if scored := len(result.Results); scored > 0 {
		result.Stats.MeanConfidence = confidenceSum / float64(scored)
	}
	result.Stats.Elapsed = time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordLatency("process_batch", result.Stats.Elapsed, nil)
		e.metrics.RecordGauge("batch_failed", float64(result.Stats.Failed), nil)
	}
	span.SetAttributes(
		attribute.Int("batch.failed", result.Stats.Failed),
		attribute.Int64("eval.latency_ms", result.Stats.Elapsed.Milliseconds()),
	)
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// scoreClaim scores one claim, serving from cache when enabled.
func (e *Engine) scoreClaim(ctx context.Context, claim domain.ClaimField, ev domain.EvidenceContext, config EngineConfig) (domain.ConfidenceBreakdown, error) {
	key := claimCacheKey(claim)

	if config.EnableCaching && e.cache != nil {
		if cached, ok := e.cacheLookup(ctx, key); ok {
			e.count("confidence_cache_hits_total", nil)
			return cached, nil
		}
		e.count("confidence_cache_misses_total", nil)
	}

	breakdown, err := e.scorer.Score(ctx, claim, ev)
	if err != nil {
		return domain.ConfidenceBreakdown{}, err
	}

	if config.EnableCaching && e.cache != nil {
		if err := e.cache.Set(ctx, key, breakdown, config.CacheTTL); err != nil {
			// A failed cache write degrades performance, not
			// correctness.
			trace.SpanFromContext(ctx).RecordError(err)
		}
	}
	return breakdown, nil
}

// cacheLookup fetches and type-checks a cached breakdown, marking it
// as a hit. Corrupt entries are dropped and treated as misses.
func (e *Engine) cacheLookup(ctx context.Context, key string) (domain.ConfidenceBreakdown, bool) {
	value, found, err := e.cache.Get(ctx, key)
	if err != nil || !found {
		return domain.ConfidenceBreakdown{}, false
	}
	breakdown, ok := value.(domain.ConfidenceBreakdown)
	if !ok {
		_ = e.cache.Delete(ctx, key)
		return domain.ConfidenceBreakdown{}, false
	}
	breakdown.CacheHit = true
	return breakdown, true
}

func (e *Engine) count(metric string, labels map[string]string) {
	if e.metrics != nil {
		e.metrics.RecordCounter(metric, 1, labels)
	}
}

// claimWeight averages the claim's supporting-evidence volume (capped
// at three units) with the extractor's own confidence, so well-cited
// claims the extractor trusts carry the most weight in aggregation.
func claimWeight(claim domain.ClaimField, breakdown domain.ConfidenceBreakdown) float64 {
	volume := math.Min(1, float64(breakdown.SupportingCount)/3.0)
	return domain.Clamp01((volume + claim.Confidence) / 2)
}

// recommendFor maps aggregate confidence to a disposition. Approval
// requires both a strong overall score and no weak claim.
func recommendFor(config EngineConfig, overall, minScore float64) domain.Recommendation {
	switch {
	case overall >= config.ApproveThreshold && minScore >= config.MinClaimThreshold:
		return domain.RecommendationApprove
	case overall >= config.ReviewThreshold:
		return domain.RecommendationReview
	default:
		return domain.RecommendationReject
	}
}

// claimCacheKey derives a stable key from the claim's name, text and
// cited unit IDs.
func claimCacheKey(claim domain.ClaimField) string {
	h := sha256.New()
	h.Write([]byte(claim.Name))
	h.Write([]byte{'|'})
	h.Write([]byte(claim.Text))
	for _, id := range claim.CitedUnitIDs() {
		h.Write([]byte{'|'})
		h.Write([]byte(id))
	}
	return "confidence:v1:" + hex.EncodeToString(h.Sum(nil))
}
