package confidence

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averen/credence/infrastructure/cache"
	"github.com/averen/credence/internal/domain"
)

// countingMetrics records counter increments for assertions.
type countingMetrics struct {
	mu       sync.Mutex
	counters map[string]float64
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counters: make(map[string]float64)}
}

func (m *countingMetrics) RecordLatency(string, time.Duration, map[string]string) {}

func (m *countingMetrics) RecordCounter(metric string, value float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metric] += value
}

func (m *countingMetrics) RecordGauge(string, float64, map[string]string)     {}
func (m *countingMetrics) RecordHistogram(string, float64, map[string]string) {}

func (m *countingMetrics) counter(metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[metric]
}

func newTestEngine(t *testing.T, config EngineConfig, backend *stubBackend, opts ...Option) *Engine {
	t.Helper()
	scorer, err := NewScorer(DefaultScorerConfig(), backend)
	require.NoError(t, err)
	scorer.now = func() time.Time { return confNow }
	engine, err := NewEngine(config, scorer, opts...)
	require.NoError(t, err)
	return engine
}

// strongFixture builds evidence whose cited claim scores full
// confidence: two fresh canonical sources with high similarity.
func strongFixture() (domain.EvidenceContext, *stubBackend) {
	u1 := confUnit("u1", "s1", "The registry confirms Mira Voss founded Helix Analytics in 2019.")
	u2 := confUnit("u2", "s2", "Company filings list Mira Voss as the founder of Helix Analytics.")
	ev := domain.NewEvidenceContext(
		[]domain.EvidenceUnit{u1, u2},
		[]domain.Source{
			confSource("s1", domain.TierCanonical, 0),
			confSource("s2", domain.TierCanonical, 0),
		},
	)
	backend := &stubBackend{sims: map[string]float64{u1.Text: 0.9, u2.Text: 0.8}}
	return ev, backend
}

func strongClaim(confidence float64) domain.ClaimField {
	return citedClaim("occupation", "Mira Voss founded Helix Analytics.", confidence, "u1", "u2")
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	scorer, err := NewScorer(DefaultScorerConfig(), &stubBackend{})
	require.NoError(t, err)

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()
		engine, err := NewEngine(DefaultEngineConfig(), scorer)
		require.NoError(t, err)
		assert.Equal(t, 100, engine.Config().BatchSize)
	})

	t.Run("nil scorer rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewEngine(DefaultEngineConfig(), nil)
		assert.ErrorIs(t, err, ErrNilScorer)
	})

	t.Run("approve threshold below review rejected", func(t *testing.T) {
		t.Parallel()
		config := DefaultEngineConfig()
		config.ApproveThreshold = 0.5
		_, err := NewEngine(config, scorer)
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("threshold out of bounds rejected", func(t *testing.T) {
		t.Parallel()
		config := DefaultEngineConfig()
		config.ApproveThreshold = 1.5
		_, err := NewEngine(config, scorer)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})

	t.Run("zero batch size rejected", func(t *testing.T) {
		t.Parallel()
		config := DefaultEngineConfig()
		config.BatchSize = 0
		_, err := NewEngine(config, scorer)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})
}

func TestEngine_ScorePersona(t *testing.T) {
	t.Parallel()

	t.Run("uniformly strong claims approve", func(t *testing.T) {
		t.Parallel()

		ev, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		persona := domain.Persona{ID: "p1", Claims: []domain.ClaimField{strongClaim(1.0)}}
		result, err := engine.ScorePersona(context.Background(), persona, ev)
		require.NoError(t, err)

		assert.Equal(t, "p1", result.PersonaID)
		assert.InDelta(t, 1.0, result.Overall, 1e-9)
		assert.InDelta(t, 1.0, result.WeightedAverage, 1e-9)
		assert.InDelta(t, 1.0, result.MinClaim, 1e-9)
		assert.Equal(t, 1, result.HighCount)
		assert.Equal(t, 0, result.LowCount)
		assert.Equal(t, domain.RecommendationApprove, result.Recommendation)
		require.Len(t, result.Claims, 1)
		assert.InDelta(t, 0.8333333333333333, result.Claims[0].Weight, 1e-9)
		assert.InDelta(t, 1.0, result.Claims[0].Breakdown.Score, 1e-9)
		assert.False(t, result.EvaluatedAt.IsZero())
	})

	t.Run("moderate persona goes to review", func(t *testing.T) {
		t.Parallel()

		q1, q2 := 0.45, 0.5
		u1 := confUnit("u1", "s1", "Field notes from the survey team describe the ridge trail in detail.")
		u2 := confUnit("u2", "s2", "The park service map marks the ridge trail as open year round.")
		u1.QualityScore = &q1
		u2.QualityScore = &q2
		ev := domain.NewEvidenceContext(
			[]domain.EvidenceUnit{u1, u2},
			[]domain.Source{
				confSource("s1", domain.TierCanonical, 0),
				confSource("s2", domain.TierCanonical, 0),
			},
		)
		backend := &stubBackend{sims: map[string]float64{u1.Text: 1.0, u2.Text: 1.0}}
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		persona := domain.Persona{ID: "p2", Claims: []domain.ClaimField{
			citedClaim("hobbies", "Sam hikes the ridge trail most weekends.", 0.8, "u1", "u2"),
		}}
		result, err := engine.ScorePersona(context.Background(), persona, ev)
		require.NoError(t, err)

		// Claim score 0.85: full agreement and volume, quality
		// normalizes to 0.25, recency 1.0. Overall is 0.85 squared
		// via the min-claim multiplier plus the high-claim bonus.
		require.Len(t, result.Claims, 1)
		assert.InDelta(t, 0.85, result.Claims[0].Breakdown.Score, 1e-9)
		assert.InDelta(t, 0.7725, result.Overall, 1e-9)
		assert.Equal(t, domain.RecommendationReview, result.Recommendation)
	})

	t.Run("weak claim floors the aggregate", func(t *testing.T) {
		t.Parallel()

		ev, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		persona := domain.Persona{ID: "p3", Claims: []domain.ClaimField{
			strongClaim(0.9),
			citedClaim("education", "Riley studied marine biology at a coastal university.", 0.4),
		}}
		result, err := engine.ScorePersona(context.Background(), persona, ev)
		require.NoError(t, err)

		require.Len(t, result.Claims, 2)
		assert.InDelta(t, 0.7833333333333333, result.Claims[0].Weight, 1e-9)
		assert.InDelta(t, 0.2, result.Claims[1].Weight, 1e-9)
		assert.InDelta(t, 0.7966101694915254, result.WeightedAverage, 1e-9)
		assert.InDelta(t, 0.0, result.MinClaim, 1e-9)
		assert.Equal(t, 1, result.HighCount)
		assert.Equal(t, 1, result.LowCount)
		// weightedAvg*0.3 floor + 0.025 high bonus - 0.05 low penalty.
		assert.InDelta(t, 0.21398305084745763, result.Overall, 1e-9)
		assert.Equal(t, domain.RecommendationReject, result.Recommendation)
	})

	t.Run("no claims reject without error", func(t *testing.T) {
		t.Parallel()

		ev, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		result, err := engine.ScorePersona(context.Background(), domain.Persona{ID: "p4"}, ev)
		require.NoError(t, err)

		assert.Equal(t, "p4", result.PersonaID)
		assert.InDelta(t, 0.0, result.Overall, 1e-9)
		assert.Empty(t, result.Claims)
		assert.Equal(t, domain.RecommendationReject, result.Recommendation)
		assert.False(t, result.EvaluatedAt.IsZero())
	})

	t.Run("scorer errors propagate with claim context", func(t *testing.T) {
		t.Parallel()

		ev, backend := strongFixture()
		backend.err = errStub
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		persona := domain.Persona{ID: "p5", Claims: []domain.ClaimField{strongClaim(1.0)}}
		_, err := engine.ScorePersona(context.Background(), persona, ev)
		require.ErrorIs(t, err, errStub)
		assert.Contains(t, err.Error(), `persona "p5"`)
	})
}

func TestEngine_ScorePersona_Caching(t *testing.T) {
	t.Parallel()

	ev, backend := strongFixture()
	metrics := newCountingMetrics()
	engine := newTestEngine(t, DefaultEngineConfig(), backend,
		WithCache(cache.NewMemory(time.Minute, 0)),
		WithMetrics(metrics),
	)

	ctx := context.Background()
	persona := domain.Persona{ID: "p1", Claims: []domain.ClaimField{strongClaim(1.0)}}

	first, err := engine.ScorePersona(ctx, persona, ev)
	require.NoError(t, err)
	require.Len(t, first.Claims, 1)
	assert.False(t, first.Claims[0].Breakdown.CacheHit)

	second, err := engine.ScorePersona(ctx, persona, ev)
	require.NoError(t, err)
	require.Len(t, second.Claims, 1)
	assert.True(t, second.Claims[0].Breakdown.CacheHit)
	assert.InDelta(t, first.Overall, second.Overall, 1e-9)

	assert.Equal(t, 1.0, metrics.counter("confidence_cache_hits_total"))
	assert.Equal(t, 1.0, metrics.counter("confidence_cache_misses_total"))

	// Disabling caching bypasses the store entirely.
	disabled := false
	require.NoError(t, engine.UpdateConfig(ctx, EngineOverrides{EnableCaching: &disabled}))

	third, err := engine.ScorePersona(ctx, persona, ev)
	require.NoError(t, err)
	assert.False(t, third.Claims[0].Breakdown.CacheHit)
	assert.Equal(t, 1.0, metrics.counter("confidence_cache_misses_total"))
}

func TestEngine_ProcessBatch(t *testing.T) {
	t.Parallel()

	ev, backend := strongFixture()
	engine := newTestEngine(t, DefaultEngineConfig(), backend,
		WithCache(cache.NewMemory(time.Minute, 0)),
	)

	personas := make([]domain.Persona, 50)
	for i := range personas {
		personas[i] = domain.Persona{
			ID:     fmt.Sprintf("p%d", i),
			Claims: []domain.ClaimField{strongClaim(1.0)},
		}
	}
	// One persona arrives with no extracted claims at all.
	personas[7].Claims = nil

	result, err := engine.ProcessBatch(context.Background(), personas, ev)
	require.NoError(t, err)

	require.Len(t, result.Results, 50)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 50, result.Stats.Total)
	assert.Equal(t, 49, result.Stats.Approved)
	assert.Equal(t, 0, result.Stats.Review)
	assert.Equal(t, 1, result.Stats.Rejected)
	assert.Equal(t, 0, result.Stats.Failed)
	assert.InDelta(t, 0.98, result.Stats.MeanConfidence, 1e-9)
	assert.Greater(t, result.Stats.Elapsed, time.Duration(0))

	// Input order survives concurrent scoring.
	assert.Equal(t, "p7", result.Results[7].PersonaID)
	assert.Equal(t, domain.RecommendationReject, result.Results[7].Recommendation)
	assert.InDelta(t, 0.0, result.Results[7].Overall, 1e-9)
	assert.Equal(t, "p49", result.Results[49].PersonaID)
}

func TestEngine_ProcessBatch_IsolatesFailures(t *testing.T) {
	t.Parallel()

	ev, backend := strongFixture()
	backend.err = errStub
	backend.failOn = "trigger failure"

	config := DefaultEngineConfig()
	config.BatchSize = 2
	config.BatchConcurrency = 2
	engine := newTestEngine(t, config, backend)

	personas := []domain.Persona{
		{ID: "p1", Claims: []domain.ClaimField{strongClaim(1.0)}},
		{ID: "p2", Claims: []domain.ClaimField{
			citedClaim("occupation", "trigger failure", 0.5, "u1"),
		}},
		{ID: "p3", Claims: []domain.ClaimField{strongClaim(1.0)}},
	}

	result, err := engine.ProcessBatch(context.Background(), personas, ev)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "p1", result.Results[0].PersonaID)
	assert.Equal(t, "p3", result.Results[1].PersonaID)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "p2", result.Failures[0].PersonaID)
	assert.Contains(t, result.Failures[0].Error, "stub backend failure")

	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 2, result.Stats.Approved)
	assert.Equal(t, 1, result.Stats.Failed)
	assert.InDelta(t, 1.0, result.Stats.MeanConfidence, 1e-9)
}

func TestEngine_UpdateConfig(t *testing.T) {
	t.Parallel()

	t.Run("approve below review rejected", func(t *testing.T) {
		t.Parallel()

		_, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		lowered := 0.5
		err := engine.UpdateConfig(context.Background(), EngineOverrides{ApproveThreshold: &lowered})
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		assert.InDelta(t, 0.85, engine.Config().ApproveThreshold, 1e-9)
	})

	t.Run("disabling caching clears stored scores", func(t *testing.T) {
		t.Parallel()

		ev, backend := strongFixture()
		mem := cache.NewMemory(time.Minute, 0)
		engine := newTestEngine(t, DefaultEngineConfig(), backend, WithCache(mem))

		ctx := context.Background()
		persona := domain.Persona{ID: "p1", Claims: []domain.ClaimField{strongClaim(1.0)}}
		_, err := engine.ScorePersona(ctx, persona, ev)
		require.NoError(t, err)
		require.Equal(t, 1, mem.Len())

		disabled := false
		require.NoError(t, engine.UpdateConfig(ctx, EngineOverrides{EnableCaching: &disabled}))
		assert.Equal(t, 0, mem.Len())
	})

	t.Run("raised review threshold demotes a persona", func(t *testing.T) {
		t.Parallel()

		q1, q2 := 0.45, 0.5
		u1 := confUnit("u1", "s1", "Field notes from the survey team describe the ridge trail in detail.")
		u2 := confUnit("u2", "s2", "The park service map marks the ridge trail as open year round.")
		u1.QualityScore = &q1
		u2.QualityScore = &q2
		ev := domain.NewEvidenceContext(
			[]domain.EvidenceUnit{u1, u2},
			[]domain.Source{
				confSource("s1", domain.TierCanonical, 0),
				confSource("s2", domain.TierCanonical, 0),
			},
		)
		backend := &stubBackend{sims: map[string]float64{u1.Text: 1.0, u2.Text: 1.0}}
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		ctx := context.Background()
		persona := domain.Persona{ID: "p2", Claims: []domain.ClaimField{
			citedClaim("hobbies", "Sam hikes the ridge trail most weekends.", 0.8, "u1", "u2"),
		}}

		before, err := engine.ScorePersona(ctx, persona, ev)
		require.NoError(t, err)
		assert.Equal(t, domain.RecommendationReview, before.Recommendation)

		raised := 0.8
		require.NoError(t, engine.UpdateConfig(ctx, EngineOverrides{ReviewThreshold: &raised}))

		after, err := engine.ScorePersona(ctx, persona, ev)
		require.NoError(t, err)
		assert.InDelta(t, before.Overall, after.Overall, 1e-9)
		assert.Equal(t, domain.RecommendationReject, after.Recommendation)
	})
}

func TestEngine_Calibration(t *testing.T) {
	t.Parallel()

	t.Run("empty log errors", func(t *testing.T) {
		t.Parallel()

		_, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		_, err := engine.AnalyzeCalibration()
		assert.ErrorIs(t, err, domain.ErrNoCalibrationData)
	})

	t.Run("report statistics", func(t *testing.T) {
		t.Parallel()

		_, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		pairs := [][2]float64{
			{0.9, 1.0}, {0.8, 0.8}, {0.7, 0.5}, {0.3, 0.2}, {0.1, 0.0},
		}
		for _, p := range pairs {
			engine.RecordCalibration(domain.CalibrationPoint{Predicted: p[0], Observed: p[1]})
		}
		require.Equal(t, 5, engine.CalibrationSize())

		report, err := engine.AnalyzeCalibration()
		require.NoError(t, err)

		assert.Equal(t, 5, report.SampleCount)
		assert.InDelta(t, 0.1, report.MAE, 1e-9)
		assert.InDelta(t, math.Sqrt(0.014), report.RMSE, 1e-9)
		assert.InDelta(t, 0.55/math.Sqrt(0.472*0.68), report.Correlation, 1e-9)
		assert.InDelta(t, 0.986, report.Reliability, 1e-9)
		assert.InDelta(t, 0.136, report.Resolution, 1e-9)

		require.Len(t, report.Curve, 10)
		top := report.Curve[9]
		assert.InDelta(t, 0.9, top.RangeLow, 1e-9)
		assert.InDelta(t, 1.0, top.RangeHigh, 1e-9)
		assert.Equal(t, 1, top.Count)
		assert.InDelta(t, 0.9, top.MeanPredicted, 1e-9)
		assert.InDelta(t, 1.0, top.MeanObserved, 1e-9)
		assert.Equal(t, 0, report.Curve[0].Count)
		assert.Equal(t, 0, report.Curve[5].Count)
	})

	t.Run("constant predictions yield zero correlation", func(t *testing.T) {
		t.Parallel()

		_, backend := strongFixture()
		engine := newTestEngine(t, DefaultEngineConfig(), backend)

		for _, observed := range []float64{0.1, 0.9, 0.5} {
			engine.RecordCalibration(domain.CalibrationPoint{Predicted: 0.5, Observed: observed})
		}

		report, err := engine.AnalyzeCalibration()
		require.NoError(t, err)
		assert.InDelta(t, 0.0, report.Correlation, 1e-9)
		assert.Equal(t, 3, report.SampleCount)
	})
}
