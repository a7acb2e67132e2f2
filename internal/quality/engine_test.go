package quality

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averen/credence/infrastructure/cache"
	"github.com/averen/credence/infrastructure/scorers"
	"github.com/averen/credence/internal/domain"
)

// stubBackend returns canned similarities keyed by the second compared
// text.
type stubBackend struct {
	sims map[string]float64
}

func (s *stubBackend) Compare(_ context.Context, _, b string) (float64, error) {
	return s.sims[b], nil
}

func (s *stubBackend) Name() string { return "stub" }

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

func newTestScorers(t *testing.T, backend *stubBackend) Scorers {
	t.Helper()

	authority, err := scorers.NewAuthorityScorer("authority", scorers.DefaultAuthorityConfig())
	require.NoError(t, err)
	content, err := scorers.NewContentScorer("content", scorers.DefaultContentConfig())
	require.NoError(t, err)
	recency, err := scorers.NewRecencyScorer("recency", scorers.DefaultRecencyConfig())
	require.NoError(t, err)
	corroboration, err := scorers.NewCorroborationScorer("corroboration", backend, scorers.DefaultCorroborationConfig())
	require.NoError(t, err)
	relevance, err := scorers.NewRelevanceScorer("relevance", backend, scorers.DefaultRelevanceConfig())
	require.NoError(t, err)

	return Scorers{
		Authority:     authority,
		Content:       content,
		Recency:       recency,
		Corroboration: corroboration,
		Relevance:     relevance,
	}
}

func testSource(id string, daysAgo int) domain.Source {
	published := time.Now().Add(-time.Duration(daysAgo) * 24 * time.Hour)
	return domain.Source{
		ID:          id,
		Tier:        domain.TierCanonical,
		Domain:      "example.com",
		PublishedAt: &published,
		FetchedAt:   time.Now(),
	}
}

func testInput() Input {
	return Input{
		Unit: domain.EvidenceUnit{
			ID:       "u0",
			SourceID: "s0",
			Text: "The facility produced 4200 units in March 2024, a 12.5% " +
				"increase recorded over the prior year according to audit data.",
		},
		Source: testSource("s0", 10),
	}
}

// corroboratedInput extends testInput with related evidence yielding a
// corroboration score of 0.809 and a topic target.
func corroboratedInput() (Input, *stubBackend) {
	input := testInput()

	s1 := domain.Source{ID: "s1", Tier: domain.TierCanonical, Domain: "alpha.org", Author: "Alice Jones"}
	s2 := domain.Source{ID: "s2", Tier: domain.TierReputable, Domain: "beta.gov", Author: "Bob Lee"}
	d1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.Add(30 * 24 * time.Hour)
	s1.PublishedAt, s2.PublishedAt = &d1, &d2

	related := domain.NewEvidenceContext(
		[]domain.EvidenceUnit{
			{ID: "u1", SourceID: "s1", Text: "cand-1"},
			{ID: "u2", SourceID: "s2", Text: "cand-2"},
		},
		[]domain.Source{s1, s2},
	)
	input.Related = &related
	input.Target = &domain.RelevanceTarget{Topics: []string{"finance"}}

	backend := &stubBackend{sims: map[string]float64{
		"cand-1": 0.8,
		"cand-2": 0.9,
	}}
	return input, backend
}

func TestNewEngine(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()
		engine, err := NewEngine(DefaultConfig(), newTestScorers(t, backend))
		require.NoError(t, err)
		assert.Equal(t, ModeBalanced, engine.Config().Mode)
	})

	t.Run("missing scorer", func(t *testing.T) {
		t.Parallel()
		bundle := newTestScorers(t, backend)
		bundle.Recency = nil
		_, err := NewEngine(DefaultConfig(), bundle)
		assert.ErrorIs(t, err, ErrNilScorer)
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()
		config := DefaultConfig()
		config.Mode = "warp"
		_, err := NewEngine(config, newTestScorers(t, backend))
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		t.Parallel()
		config := DefaultConfig()
		config.Weights.Authority = 0.9
		_, err := NewEngine(config, newTestScorers(t, backend))
		assert.ErrorIs(t, err, domain.ErrInvalidWeights)
	})
}

func TestEngine_Assess_ComponentSelection(t *testing.T) {
	t.Parallel()

	t.Run("base components only", func(t *testing.T) {
		t.Parallel()
		engine, err := NewEngine(DefaultConfig(), newTestScorers(t, &stubBackend{}))
		require.NoError(t, err)

		assessment, err := engine.Assess(context.Background(), testInput())
		require.NoError(t, err)

		assert.Len(t, assessment.Breakdown, 3)
		assert.Contains(t, assessment.Breakdown, domain.ComponentAuthority)
		assert.Contains(t, assessment.Breakdown, domain.ComponentContent)
		assert.Contains(t, assessment.Breakdown, domain.ComponentRecency)

		// Canonical source with no adjustments scores 1.0 authority,
		// so confidence is 0.2 + 3*0.13 + 0.07.
		assert.InDelta(t, 1.0, assessment.Breakdown[domain.ComponentAuthority], 1e-9)
		assert.InDelta(t, 0.66, assessment.Confidence, 1e-9)
		assert.False(t, assessment.CacheHit)
		assert.Equal(t, "u0", assessment.UnitID)
	})

	t.Run("all five components", func(t *testing.T) {
		t.Parallel()
		input, backend := corroboratedInput()
		engine, err := NewEngine(DefaultConfig(), newTestScorers(t, backend))
		require.NoError(t, err)

		assessment, err := engine.Assess(context.Background(), input)
		require.NoError(t, err)

		assert.Len(t, assessment.Breakdown, 5)
		assert.InDelta(t, 0.809, assessment.Breakdown[domain.ComponentCorroboration], 1e-9)
		// Five components, strong authority and corroboration: the
		// confidence formula saturates.
		assert.InDelta(t, 1.0, assessment.Confidence, 1e-9)
	})

	t.Run("fast mode skips corroboration and relevance", func(t *testing.T) {
		t.Parallel()
		input, backend := corroboratedInput()
		config := DefaultConfig()
		config.Mode = ModeFast
		engine, err := NewEngine(config, newTestScorers(t, backend))
		require.NoError(t, err)

		assessment, err := engine.Assess(context.Background(), input)
		require.NoError(t, err)

		assert.Len(t, assessment.Breakdown, 3)
		assert.NotContains(t, assessment.Breakdown, domain.ComponentCorroboration)
		assert.NotContains(t, assessment.Breakdown, domain.ComponentRelevance)
	})
}

func TestEngine_Assess_WeightRenormalization(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig(), newTestScorers(t, &stubBackend{}))
	require.NoError(t, err)

	assessment, err := engine.Assess(context.Background(), testInput())
	require.NoError(t, err)

	// With only authority, content and recency evaluated, the
	// composite is their weighted mean over 0.3+0.25+0.2.
	b := assessment.Breakdown
	want := (0.3*b[domain.ComponentAuthority] +
		0.25*b[domain.ComponentContent] +
		0.2*b[domain.ComponentRecency]) / 0.75
	assert.InDelta(t, want, assessment.Score, 1e-9)
	assert.GreaterOrEqual(t, assessment.Score, 0.0)
	assert.LessOrEqual(t, assessment.Score, 1.0)
}

func TestEngine_Assess_Caching(t *testing.T) {
	t.Parallel()

	metrics := newCountingMetrics()
	engine, err := NewEngine(DefaultConfig(), newTestScorers(t, &stubBackend{}),
		WithCache(cache.NewMemory(time.Minute, 0)),
		WithMetrics(metrics),
	)
	require.NoError(t, err)

	ctx := context.Background()
	input := testInput()

	first, err := engine.Assess(ctx, input)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := engine.Assess(ctx, input)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.InDelta(t, first.Score, second.Score, 1e-9)
	assert.Equal(t, first.EvaluatedAt, second.EvaluatedAt)

	assert.Equal(t, 1.0, metrics.counter("assessment_cache_hits_total"))
	assert.Equal(t, 1.0, metrics.counter("assessment_cache_misses_total"))

	// Disabling caching clears stored assessments.
	disabled := false
	require.NoError(t, engine.UpdateConfig(ctx, Overrides{EnableCaching: &disabled}))

	third, err := engine.Assess(ctx, input)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestEngine_Assess_PropagatesScorerErrors(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig(), newTestScorers(t, &stubBackend{}))
	require.NoError(t, err)

	input := testInput()
	input.Unit.Text = "   "
	_, err = engine.Assess(context.Background(), input)
	assert.ErrorIs(t, err, scorers.ErrEmptyText)
}

func TestEngine_AssessBatch(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig(), newTestScorers(t, &stubBackend{}))
	require.NoError(t, err)

	good := testInput()
	bad := testInput()
	bad.Unit.ID = "u-bad"
	bad.Unit.Text = ""
	third := testInput()
	third.Unit.ID = "u-third"

	items := engine.AssessBatch(context.Background(), []Input{good, bad, third})
	require.Len(t, items, 3)

	assert.Equal(t, 0, items[0].Index)
	require.NoError(t, items[0].Err)
	assert.Equal(t, "u0", items[0].Assessment.UnitID)

	assert.Equal(t, 1, items[1].Index)
	assert.ErrorIs(t, items[1].Err, scorers.ErrEmptyText)

	assert.Equal(t, 2, items[2].Index)
	require.NoError(t, items[2].Err)
	assert.Equal(t, "u-third", items[2].Assessment.UnitID)

	assert.Empty(t, engine.AssessBatch(context.Background(), nil))
}

func TestEngine_UpdateConfig(t *testing.T) {
	t.Parallel()

	input, backend := corroboratedInput()
	engine, err := NewEngine(DefaultConfig(), newTestScorers(t, backend))
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("rejects invalid weights", func(t *testing.T) {
		err := engine.UpdateConfig(ctx, Overrides{
			Weights: &ComponentWeights{Authority: 1, Content: 1, Recency: 1, Corroboration: 1, Relevance: 1},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidWeights)
		assert.InDelta(t, 0.3, engine.Config().Weights.Authority, 1e-9)
	})

	t.Run("mode change takes effect", func(t *testing.T) {
		fast := ModeFast
		require.NoError(t, engine.UpdateConfig(ctx, Overrides{Mode: &fast}))

		assessment, err := engine.Assess(ctx, input)
		require.NoError(t, err)
		assert.NotContains(t, assessment.Breakdown, domain.ComponentCorroboration)
	})
}
