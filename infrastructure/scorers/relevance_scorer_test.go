package scorers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averen/credence/internal/domain"
)

func TestNewRelevanceScorer(t *testing.T) {
	t.Parallel()

	badWeights := DefaultRelevanceConfig()
	badWeights.Weights.DirectMatch = 0.9

	tests := []struct {
		name       string
		scorerName string
		backend    *stubBackend
		config     RelevanceConfig
		wantErr    error
	}{
		{
			name:       "valid configuration",
			scorerName: "relevance",
			backend:    &stubBackend{},
			config:     DefaultRelevanceConfig(),
		},
		{
			name:       "empty name",
			scorerName: "",
			backend:    &stubBackend{},
			config:     DefaultRelevanceConfig(),
			wantErr:    ErrEmptyScorerName,
		},
		{
			name:       "weights must sum to one",
			scorerName: "relevance",
			backend:    &stubBackend{},
			config:     badWeights,
			wantErr:    domain.ErrInvalidWeights,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			scorer, err := NewRelevanceScorer(tt.scorerName, tt.backend, tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, scorer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scorerName, scorer.Name())
		})
	}

	t.Run("nil backend", func(t *testing.T) {
		t.Parallel()
		_, err := NewRelevanceScorer("relevance", nil, DefaultRelevanceConfig())
		assert.ErrorIs(t, err, ErrNilBackend)
	})
}

func TestRelevanceScorer_Score(t *testing.T) {
	t.Parallel()

	t.Run("full direct match with context", func(t *testing.T) {
		t.Parallel()
		backend := &stubBackend{sims: map[string]float64{
			"software engineering background": 0.8,
		}}
		scorer, err := NewRelevanceScorer("relevance", backend, DefaultRelevanceConfig())
		require.NoError(t, err)

		target := domain.RelevanceTarget{
			Topics:        []string{"technology"},
			PersonaFields: []string{"education"},
			Keywords:      []string{"golang"},
			Context:       "software engineering background",
		}
		text := "She studied software engineering at the university and graduated " +
			"with a degree; her golang work targets network infrastructure."

		result, err := scorer.Score(context.Background(), text, target)
		require.NoError(t, err)

		assert.Equal(t, []string{"technology"}, result.MatchedTopics)
		assert.Equal(t, []string{"education"}, result.MatchedFields)
		assert.Equal(t, []string{"golang"}, result.MatchedKeywords)
		assert.Equal(t, []string{"professional", "educational"}, result.DetectedContexts)

		assert.InDelta(t, 1.0, result.Components.DirectMatch, 1e-9)
		assert.InDelta(t, 0.8, result.Components.Semantic, 1e-9)
		assert.InDelta(t, 0.9, result.Components.Contextual, 1e-9)
		assert.InDelta(t, 0.0, result.Components.Specificity, 1e-9)
		assert.InDelta(t, 0.82, result.Score, 1e-9)
	})

	t.Run("empty target scores neutral", func(t *testing.T) {
		t.Parallel()
		scorer, err := NewRelevanceScorer("relevance", &stubBackend{}, DefaultRelevanceConfig())
		require.NoError(t, err)

		result, err := scorer.Score(context.Background(),
			"Plain factual sentence with nothing special.", domain.RelevanceTarget{})
		require.NoError(t, err)

		assert.InDelta(t, 0.5, result.Components.DirectMatch, 1e-9)
		assert.InDelta(t, 0.5, result.Components.Semantic, 1e-9)
		assert.InDelta(t, 0.5, result.Components.Contextual, 1e-9)
		assert.InDelta(t, 0.0, result.Components.Specificity, 1e-9)
		assert.InDelta(t, 0.45, result.Score, 1e-9)
		assert.Empty(t, result.DetectedContexts)
	})

	t.Run("partial direct match", func(t *testing.T) {
		t.Parallel()
		scorer, err := NewRelevanceScorer("relevance", &stubBackend{}, DefaultRelevanceConfig())
		require.NoError(t, err)

		target := domain.RelevanceTarget{
			Topics:   []string{"health", "sports"},
			Keywords: []string{"stadium"},
		}
		result, err := scorer.Score(context.Background(),
			"The patient received treatment at the clinical facility.", target)
		require.NoError(t, err)

		assert.Equal(t, []string{"health"}, result.MatchedTopics)
		assert.Empty(t, result.MatchedKeywords)
		assert.InDelta(t, 1.0/3.0, result.Components.DirectMatch, 1e-9)
		assert.InDelta(t, 0.4/3.0+0.25, result.Score, 1e-9)
	})

	t.Run("unknown topic label matches literally", func(t *testing.T) {
		t.Parallel()
		scorer, err := NewRelevanceScorer("relevance", &stubBackend{}, DefaultRelevanceConfig())
		require.NoError(t, err)

		target := domain.RelevanceTarget{Topics: []string{"quantum computing"}}
		result, err := scorer.Score(context.Background(),
			"Advances in quantum computing continue.", target)
		require.NoError(t, err)

		assert.Equal(t, []string{"quantum computing"}, result.MatchedTopics)
		assert.InDelta(t, 0.65, result.Score, 1e-9)
	})

	t.Run("marker density saturates specificity", func(t *testing.T) {
		t.Parallel()
		scorer, err := NewRelevanceScorer("relevance", &stubBackend{}, DefaultRelevanceConfig())
		require.NoError(t, err)

		// 7 markers (two acronyms, two measurements, one camelCase
		// identifier, one URL, one email) across 24 words.
		text := "NASA reported 45% uptime for the API: see " +
			"https://api.nasa.gov/status or email ops@nasa.gov; the " +
			"getData endpoint returns 12ms latency."

		result, err := scorer.Score(context.Background(), text, domain.RelevanceTarget{})
		require.NoError(t, err)

		assert.InDelta(t, 1.0, result.Components.Specificity, 1e-9)
		assert.InDelta(t, 0.55, result.Score, 1e-9)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		t.Parallel()
		scorer, err := NewRelevanceScorer("relevance", &stubBackend{}, DefaultRelevanceConfig())
		require.NoError(t, err)

		_, err = scorer.Score(context.Background(), "   ", domain.RelevanceTarget{})
		assert.ErrorIs(t, err, ErrEmptyText)
	})

	t.Run("backend errors propagate", func(t *testing.T) {
		t.Parallel()
		backendErr := errors.New("backend unavailable")
		scorer, err := NewRelevanceScorer("relevance",
			&stubBackend{err: backendErr}, DefaultRelevanceConfig())
		require.NoError(t, err)

		_, err = scorer.Score(context.Background(), "some text",
			domain.RelevanceTarget{Context: "anything"})
		assert.ErrorIs(t, err, backendErr)
	})
}

func TestRelevanceScorer_UpdateConfig(t *testing.T) {
	t.Parallel()

	scorer, err := NewRelevanceScorer("relevance", &stubBackend{}, DefaultRelevanceConfig())
	require.NoError(t, err)

	t.Run("rejects invalid weights", func(t *testing.T) {
		err := scorer.UpdateConfig(RelevanceOverrides{
			Weights: &RelevanceWeights{DirectMatch: 0.5, Semantic: 0.5, Contextual: 0.5, Specificity: 0.5},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidWeights)
		assert.InDelta(t, 0.4, scorer.Config().Weights.DirectMatch, 1e-9)
	})

	t.Run("applies valid weights", func(t *testing.T) {
		require.NoError(t, scorer.UpdateConfig(RelevanceOverrides{
			Weights: &RelevanceWeights{DirectMatch: 1, Semantic: 0, Contextual: 0, Specificity: 0},
		}))

		target := domain.RelevanceTarget{Keywords: []string{"turbine"}}
		result, err := scorer.Score(context.Background(),
			"The turbine hall reopened.", target)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, result.Score, 1e-9)
	})
}
