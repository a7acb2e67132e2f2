package scorers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContentScorer(t *testing.T) {
	tests := []struct {
		name      string
		config    ContentConfig
		wantError bool
	}{
		{
			name:      "default weights valid",
			config:    DefaultContentConfig(),
			wantError: false,
		},
		{
			name: "weights not summing to one",
			config: ContentConfig{Weights: ContentWeights{
				Specificity: 0.5, Completeness: 0.5, Readability: 0.5,
				Density: 0.5, Coherence: 0.5,
			}},
			wantError: true,
		},
		{
			name: "negative weight",
			config: ContentConfig{Weights: ContentWeights{
				Specificity: 1.2, Completeness: -0.2,
			}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer, err := NewContentScorer("content", tt.config)
			if tt.wantError {
				require.Error(t, err)
				assert.Nil(t, scorer)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestContentScorer_Score_EmptyText(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	_, err = scorer.Score(context.Background(), ContentInput{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestContentScorer_Score_SingleWord(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	result, err := scorer.Score(context.Background(), ContentInput{Text: "Word"})
	require.NoError(t, err)

	// specificity 0.5, completeness 0.1, readability 0.4,
	// density 0.75, coherence 0.5 under default weights.
	assert.InDelta(t, 0.4175, result.Score, 1e-9)
	assert.InDelta(t, 0.5, result.Components.Specificity, 1e-9)
	assert.InDelta(t, 0.1, result.Components.Completeness, 1e-9)
	assert.InDelta(t, 0.4, result.Components.Readability, 1e-9)
	assert.InDelta(t, 0.75, result.Components.Density, 1e-9)
	assert.InDelta(t, 0.5, result.Components.Coherence, 1e-9)
	assert.Len(t, result.Reasoning, 5)
}

func TestContentScorer_Score_SpecificBeatsVague(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	specific := "The facility produced 4200 units in March 2024, a 12.5% increase over 2023."
	vague := "The facility produced some things and stuff, often doing somewhat better than various others usually do."

	specificResult, err := scorer.Score(context.Background(), ContentInputForText(specific))
	require.NoError(t, err)
	vagueResult, err := scorer.Score(context.Background(), ContentInputForText(vague))
	require.NoError(t, err)

	assert.Greater(t, specificResult.Components.Specificity, 0.5)
	assert.Less(t, vagueResult.Components.Specificity, 0.5)
	assert.Greater(t, specificResult.Components.Specificity,
		vagueResult.Components.Specificity)
}

func TestContentScorer_Score_CompletenessBands(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	fragment := ContentInput{Text: "cut off mid", CompleteStart: false, CompleteEnd: false}
	fragResult, err := scorer.Score(context.Background(), fragment)
	require.NoError(t, err)
	assert.Less(t, fragResult.Components.Completeness, 0.5,
		"short fragment with broken boundaries scores below neutral")

	whole := ContentInput{
		Text: "The observatory recorded its first confirmed detection of the comet " +
			"on the evening of March 3. Researchers verified the finding against " +
			"archival plates from two independent collections before announcing it. " +
			"The narrow window for observation required coordination between three " +
			"stations across two continents over several consecutive nights.",
		CompleteStart: true,
		CompleteEnd:   true,
	}
	wholeResult, err := scorer.Score(context.Background(), whole)
	require.NoError(t, err)
	assert.Greater(t, wholeResult.Components.Completeness, 0.5,
		"mid-length whole-sentence evidence scores above neutral")
}

func TestContentScorer_Score_ReadabilityPenalizesRunOns(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	// One sentence of far more than forty words.
	runOn := ContentInput{
		Text: "The committee which had been convened after the original panel was " +
			"dissolved following the audit that the ministry commissioned in the " +
			"wake of the reporting scandal met again and again without reaching " +
			"any conclusion that the members who remained could agree to publish " +
			"in any form whatsoever during that entire year",
	}
	result, err := scorer.Score(context.Background(), runOn)
	require.NoError(t, err)
	assert.Less(t, result.Components.Readability, 0.5)
}

func TestContentScorer_Score_CoherenceRewardsTransitions(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	structured := "The trial enrolled 400 patients. However, the control arm was " +
		"unblinded early. Therefore, the endpoint analysis excluded it. " +
		"Moreover, the follow-up period was extended."
	flat := "The trial enrolled 400 patients. The control arm was unblinded " +
		"early. The endpoint analysis excluded it."

	structuredResult, err := scorer.Score(context.Background(), ContentInputForText(structured))
	require.NoError(t, err)
	flatResult, err := scorer.Score(context.Background(), ContentInputForText(flat))
	require.NoError(t, err)

	assert.Greater(t, structuredResult.Components.Coherence,
		flatResult.Components.Coherence)
}

func TestContentScorer_Score_AllComponentsInRange(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	texts := []string{
		"x",
		"Really very just quite basically actually literally totally simply rather.",
		"A 100% precise measurement of 3.14159 recorded on January 5, 2024.",
		"some many often things stuff somewhat various several",
	}

	for _, text := range texts {
		result, err := scorer.Score(context.Background(), ContentInputForText(text))
		require.NoError(t, err)
		for _, c := range []float64{
			result.Components.Specificity, result.Components.Completeness,
			result.Components.Readability, result.Components.Density,
			result.Components.Coherence, result.Score,
		} {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	}
}

func TestContentScorer_UpdateConfig(t *testing.T) {
	scorer, err := NewContentScorer("content", DefaultContentConfig())
	require.NoError(t, err)

	err = scorer.UpdateConfig(ContentOverrides{Weights: &ContentWeights{
		Specificity: 0.9, Completeness: 0.9, Readability: 0.9,
		Density: 0.9, Coherence: 0.9,
	}})
	require.Error(t, err, "weights summing to 4.5 must be rejected")
	assert.InDelta(t, 0.30, scorer.Config().Weights.Specificity, 1e-9)

	err = scorer.UpdateConfig(ContentOverrides{Weights: &ContentWeights{
		Specificity: 0.4, Completeness: 0.3, Readability: 0.1,
		Density: 0.1, Coherence: 0.1,
	}})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, scorer.Config().Weights.Specificity, 1e-9)
}
