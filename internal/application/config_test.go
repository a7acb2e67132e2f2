package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/averen/credence/internal/quality"
)

// TestParseEngineConfig verifies that YAML documents merge over the
// default configuration and that invalid documents are rejected with
// an error naming the failed rule.
func TestParseEngineConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		errMsg  string
		verify  func(t *testing.T, config EngineConfig)
	}{
		{
			name:    "empty document keeps defaults",
			yaml:    "",
			wantErr: false,
			verify: func(t *testing.T, config EngineConfig) {
				assert.Equal(t, DefaultEngineConfig(), config)
			},
		},
		{
			name: "partial override keeps unrelated defaults",
			yaml: `
quality:
  mode: fast
confidence:
  engine:
    approve_threshold: 0.9
`,
			wantErr: false,
			verify: func(t *testing.T, config EngineConfig) {
				assert.Equal(t, quality.ModeFast, config.Quality.Mode)
				assert.InDelta(t, 0.9, config.Confidence.Engine.ApproveThreshold, 1e-9)
				// Untouched sections keep their package defaults.
				assert.Equal(t, "token_overlap", config.Similarity.Backend)
				assert.InDelta(t, 0.3, config.Quality.Weights.Authority, 1e-9)
				assert.InDelta(t, 0.6, config.Confidence.Engine.ReviewThreshold, 1e-9)
				assert.Equal(t, 15*time.Minute, config.Quality.CacheTTL)
			},
		},
		{
			name: "full weight override",
			yaml: `
quality:
  weights:
    authority: 0.4
    content: 0.3
    recency: 0.1
    corroboration: 0.1
    relevance: 0.1
`,
			wantErr: false,
			verify: func(t *testing.T, config EngineConfig) {
				assert.InDelta(t, 0.4, config.Quality.Weights.Authority, 1e-9)
				assert.InDelta(t, 0.1, config.Quality.Weights.Relevance, 1e-9)
			},
		},
		{
			name: "similarity backend selection",
			yaml: `
similarity:
  backend: edit_distance
  edit_distance:
    case_sensitive: true
`,
			wantErr: false,
			verify: func(t *testing.T, config EngineConfig) {
				assert.Equal(t, "edit_distance", config.Similarity.Backend)
				assert.True(t, config.Similarity.EditDistance.CaseSensitive)
			},
		},
		{
			name: "unknown field rejected",
			yaml: `
qualty:
  mode: fast
`,
			wantErr: true,
			errMsg:  "qualty",
		},
		{
			name: "partial weight override breaking the sum rejected",
			yaml: `
quality:
  weights:
    authority: 0.9
`,
			wantErr: true,
			errMsg:  "weightsum",
		},
		{
			name: "unknown performance mode rejected",
			yaml: `
quality:
  mode: warp
`,
			wantErr: true,
			errMsg:  "perfmode",
		},
		{
			name: "unknown similarity backend rejected",
			yaml: `
similarity:
  backend: embeddings
`,
			wantErr: true,
			errMsg:  "oneof",
		},
		{
			name: "approve threshold below review threshold rejected",
			yaml: `
confidence:
  engine:
    approve_threshold: 0.5
`,
			wantErr: true,
			errMsg:  "approve threshold 0.50 below review threshold 0.60",
		},
		{
			name: "inverted citation band rejected",
			yaml: `
grounding:
  citation:
    min_citations_per_sentence: 4
`,
			wantErr: true,
			errMsg:  "min citations per sentence 4 exceeds max 3",
		},
		{
			name: "misweighted grounding validator rejected",
			yaml: `
grounding:
  validator:
    weights:
      citation_quality: 0.7
      format_compliance: 0.2
      utilization: 0.2
      confidence: 0.2
`,
			wantErr: true,
			errMsg:  "weightsum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := ParseEngineConfig([]byte(tt.yaml))

			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			if tt.verify != nil {
				tt.verify(t, config)
			}
		})
	}
}

// TestDefaultEngineConfig verifies the assembled defaults pass the
// same validation applied to loaded files.
func TestDefaultEngineConfig(t *testing.T) {
	config := DefaultEngineConfig()

	require.NoError(t, ValidateEngineConfig(config))
	assert.Equal(t, quality.ModeBalanced, config.Quality.Mode)
	assert.InDelta(t, 0.85, config.Confidence.Engine.ApproveThreshold, 1e-9)
	assert.InDelta(t, 0.8, config.Grounding.Validator.MinGroundingScore, 1e-9)
	assert.Equal(t, 2, config.Grounding.Validator.Retry.MaxRetries)
}

func TestLoadEngineConfig(t *testing.T) {
	t.Run("loads overrides from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credence.yaml")
		content := "quality:\n  mode: thorough\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		config, err := LoadEngineConfig(path)

		require.NoError(t, err)
		assert.Equal(t, quality.ModeThorough, config.Quality.Mode)
	})

	t.Run("missing file reports read failure", func(t *testing.T) {
		_, err := LoadEngineConfig(filepath.Join(t.TempDir(), "absent.yaml"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
}
