package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenOverlap(t *testing.T) {
	tests := []struct {
		name      string
		unitName  string
		config    TokenOverlapConfig
		wantError bool
	}{
		{
			name:      "valid configuration",
			unitName:  "token-overlap",
			config:    DefaultTokenOverlapConfig(),
			wantError: false,
		},
		{
			name:      "empty name",
			unitName:  "",
			config:    DefaultTokenOverlapConfig(),
			wantError: true,
		},
		{
			name:      "min token length too small",
			unitName:  "token-overlap",
			config:    TokenOverlapConfig{MinTokenLength: 0},
			wantError: true,
		},
		{
			name:      "min token length too large",
			unitName:  "token-overlap",
			config:    TokenOverlapConfig{MinTokenLength: 9},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := NewTokenOverlap(tt.unitName, tt.config)
			if tt.wantError {
				require.Error(t, err)
				assert.Nil(t, backend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.unitName, backend.Name())
		})
	}
}

func TestTokenOverlap_Compare(t *testing.T) {
	backend, err := NewTokenOverlap("token-overlap", DefaultTokenOverlapConfig())
	require.NoError(t, err)

	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical texts",
			a:    "The quick brown fox jumps over the lazy dog",
			b:    "The quick brown fox jumps over the lazy dog",
			want: 1.0,
		},
		{
			name: "case and punctuation ignored",
			a:    "Alice, Bob!",
			b:    "alice bob",
			want: 1.0,
		},
		{
			name: "partial overlap",
			a:    "works as a software engineer",
			b:    "employed as a software developer",
			want: 2.0 / 6.0,
		},
		{
			name: "no overlap",
			a:    "quantum physics research",
			b:    "baking sourdough bread",
			want: 0.0,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 1.0,
		},
		{
			name: "one side empty",
			a:    "some evidence text",
			b:    "",
			want: 0.0,
		},
		{
			name: "only short tokens on one side",
			a:    "a b c",
			b:    "meaningful words here",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backend.Compare(context.Background(), tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestTokenOverlap_Compare_Symmetric(t *testing.T) {
	backend, err := NewTokenOverlap("token-overlap", DefaultTokenOverlapConfig())
	require.NoError(t, err)

	a := "graduated from Stanford University with a physics degree"
	b := "holds a physics degree from Stanford"

	ab, err := backend.Compare(context.Background(), a, b)
	require.NoError(t, err)
	ba, err := backend.Compare(context.Background(), b, a)
	require.NoError(t, err)

	assert.InDelta(t, ab, ba, 1e-9, "similarity should be symmetric")
}

func TestTokenOverlap_Compare_CancelledContext(t *testing.T) {
	backend, err := NewTokenOverlap("token-overlap", DefaultTokenOverlapConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = backend.Compare(ctx, "a", "b")
	assert.ErrorIs(t, err, context.Canceled)
}
