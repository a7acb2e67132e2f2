package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceTier(t *testing.T) {
	tests := []struct {
		in     string
		want   SourceTier
		wantOK bool
	}{
		{"canonical", TierCanonical, true},
		{"REPUTABLE", TierReputable, true},
		{"  community ", TierCommunity, true},
		{"Informal", TierInformal, true},
		{"primary", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSourceTier(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSource_EffectiveDate(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	fetched := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	withPublished := Source{PublishedAt: &published, FetchedAt: fetched}
	assert.Equal(t, published, withPublished.EffectiveDate(),
		"published date takes precedence")

	withoutPublished := Source{FetchedAt: fetched}
	assert.Equal(t, fetched, withoutPublished.EffectiveDate(),
		"fetched date is the fallback")
}

func TestEvidenceContext_Lookups(t *testing.T) {
	units := []EvidenceUnit{
		{ID: "ev_1", SourceID: "src_1", Text: "first"},
		{ID: "ev_2", SourceID: "src_2", Text: "second"},
	}
	sources := []Source{
		{ID: "src_1", Tier: TierCanonical, Domain: "nature.com"},
		{ID: "src_2", Tier: TierCommunity, Domain: "forum.example.org"},
	}

	ctx := NewEvidenceContext(units, sources)
	require.False(t, ctx.Empty())

	u, ok := ctx.Unit("ev_2")
	require.True(t, ok)
	assert.Equal(t, "second", u.Text)

	_, ok = ctx.Unit("ev_missing")
	assert.False(t, ok)

	s, ok := ctx.SourceFor(u.SourceID)
	require.True(t, ok)
	assert.Equal(t, TierCommunity, s.Tier)

	_, ok = ctx.SourceFor("src_missing")
	assert.False(t, ok)
}

func TestClaimField_CitedUnitIDs(t *testing.T) {
	claim := ClaimField{
		Name: "education",
		Citations: []Citation{
			{SentenceIndex: 0, EvidenceUnitIDs: []string{"ev_1", "ev_2"}},
			{SentenceIndex: 1, EvidenceUnitIDs: []string{"ev_2", "ev_3"}},
		},
	}

	got := claim.CitedUnitIDs()
	assert.Equal(t, []string{"ev_1", "ev_2", "ev_3"}, got,
		"IDs deduplicated in first-citation order")

	assert.Nil(t, ClaimField{}.CitedUnitIDs())
}
