// Package testutils provides utilities for testing, including fixture
// builders, a scriptable mock extractor, and deterministic test data
// generators. These components are intended for internal use within the
// project's test suites and the bundled examples and are not part of
// the public API.
package testutils

import (
	"fmt"
	"time"

	"github.com/averen/credence/internal/domain"
)

// sampleEvidenceTexts gives fixture units realistic prose so content,
// relevance, and similarity scoring produce non-degenerate results.
// Texts cycle, so contexts built from the same size are identical.
var sampleEvidenceTexts = []string{
	"Dr. Maren Holt has served as chief metallurgist at Nordvik Industrial since 2019, according to the company's annual filing.",
	"The 2023 registry lists Maren Holt as the author of 14 peer-reviewed papers on alloy fatigue, including three in the Journal of Materials.",
	"Holt completed a doctorate in materials science at the University of Trondheim in 2011, the graduation record shows.",
	"Conference proceedings from May 2024 record Holt presenting the keynote on corrosion-resistant coatings to roughly 300 attendees.",
	"A profile published in March 2024 describes Holt's laboratory as processing 4200 samples per year, a 12.5% increase over 2023.",
	"Nordvik Industrial's press release names Holt as the lead investigator on the five-year coastal infrastructure study.",
}

// SourceOption customizes a fixture source built by NewSource.
type SourceOption func(*domain.Source)

// WithTier overrides the default reputable tier.
func WithTier(tier domain.SourceTier) SourceOption {
	return func(s *domain.Source) { s.Tier = tier }
}

// WithSourceDomain sets the registrable domain name.
func WithSourceDomain(name string) SourceOption {
	return func(s *domain.Source) { s.Domain = name }
}

// WithTitle sets the document title.
func WithTitle(title string) SourceOption {
	return func(s *domain.Source) { s.Title = title }
}

// WithAuthor sets the primary author.
func WithAuthor(author string) SourceOption {
	return func(s *domain.Source) { s.Author = author }
}

// WithSourceMetadata sets one authority-signal metadata entry, keyed by
// the domain package's Meta* constants.
func WithSourceMetadata(key, value string) SourceOption {
	return func(s *domain.Source) {
		if s.Metadata == nil {
			s.Metadata = make(map[string]string)
		}
		s.Metadata[key] = value
	}
}

// WithPublishedDaysAgo moves the publication date the given number of
// days into the past, relative to the fetch time.
func WithPublishedDaysAgo(days int) SourceOption {
	return func(s *domain.Source) {
		published := s.FetchedAt.AddDate(0, 0, -days)
		s.PublishedAt = &published
	}
}

// WithoutPublishedDate clears the publication date so recency scoring
// falls back to the fetch time.
func WithoutPublishedDate() SourceOption {
	return func(s *domain.Source) { s.PublishedAt = nil }
}

// NewSource builds a reputable source fixture published thirty days
// before fetch. Every field a scorer reads is populated so tests only
// override what they exercise.
func NewSource(id string, opts ...SourceOption) domain.Source {
	now := time.Now()
	published := now.AddDate(0, 0, -30)
	source := domain.Source{
		ID:          id,
		Tier:        domain.TierReputable,
		URL:         "https://example.com/articles/" + id,
		Domain:      "example.com",
		Title:       "Published report " + id,
		PublishedAt: &published,
		FetchedAt:   now,
	}
	for _, opt := range opts {
		opt(&source)
	}
	return source
}

// UnitOption customizes a fixture evidence unit built by NewEvidenceUnit.
type UnitOption func(*domain.EvidenceUnit)

// WithText replaces the default sample text.
func WithText(text string) UnitOption {
	return func(u *domain.EvidenceUnit) { u.Text = text }
}

// WithTopics attaches retrieval topic labels.
func WithTopics(topics ...string) UnitOption {
	return func(u *domain.EvidenceUnit) { u.Topics = topics }
}

// WithQualityScore pre-assesses the unit so confidence scoring uses the
// given quality instead of its tier-derived fallback.
func WithQualityScore(score float64) UnitOption {
	return func(u *domain.EvidenceUnit) { u.QualityScore = &score }
}

// NewEvidenceUnit builds an evidence unit with realistic default text.
func NewEvidenceUnit(id, sourceID string, opts ...UnitOption) domain.EvidenceUnit {
	unit := domain.EvidenceUnit{
		ID:       id,
		SourceID: sourceID,
		Text:     sampleEvidenceTexts[0],
	}
	for _, opt := range opts {
		opt(&unit)
	}
	return unit
}

// ClaimOption customizes a fixture claim built by NewClaim.
type ClaimOption func(*domain.ClaimField)

// WithClaimConfidence overrides the default claim confidence of 0.8.
func WithClaimConfidence(confidence float64) ClaimOption {
	return func(c *domain.ClaimField) { c.Confidence = confidence }
}

// WithCitation appends a direct-support citation linking one sentence
// to the given evidence units. Inline markers are the caller's job; put
// the matching [unit_id] runs in the claim text.
func WithCitation(sentenceIndex int, confidence float64, unitIDs ...string) ClaimOption {
	return func(c *domain.ClaimField) {
		c.Citations = append(c.Citations, domain.Citation{
			SentenceIndex:   sentenceIndex,
			EvidenceUnitIDs: unitIDs,
			Confidence:      confidence,
			Support:         domain.SupportDirect,
		})
	}
}

// WithConflictFlags records extraction-time contradiction notes.
func WithConflictFlags(flags ...string) ClaimOption {
	return func(c *domain.ClaimField) { c.ConflictFlags = flags }
}

// NewClaim builds a claim field with 0.8 confidence and no citations.
func NewClaim(name, text string, opts ...ClaimOption) domain.ClaimField {
	claim := domain.ClaimField{
		Name:       name,
		Text:       text,
		Confidence: 0.8,
	}
	for _, opt := range opts {
		opt(&claim)
	}
	return claim
}

// NewPersona bundles claim fields under one persona ID.
func NewPersona(id string, claims ...domain.ClaimField) domain.Persona {
	return domain.Persona{ID: id, Claims: claims}
}

// NewEvidenceContext builds a populated context with n evidence units
// spread two-per-source across sources of rotating tiers (canonical,
// reputable, community). Unit IDs are "u0".."uN-1" and source IDs
// "s0".."sK"; texts cycle through the sample table so repeated calls
// with the same n produce structurally identical contexts.
func NewEvidenceContext(n int) domain.EvidenceContext {
	tiers := []domain.SourceTier{domain.TierCanonical, domain.TierReputable, domain.TierCommunity}
	domains := []string{"standards.example.org", "journal.example.com", "forum.example.net"}

	units := make([]domain.EvidenceUnit, 0, n)
	sources := make([]domain.Source, 0, (n+1)/2)
	for i := 0; i < n; i++ {
		sourceIdx := i / 2
		sourceID := fmt.Sprintf("s%d", sourceIdx)
		if i%2 == 0 {
			sources = append(sources, NewSource(sourceID,
				WithTier(tiers[sourceIdx%len(tiers)]),
				WithSourceDomain(domains[sourceIdx%len(domains)]),
				WithPublishedDaysAgo(15+30*sourceIdx),
			))
		}
		units = append(units, NewEvidenceUnit(
			fmt.Sprintf("u%d", i),
			sourceID,
			WithText(sampleEvidenceTexts[i%len(sampleEvidenceTexts)]),
		))
	}
	return domain.NewEvidenceContext(units, sources)
}
