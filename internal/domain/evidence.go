package domain

import (
	"strings"
	"time"
)

// SourceTier classifies how much editorial control and accountability
// stands behind a source. Tiers gate the base authority weight before
// any domain or metadata signals are applied.
type SourceTier string

const (
	// TierCanonical covers primary, authoritative publishers such as
	// standards bodies, peer-reviewed venues, and official records.
	TierCanonical SourceTier = "canonical"

	// TierReputable covers established publishers with editorial
	// oversight, such as major news organizations and academic presses.
	TierReputable SourceTier = "reputable"

	// TierCommunity covers collaboratively maintained or moderated
	// content such as wikis and technical forums.
	TierCommunity SourceTier = "community"

	// TierInformal covers personal blogs, social posts, and other
	// content with no editorial accountability.
	TierInformal SourceTier = "informal"
)

// ParseSourceTier converts a string into a SourceTier, accepting any
// casing. It returns false when the value names no known tier.
func ParseSourceTier(s string) (SourceTier, bool) {
	switch SourceTier(strings.ToLower(strings.TrimSpace(s))) {
	case TierCanonical:
		return TierCanonical, true
	case TierReputable:
		return TierReputable, true
	case TierCommunity:
		return TierCommunity, true
	case TierInformal:
		return TierInformal, true
	default:
		return "", false
	}
}

// String returns the wire representation of the tier.
func (t SourceTier) String() string { return string(t) }

// Valid reports whether the tier is one of the four known values.
func (t SourceTier) Valid() bool {
	switch t {
	case TierCanonical, TierReputable, TierCommunity, TierInformal:
		return true
	default:
		return false
	}
}

// Metadata keys recognized by authority scoring. Values are free-form
// strings; boolean-like keys use "true"/"false".
const (
	// MetaAuthorCredentials holds author qualifications such as
	// "PhD, Stanford University".
	MetaAuthorCredentials = "author_credentials"

	// MetaAffiliation holds the author's institutional affiliation.
	MetaAffiliation = "affiliation"

	// MetaPublisher holds the publishing organization's name.
	MetaPublisher = "publisher"

	// MetaPeerReviewed is "true" when the work passed peer review.
	MetaPeerReviewed = "peer_reviewed"

	// MetaDOI holds a Digital Object Identifier when one exists.
	MetaDOI = "doi"

	// MetaISBN holds an ISBN when one exists.
	MetaISBN = "isbn"
)

// Source describes where a piece of evidence came from. Authority and
// recency scoring read the tier, domain, title, metadata, and
// timestamps; corroboration reads domain and author to judge
// independence between sources.
type Source struct {
	// ID uniquely identifies this source within an evidence set.
	ID string `json:"id"`

	// Tier is the editorial-accountability classification.
	Tier SourceTier `json:"tier"`

	// URL is the full location the content was fetched from.
	URL string `json:"url,omitempty"`

	// Domain is the registrable host name, e.g. "nature.com".
	Domain string `json:"domain"`

	// Title is the document or page title as published.
	Title string `json:"title,omitempty"`

	// Author names the primary author when known.
	Author string `json:"author,omitempty"`

	// Metadata carries optional authority signals keyed by the
	// Meta* constants.
	Metadata map[string]string `json:"metadata,omitempty"`

	// PublishedAt is the publication timestamp when known.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// FetchedAt records when the content was retrieved. It is the
	// recency fallback when PublishedAt is unknown.
	FetchedAt time.Time `json:"fetched_at"`
}

// EffectiveDate returns PublishedAt when set, otherwise FetchedAt.
// Recency scoring ages evidence from this date.
func (s Source) EffectiveDate() time.Time {
	if s.PublishedAt != nil && !s.PublishedAt.IsZero() {
		return *s.PublishedAt
	}
	return s.FetchedAt
}

// EvidenceUnit is a span of source text treated as a single piece of
// evidence. Units are the atoms that quality scoring, corroboration,
// and citation validation operate on.
type EvidenceUnit struct {
	// ID uniquely identifies this unit within an evidence set. Claim
	// text references units by this ID in inline citation markers.
	ID string `json:"id"`

	// SourceID links the unit to its Source.
	SourceID string `json:"source_id"`

	// Text is the extracted span.
	Text string `json:"text"`

	// StartOffset is the rune offset of the span start in the source
	// document, when known.
	StartOffset int `json:"start_offset,omitempty"`

	// EndOffset is the rune offset one past the span end, when known.
	EndOffset int `json:"end_offset,omitempty"`

	// Topics lists topic labels attached during retrieval.
	Topics []string `json:"topics,omitempty"`

	// QualityScore is the unit's assessed quality when one has been
	// computed. Confidence scoring falls back to a tier-derived
	// default when nil.
	QualityScore *float64 `json:"quality_score,omitempty"`
}

// EvidenceContext bundles evidence units with their sources so scorers
// can resolve unit→source without extra lookups. The zero value is an
// empty context.
type EvidenceContext struct {
	// Units holds the evidence units under consideration.
	Units []EvidenceUnit `json:"units"`

	// Sources maps Source.ID to the source record.
	Sources map[string]Source `json:"sources"`
}

// NewEvidenceContext builds a context from units and sources, indexing
// sources by ID.
func NewEvidenceContext(units []EvidenceUnit, sources []Source) EvidenceContext {
	idx := make(map[string]Source, len(sources))
	for _, s := range sources {
		idx[s.ID] = s
	}
	return EvidenceContext{Units: units, Sources: idx}
}

// Unit returns the evidence unit with the given ID.
func (c EvidenceContext) Unit(id string) (EvidenceUnit, bool) {
	for _, u := range c.Units {
		if u.ID == id {
			return u, true
		}
	}
	return EvidenceUnit{}, false
}

// SourceFor resolves a source record by ID.
func (c EvidenceContext) SourceFor(sourceID string) (Source, bool) {
	s, ok := c.Sources[sourceID]
	return s, ok
}

// Empty reports whether the context holds no units.
func (c EvidenceContext) Empty() bool { return len(c.Units) == 0 }
