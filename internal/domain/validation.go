package domain

// IssueCode identifies the category of a citation or grounding
// validation finding.
type IssueCode string

const (
	// IssueMissingEvidence means a citation references an evidence
	// unit ID absent from the evidence context.
	IssueMissingEvidence IssueCode = "missing_evidence"

	// IssueInvalidFormat means a citation's sentence index falls
	// outside the claim's sentence range.
	IssueInvalidFormat IssueCode = "invalid_format"

	// IssueConfidenceTooLow means a citation's confidence is below
	// the configured minimum.
	IssueConfidenceTooLow IssueCode = "confidence_too_low"

	// IssueSemanticMismatch means a cited sentence aligns poorly with
	// every evidence snippet it cites.
	IssueSemanticMismatch IssueCode = "semantic_mismatch"

	// IssueInsufficientCitations means a sentence has fewer citations
	// than required.
	IssueInsufficientCitations IssueCode = "insufficient_citations"

	// IssueRedundantCitations means a sentence has more citations
	// than the configured maximum.
	IssueRedundantCitations IssueCode = "redundant_citations"

	// IssueMissingMarker means claim text lacks an inline marker for
	// a declared citation.
	IssueMissingMarker IssueCode = "missing_marker"

	// IssueDuplicateMarker means claim text repeats an inline marker
	// for the same evidence unit.
	IssueDuplicateMarker IssueCode = "duplicate_marker"

	// IssueMalformedMarker means an inline marker's evidence ID fails
	// the ID syntax rules.
	IssueMalformedMarker IssueCode = "malformed_marker"
)

// Severity ranks how strongly a validation issue should block
// acceptance. Critical and high issues invalidate the result; medium
// and low issues degrade scores without invalidating.
type Severity string

const (
	// SeverityCritical marks issues that make the claims unusable,
	// such as citations of nonexistent evidence.
	SeverityCritical Severity = "critical"

	// SeverityHigh marks structural failures such as out-of-range
	// sentence indexes or uncited sentences.
	SeverityHigh Severity = "high"

	// SeverityMedium marks quality shortfalls such as low-confidence
	// citations.
	SeverityMedium Severity = "medium"

	// SeverityLow marks cosmetic findings.
	SeverityLow Severity = "low"
)

// ValidationIssue is a single finding from citation or format
// validation.
type ValidationIssue struct {
	// Code categorizes the finding.
	Code IssueCode `json:"code"`

	// Severity ranks the finding's impact.
	Severity Severity `json:"severity"`

	// ClaimName identifies the claim the finding concerns.
	ClaimName string `json:"claim_name"`

	// SentenceIndex is the affected sentence, -1 when the finding is
	// not sentence-scoped.
	SentenceIndex int `json:"sentence_index"`

	// EvidenceUnitID names the evidence unit involved, when one is.
	EvidenceUnitID string `json:"evidence_unit_id,omitempty"`

	// Message describes the finding.
	Message string `json:"message"`

	// Suggestion proposes a concrete fix when one is known, such as
	// the best-matching uncited evidence unit.
	Suggestion string `json:"suggestion,omitempty"`
}

// CitationStats aggregates citation usage across a claim set.
type CitationStats struct {
	// TotalCitations is the number of citations across all claims.
	TotalCitations int `json:"total_citations"`

	// EvidenceUtilization is the fraction of evidence units cited at
	// least once (0.0 to 1.0).
	EvidenceUtilization float64 `json:"evidence_utilization"`

	// MeanCitationConfidence is the mean confidence across all
	// citations, zero when there are none.
	MeanCitationConfidence float64 `json:"mean_citation_confidence"`
}

// CitationReport is the structured outcome of citation validation.
// It is always fully populated; failures surface as issues, never as
// absent fields.
type CitationReport struct {
	// Valid is true when no critical or high severity issues were
	// found.
	Valid bool `json:"valid"`

	// Issues holds error-grade findings ordered by claim then
	// sentence.
	Issues []ValidationIssue `json:"issues,omitempty"`

	// Warnings holds advisory findings that do not affect validity.
	Warnings []ValidationIssue `json:"warnings,omitempty"`

	// Stats aggregates citation usage.
	Stats CitationStats `json:"stats"`
}

// FormatReport is the outcome of inline citation marker validation.
type FormatReport struct {
	// Valid is true when every claim's inline markers match its
	// declared citations.
	Valid bool `json:"valid"`

	// Compliance is the fraction of claims free of marker issues
	// (0.0 to 1.0).
	Compliance float64 `json:"compliance"`

	// Issues holds marker findings.
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// GroundingReport combines citation validation, format validation,
// and utilization into one grounding judgment for a claim set.
type GroundingReport struct {
	// Grounded is true when the grounding score clears the configured
	// minimum and both underlying validations pass.
	Grounded bool `json:"grounded"`

	// Score is the weighted grounding score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Citation is the citation validation outcome.
	Citation CitationReport `json:"citation"`

	// Format is the inline marker validation outcome.
	Format FormatReport `json:"format"`

	// Improvements lists concrete retry guidance derived from the
	// issues found.
	Improvements []string `json:"improvements,omitempty"`

	// Attempts is the number of extraction attempts consumed when the
	// report came from a validate-with-retry run, zero otherwise.
	Attempts int `json:"attempts,omitempty"`
}
