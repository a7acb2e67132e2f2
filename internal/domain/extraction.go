package domain

// ExtractionConstraints tightens what the extraction collaborator may
// return. Retry cycles raise these progressively.
type ExtractionConstraints struct {
	// MinCitationConfidence is the lowest acceptable citation
	// confidence (0.0 to 1.0).
	MinCitationConfidence float64 `json:"min_citation_confidence"`

	// MinCitationsPerSentence is the minimum citations each claim
	// sentence must carry.
	MinCitationsPerSentence int `json:"min_citations_per_sentence"`

	// SemanticAlignmentThreshold is the minimum similarity required
	// between a sentence and its cited evidence.
	SemanticAlignmentThreshold float64 `json:"semantic_alignment_threshold"`
}

// ExtractionRequest asks the extraction collaborator to produce cited
// claims for one persona from the supplied evidence.
type ExtractionRequest struct {
	// PersonaID identifies the persona to extract claims for.
	PersonaID string `json:"persona_id"`

	// Evidence holds the units the extractor may cite.
	Evidence []EvidenceUnit `json:"evidence"`

	// Constraints bounds what the extractor may return.
	Constraints ExtractionConstraints `json:"constraints"`

	// Attempt is the one-based extraction attempt number within a
	// retry cycle.
	Attempt int `json:"attempt"`

	// Guidance carries improvement notes from a failed validation,
	// empty on the first attempt.
	Guidance []string `json:"guidance,omitempty"`
}

// ExtractionResponse is what the extraction collaborator returns.
type ExtractionResponse struct {
	// Claims holds the extracted claim fields with citations.
	Claims []ClaimField `json:"claims"`

	// ModelID names the model or system that produced the claims.
	ModelID string `json:"model_id,omitempty"`

	// Notes carries extractor-side remarks about the extraction.
	Notes []string `json:"notes,omitempty"`
}
