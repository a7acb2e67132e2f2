package domain

// SupportType describes how directly a cited evidence unit backs the
// sentence that cites it.
type SupportType string

const (
	// SupportDirect means the evidence states the sentence's content
	// outright.
	SupportDirect SupportType = "direct"

	// SupportInferential means the sentence follows from the evidence
	// by a reasonable inference.
	SupportInferential SupportType = "inferential"

	// SupportContextual means the evidence provides background that
	// makes the sentence plausible without asserting it.
	SupportContextual SupportType = "contextual"
)

// Valid reports whether the support type is one of the known values.
func (s SupportType) Valid() bool {
	switch s {
	case SupportDirect, SupportInferential, SupportContextual:
		return true
	default:
		return false
	}
}

// Citation links one sentence of a claim to the evidence units that
// back it, with the extractor's confidence in the link.
type Citation struct {
	// SentenceIndex is the zero-based index of the cited sentence
	// within the claim text.
	SentenceIndex int `json:"sentence_index"`

	// EvidenceUnitIDs lists the IDs of the evidence units backing the
	// sentence.
	EvidenceUnitIDs []string `json:"evidence_unit_ids"`

	// Confidence is the extractor's confidence in this citation
	// (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Support classifies how directly the evidence backs the sentence.
	Support SupportType `json:"support"`
}

// ClaimField is a single extracted assertion about a persona, such as
// an occupation or an affiliation, together with its citations.
type ClaimField struct {
	// Name identifies the field, e.g. "occupation" or "education".
	Name string `json:"name"`

	// Text is the claim's prose content.
	Text string `json:"text"`

	// Confidence is the extractor's confidence in the claim as a
	// whole (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Citations link claim sentences to evidence units.
	Citations []Citation `json:"citations,omitempty"`

	// ConflictFlags records contradictions noted during extraction.
	ConflictFlags []string `json:"conflict_flags,omitempty"`
}

// Sentences splits the claim text into sentences. Citation sentence
// indexes refer to positions in this slice.
func (c ClaimField) Sentences() []string { return SplitSentences(c.Text) }

// CitedUnitIDs returns the deduplicated evidence unit IDs cited
// anywhere in the claim, in first-citation order.
func (c ClaimField) CitedUnitIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, cit := range c.Citations {
		for _, id := range cit.EvidenceUnitIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// Persona is the subject being assessed: a set of claim fields
// extracted from evidence about one entity.
type Persona struct {
	// ID uniquely identifies the persona within a batch.
	ID string `json:"id"`

	// Claims holds the extracted claim fields.
	Claims []ClaimField `json:"claims"`
}
