package domain

// RelevanceTarget describes what an assessment is relevant TO:
// the topics, persona fields, and keywords the caller cares about,
// plus optional free-text context for semantic comparison. A nil
// target skips relevance scoring entirely.
type RelevanceTarget struct {
	// Topics lists topic labels the evidence should bear on, e.g.
	// "technology" or "health".
	Topics []string `json:"topics,omitempty"`

	// PersonaFields lists persona field names the evidence should
	// inform, e.g. "occupation" or "education".
	PersonaFields []string `json:"persona_fields,omitempty"`

	// Keywords lists exact terms or phrases that should appear.
	Keywords []string `json:"keywords,omitempty"`

	// Context is free text describing the assessment's purpose, used
	// for semantic similarity when present.
	Context string `json:"context,omitempty"`
}

// Empty reports whether the target constrains nothing.
func (t RelevanceTarget) Empty() bool {
	return len(t.Topics) == 0 && len(t.PersonaFields) == 0 &&
		len(t.Keywords) == 0 && t.Context == ""
}
