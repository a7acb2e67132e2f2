package grounding

import (
	"fmt"
	"regexp"

	"github.com/averen/credence/internal/domain"
)

var (
	// markerPattern captures bracket runs that could be inline
	// evidence markers. Runs containing whitespace or nested brackets
	// are prose, not markers, and are never candidates.
	markerPattern = regexp.MustCompile(`\[([^\[\]\s]+)\]`)

	// evidenceIDPattern is the syntax a marker's evidence ID must
	// satisfy: a letter followed by letters, digits, underscores, or
	// hyphens.
	evidenceIDPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

// ValidateFormat checks each claim's inline [unit_id] markers against
// its declared citations. Every declared evidence unit needs a marker
// in the claim text; repeated markers for one unit are flagged as
// warnings, and bracket runs that fail the evidence ID syntax are
// flagged as malformed. Pure: no configuration, no collaborators.
func ValidateFormat(claims []domain.ClaimField) domain.FormatReport {
	report := domain.FormatReport{Valid: true, Compliance: 1.0}
	if len(claims) == 0 {
		return report
	}

	clean := 0
	for _, claim := range claims {
		issues := claimMarkerIssues(claim)
		if len(issues) == 0 {
			clean++
		}
		report.Issues = append(report.Issues, issues...)
		for _, issue := range issues {
			if issue.Severity != domain.SeverityLow {
				report.Valid = false
			}
		}
	}
	report.Compliance = float64(clean) / float64(len(claims))
	return report
}

// claimMarkerIssues scans one claim's text for marker problems.
func claimMarkerIssues(claim domain.ClaimField) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	seen := make(map[string]int)
	var markerOrder []string
	flaggedMalformed := make(map[string]struct{})
	for _, match := range markerPattern.FindAllStringSubmatch(claim.Text, -1) {
		content := match[1]
		if !evidenceIDPattern.MatchString(content) {
			if _, done := flaggedMalformed[content]; done {
				continue
			}
			flaggedMalformed[content] = struct{}{}
			issues = append(issues, domain.ValidationIssue{
				Code:          domain.IssueMalformedMarker,
				Severity:      domain.SeverityMedium,
				ClaimName:     claim.Name,
				SentenceIndex: -1,
				Message:       fmt.Sprintf("marker [%s] is not a valid evidence ID", content),
			})
			continue
		}
		if seen[content] == 0 {
			markerOrder = append(markerOrder, content)
		}
		seen[content]++
	}

	for _, id := range claim.CitedUnitIDs() {
		if seen[id] == 0 {
			issues = append(issues, domain.ValidationIssue{
				Code:           domain.IssueMissingMarker,
				Severity:       domain.SeverityHigh,
				ClaimName:      claim.Name,
				SentenceIndex:  -1,
				EvidenceUnitID: id,
				Message:        fmt.Sprintf("declared citation of unit %q has no inline [%s] marker", id, id),
				Suggestion:     fmt.Sprintf("add an inline [%s] marker where the claim uses that evidence", id),
			})
		}
	}

	// Duplicates surface in first-marker order so the report stays
	// deterministic, and cover markers whether or not they were
	// declared as citations.
	for _, id := range markerOrder {
		if seen[id] > 1 {
			issues = append(issues, domain.ValidationIssue{
				Code:           domain.IssueDuplicateMarker,
				Severity:       domain.SeverityLow,
				ClaimName:      claim.Name,
				SentenceIndex:  -1,
				EvidenceUnitID: id,
				Message:        fmt.Sprintf("unit %q is marked %d times in the claim text", id, seen[id]),
			})
		}
	}

	return issues
}
