// Package verify implements the verification orchestrator: coverage
// assessment over retrieved evidence, adjudicator-tier selection, the
// chat prompt contract, output parsing, and the deterministic rebuttal
// template for FALSE verdicts.
package verify

import (
	"strings"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

const minContentWordLength = 3

// Coverage is how much of a claim's content is echoed by the evidence
// snippets gathered for it.
type Coverage string

const (
	CoverageNone   Coverage = "NONE"
	CoverageLow    Coverage = "LOW"
	CoverageMedium Coverage = "MEDIUM"
	CoverageHigh   Coverage = "HIGH"
)

// AssessCoverage tokenizes claimText to content words (length > 3,
// lowercased) and measures what fraction of them appear in the joined
// evidence snippets.
func AssessCoverage(claimText string, evidence []domain.EvidenceItem) Coverage {
	claimTokens := contentWords(claimText)
	if len(claimTokens) == 0 || len(evidence) == 0 {
		return CoverageNone
	}

	var snippets strings.Builder
	for _, e := range evidence {
		snippets.WriteString(e.Snippet)
		snippets.WriteByte(' ')
	}

	snippetTokens := make(map[string]bool)
	for _, w := range contentWords(snippets.String()) {
		snippetTokens[w] = true
	}

	matched := 0

	for _, w := range claimTokens {
		if snippetTokens[w] {
			matched++
		}
	}

	ratio := float64(matched) / float64(len(claimTokens))

	switch {
	case ratio == 0:
		return CoverageNone
	case ratio < 0.2:
		return CoverageLow
	case ratio < 0.5:
		return CoverageMedium
	default:
		return CoverageHigh
	}
}

func contentWords(text string) []string {
	fields := strings.Fields(text)

	out := make([]string, 0, len(fields))

	for _, f := range fields {
		clean := strings.ToLower(strings.Trim(f, ".,!?\"'();:"))
		if len(clean) > minContentWordLength {
			out = append(out, clean)
		}
	}

	return out
}
