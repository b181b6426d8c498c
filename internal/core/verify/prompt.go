package verify

import (
	"fmt"
	"strings"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// systemPrompt is the adjudication rubric, passed verbatim as the
// system message to every adjudicator tier.
const systemPrompt = `You are a fact-checking adjudicator. Apply this rubric strictly:
- Mark FALSE only with clear, direct evidence the claim is wrong.
- Mark TRUE when evidence strongly supports the claim.
- Mark PARTIALLY_TRUE when the core idea is supported but specific details (date, number, location) are unconfirmed.
- Mark MISLEADING when the claim mixes truth with exaggeration or missing context.
- Mark UNKNOWN or UNVERIFIABLE when coverage is NONE/LOW and there is no direct refutation. Absence of evidence must never be construed as FALSE.

Respond with exactly these lines and nothing else:
STATUS: <TRUE|FALSE|PARTIALLY_TRUE|MISLEADING|UNKNOWN|UNVERIFIABLE>
CONFIDENCE: <0.0-1.0>
SHORT_REPLY: <single line>
LONG_REPLY: <multi-line until SOURCES:>
SOURCES: <free text>`

const (
	unifiedTemperature = 0.3
	unifiedMaxTokens   = 2000
)

// BuildPrompt injects the claim, its coverage label, and numbered
// evidence snippets into the user prompt half of the contract.
func BuildPrompt(claimText string, coverage Coverage, evidence []domain.EvidenceItem) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "CLAIM: %s\n", claimText)
	fmt.Fprintf(&sb, "EVIDENCE COVERAGE: %s\n", coverage)

	if len(evidence) == 0 {
		sb.WriteString("SNIPPETS: (none retrieved)\n")
	} else {
		sb.WriteString("SNIPPETS:\n")

		for i, e := range evidence {
			fmt.Fprintf(&sb, "[%d] (%s) %s\n", i+1, e.Domain, e.Snippet)
		}
	}

	return sb.String()
}
