package verify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

const maxShortReplyChars = 197

var (
	statusLineRe     = regexp.MustCompile(`(?im)^STATUS:\s*(\S+)`)
	confidenceLineRe = regexp.MustCompile(`(?im)^CONFIDENCE:\s*([0-9.]+)`)
	shortReplyLineRe = regexp.MustCompile(`(?im)^SHORT_REPLY:\s*(.+)$`)
	longReplyBlockRe = regexp.MustCompile(`(?ims)^LONG_REPLY:\s*(.*?)\n\s*SOURCES:`)
	sourcesLineRe    = regexp.MustCompile(`(?ims)^SOURCES:\s*(.+)`)
)

// Result is the parsed shape of an adjudicator's raw text output.
type Result struct {
	Status     domain.ClaimStatus
	Confidence float64
	ShortReply string
	LongReply  string
	Sources    string
}

// Parse regex-extracts each prompt-contract field from raw model
// output. An unrecognized status defaults to UNKNOWN; confidence is
// clamped to [0,1]; the short reply is truncated to 197 characters plus
// an ellipsis. If no fields are recognizable at all, a default UNKNOWN
// result with a neutral message is synthesized.
func Parse(raw string) Result {
	statusMatch := statusLineRe.FindStringSubmatch(raw)
	confMatch := confidenceLineRe.FindStringSubmatch(raw)
	shortMatch := shortReplyLineRe.FindStringSubmatch(raw)
	longMatch := longReplyBlockRe.FindStringSubmatch(raw)
	sourcesMatch := sourcesLineRe.FindStringSubmatch(raw)

	if statusMatch == nil && confMatch == nil && shortMatch == nil {
		return defaultUnknownResult()
	}

	res := Result{Status: domain.StatusUnknown}

	if statusMatch != nil {
		res.Status = parseStatus(statusMatch[1])
	}

	if confMatch != nil {
		if v, err := strconv.ParseFloat(confMatch[1], 64); err == nil {
			res.Confidence = clamp01(v)
		}
	}

	if shortMatch != nil {
		res.ShortReply = truncateReply(strings.TrimSpace(shortMatch[1]))
	}

	if longMatch != nil {
		res.LongReply = strings.TrimSpace(longMatch[1])
	}

	if sourcesMatch != nil {
		res.Sources = strings.TrimSpace(sourcesMatch[1])
	}

	return res
}

func parseStatus(token string) domain.ClaimStatus {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "TRUE":
		return domain.StatusTrue
	case "FALSE":
		return domain.StatusFalse
	case "PARTIALLY_TRUE":
		return domain.StatusPartiallyTrue
	case "MISLEADING":
		return domain.StatusMisleading
	case "UNVERIFIABLE":
		return domain.StatusUnverifiable
	case "UNKNOWN":
		return domain.StatusUnknown
	default:
		return domain.StatusUnknown
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truncateReply(s string) string {
	runes := []rune(s)
	if len(runes) <= maxShortReplyChars {
		return s
	}

	return string(runes[:maxShortReplyChars]) + "…"
}

func defaultUnknownResult() Result {
	return Result{
		Status:     domain.StatusUnknown,
		Confidence: 0,
		ShortReply: "This claim could not be verified with available evidence.",
		LongReply:  "No clear determination could be made from the adjudicator's response.",
	}
}
