package claim

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const canonicalTruncateLength = 500

var forwardPrefixes = compileAll([]string{
	`^(fwd?|fw|forwarded?|shared?):\s*`,
	`^(re|reply):\s*`,
	`^\*+\s*forwarded\s+message\s*\*+\s*`,
	`^-+\s*forwarded\s+message\s*-+\s*`,
})

var (
	httpURLPattern = regexp.MustCompile(`(?i)https?://\S+`)
	wwwURLPattern  = regexp.MustCompile(`(?i)www\.\S+`)
)

var ctaPatterns = compileAll([]string{
	`\b(share|forward|send)\s+(this|to|with)\s+.{0,50}$`,
	`\b(please|pls)\s+(share|forward|spread)\b`,
	`\b(must|have to|should)\s+(read|watch|see|share)\b`,
	`(spread\s+the\s+word|pass\s+it\s+on)`,
})

var (
	repeatedBangPattern = regexp.MustCompile(`[!?]{2,}`)
	repeatedDotPattern  = regexp.MustCompile(`\.{2,}`)
	emojiPattern        = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}]+`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
	sentenceSplit       = regexp.MustCompile(`[.!?]+`)
)

// Canonicalize strips forwarding prefixes, URLs, call-to-action tails,
// emoji, and repeated punctuation from text and collapses whitespace. A
// result longer than canonicalTruncateLength runes is cut back to the
// complete sentences within its first 600 runes (which may still exceed
// canonicalTruncateLength), or, when that span has no sentence boundary,
// to canonicalTruncateLength runes plus "...".
func Canonicalize(text string) string {
	if text == "" {
		return ""
	}

	canonical := norm.NFC.String(strings.TrimSpace(text))

	for _, p := range forwardPrefixes {
		canonical = p.ReplaceAllString(canonical, "")
	}

	canonical = httpURLPattern.ReplaceAllString(canonical, "")
	canonical = wwwURLPattern.ReplaceAllString(canonical, "")

	for _, p := range ctaPatterns {
		canonical = p.ReplaceAllString(canonical, "")
	}

	canonical = repeatedBangPattern.ReplaceAllString(canonical, ".")
	canonical = repeatedDotPattern.ReplaceAllString(canonical, ".")
	canonical = emojiPattern.ReplaceAllString(canonical, "")
	canonical = strings.TrimSpace(whitespacePattern.ReplaceAllString(canonical, " "))

	if len([]rune(canonical)) > canonicalTruncateLength {
		canonical = truncateOnSentenceBoundary(canonical)
	}

	return canonical
}

func truncateOnSentenceBoundary(canonical string) string {
	runes := []rune(canonical)
	head := string(runes[:min(len(runes), 600)])

	sentences := sentenceSplit.Split(head, -1)

	if len(sentences) > 1 {
		return strings.Join(sentences[:len(sentences)-1], ". ") + "."
	}

	runes = []rune(canonical)

	return string(runes[:canonicalTruncateLength]) + "..."
}
