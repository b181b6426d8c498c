package claim

import "regexp"

// scriptRange pairs a Unicode block with the ISO 639-1 code it implies.
type scriptRange struct {
	pattern *regexp.Regexp
	code    string
}

// scriptRanges are checked in order; the first script block found in the
// text wins. Anything left over defaults to Latin/English.
var scriptRanges = []scriptRange{
	{regexp.MustCompile(`[\x{0900}-\x{097F}]`), "hi"}, // Devanagari
	{regexp.MustCompile(`[\x{0B80}-\x{0BFF}]`), "ta"}, // Tamil
	{regexp.MustCompile(`[\x{0C00}-\x{0C7F}]`), "te"}, // Telugu
	{regexp.MustCompile(`[\x{0980}-\x{09FF}]`), "bn"}, // Bengali
	{regexp.MustCompile(`[\x{0D00}-\x{0D7F}]`), "ml"}, // Malayalam
	{regexp.MustCompile(`[\x{0C80}-\x{0CFF}]`), "kn"}, // Kannada
	{regexp.MustCompile(`[\x{0A80}-\x{0AFF}]`), "gu"}, // Gujarati
	{regexp.MustCompile(`[\x{0600}-\x{06FF}]`), "ur"}, // Arabic (Urdu)
}

// DetectLanguage maps text onto the ISO 639-1 code of the first script in
// scriptRanges that occurs anywhere in it.
// Text shorter than MinClaimLength is assumed English.
func DetectLanguage(text string) string {
	if len([]rune(text)) < MinClaimLength {
		return "en"
	}

	for _, sr := range scriptRanges {
		if sr.pattern.MatchString(text) {
			return sr.code
		}
	}

	return "en"
}
