package evidence

import (
	"regexp"
	"strings"
)

const minKeywordLength = 4

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "have": true,
	"been": true, "were": true, "will": true, "their": true, "which": true,
	"about": true, "there": true, "these": true, "those": true, "after": true,
	"into": true, "than": true, "them": true, "then": true, "what": true,
	"when": true, "where": true, "would": true, "could": true, "should": true,
}

var properNounToken = regexp.MustCompile(`^[A-Z][a-zA-Z]+$`)

var deathPattern = regexp.MustCompile(`(?i)\b(dead|died|death|killed|passed away)\b`)

// SynthesizeQueries builds up to three search queries plus the raw claim
// text, per spec.md §4.4: a quoted top phrase with "fact check", a
// keyword set with "verification", an entity-focused query when a proper
// noun is present, and a death-specific query for death-type claims.
// Duplicates are dropped, preserving first-seen order.
func SynthesizeQueries(claimText string) []string {
	keywords := contentKeywords(claimText)
	entities := properNouns(claimText)

	var queries []string

	if len(keywords) > 0 {
		queries = append(queries, `"`+keywords[0]+`" fact check`)
	}

	if len(keywords) > 1 {
		end := 3
		if len(keywords) < end {
			end = len(keywords)
		}

		queries = append(queries, strings.Join(keywords[:end], " ")+" verification")
	}

	if len(entities) > 0 {
		queries = append(queries, strings.Join(entities, " "))
	}

	queries = append(queries, claimText)

	if deathPattern.MatchString(claimText) && len(entities) > 0 {
		queries = append(queries, strings.Join(entities, " ")+" death")
	}

	return dedupePreserveOrder(queries)
}

func contentKeywords(text string) []string {
	fields := strings.Fields(text)

	var keywords []string

	for _, f := range fields {
		clean := strings.ToLower(strings.Trim(f, ".,!?\"'();:"))
		if len(clean) > minKeywordLength && !stopwords[clean] {
			keywords = append(keywords, clean)
		}
	}

	return keywords
}

func properNouns(text string) []string {
	fields := strings.Fields(text)

	var out []string

	for i, f := range fields {
		trimmed := strings.Trim(f, ".,!?\"'();:")
		// skip sentence-initial capitalization, unless the next token is also
		// a proper noun (a multi-word name opening the sentence)
		if i == 0 && !(len(fields) > 1 && properNounToken.MatchString(strings.Trim(fields[1], ".,!?\"'();:"))) {
			continue
		}

		if properNounToken.MatchString(trimmed) {
			out = append(out, trimmed)
		}
	}

	return out
}

func dedupePreserveOrder(items []string) []string {
	seen := make(map[string]bool, len(items))

	out := make([]string, 0, len(items))

	for _, it := range items {
		key := strings.ToLower(strings.TrimSpace(it))
		if key == "" || seen[key] {
			continue
		}

		seen[key] = true

		out = append(out, it)
	}

	return out
}
