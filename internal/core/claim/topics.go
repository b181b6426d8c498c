package claim

import (
	"strings"

	"golang.org/x/text/cases"
)

var topicFolder = cases.Fold()

// topicKeywords maps each domain tag to the keywords that trigger it; Topics
// walks it in topicOrder. A text may carry more than one topic.
var topicKeywords = map[string][]string{
	"health":         {"vaccine", "covid", "corona", "virus", "medicine", "cure", "treatment", "disease", "health", "hospital", "doctor"},
	"politics":       {"government", "election", "politician", "minister", "party", "vote", "parliament", "law", "policy"},
	"science":        {"research", "study", "scientist", "discovery", "experiment", "technology", "climate", "environment"},
	"finance":        {"money", "bank", "economy", "tax", "investment", "stock", "bitcoin", "crypto", "loan"},
	"social":         {"religion", "caste", "community", "riot", "protest", "violence", "discrimination"},
	"disaster":       {"earthquake", "flood", "cyclone", "tsunami", "fire", "accident", "emergency"},
	"food":           {"food", "water", "nutrition", "diet", "eating", "drinking", "organic"},
	"technology":     {"phone", "internet", "5g", "radiation", "hacking", "privacy", "data", "whatsapp", "app"},
	"misinformation": {"hoax", "fake", "forward", "share", "urgent", "breaking", "secret", "exposed", "truth"},
}

// topicOrder fixes iteration order so callers get deterministic output.
var topicOrder = []string{
	"health", "politics", "science", "finance", "social", "disaster", "food", "technology", "misinformation",
}

// Topics extracts the domain tags present in text, defaulting to
// ["general"] when none of the keyword tables match.
func Topics(text string) []string {
	lower := topicFolder.String(text)

	var topics []string

	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				topics = append(topics, topic)
				break
			}
		}
	}

	if len(topics) == 0 {
		return []string{"general"}
	}

	return topics
}
