package claim

import "regexp"

// Minimum and maximum text length to be considered a potential claim.
const (
	MinClaimLength = 10
	MaxClaimLength = 5000

	// claimScoreThreshold is the decision threshold both the rule-based and
	// semantic scores are compared against.
	claimScoreThreshold = 0.3

	// semanticCutoff zeroes out any semantic score below this similarity.
	semanticCutoff = 0.3

	// ruleScoreDivisor normalizes the rule-pattern match count into [0,1].
	ruleScoreDivisor = 3.0
)

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}

	return out
}

// highPriorityPatterns always classify as a claim regardless of other
// heuristics — death/killed/passed-away style announcements.
var highPriorityPatterns = compileAll([]string{
	`\b(is dead|has died|was found dead|has been found dead|passed away|died in|died at|was killed in|killed in)\b`,
	`\b(declared dead|pronounced dead)\b`,
})

// claimPatterns are rule-based signals that a sentence is a verifiable
// assertion rather than idle chat.
var claimPatterns = compileAll([]string{
	`\b(is|are|was|were|will be|has been|have been)\s+(proven|confirmed|discovered|revealed|shown)\b`,
	`\b(causes?|prevents?|cures?|kills?|protects?)\s+\w+`,
	`\b(always|never|100%|guaranteed|definitely|certainly)\b`,
	`\b(urgent|breaking|alert|warning|danger|shocking|incredible)\b`,
	`\b(share this|forward|must read|everyone should know)\b`,
	`\b(cyclone|hurricane|typhoon|storm|earthquake|tsunami|floods?|landslides?)\b`,
	`\b(red|orange|yellow)\s+alert(s)?\b`,
	`\b(alert(s)?\s+issued|warning(s)?\s+issued)\b`,
	`\b(evacuate|evacuation|take shelter|seek shelter|emergency)\b`,
	`\b(death toll|casualties|injured|missing persons?)\b`,
	`\b(magnitude|intensity|category|level)\s+\d+\b`,
	`\bearth\s+is\s+flat\b`,
	`\bscam\b`,
	`\bhoax\b`,
	`\bconspiracy\b`,
	`\b(vaccine|vaccination|covid|corona|virus|treatment|cure|medicine|drug)\b`,
	`\b(cancer|disease|illness|symptoms|side effects)\b`,
	`\b(government|they|officials|elites?|billionaires?)\s+(is|are|wants?|hid(e|ing)?|cover)`,
	`\b(secret|hidden|suppressed|censored|banned)\b`,
	`\b(don't want you to know|wake up|truth|exposed|leaked)\b`,
	`\b\d+\s*(%|percent|times|x)\s*(more|less|higher|lower|better|worse)\b`,
	`\b(study|research|survey|poll)\s+(shows?|finds?|reveals?|proves?)\b`,
	`\b(scientists?|doctors?|experts?|researchers?|professors?)\s+(say|claim|confirm|discover)\b`,
	`\b(according to|based on|sources? say|reports? indicate)\b`,
})

// nonClaimPatterns are hedges, questions and chatter that zero the rule
// score outright.
var nonClaimPatterns = compileAll([]string{
	`^\s*(what|who|where|when|why|how|is|are|do|does|did|can|could|would|should)\s+.+\?\s*$`,
	`\b(i think|i believe|in my opinion|personally|i feel|seems to me)\b`,
	`\b(maybe|perhaps|might|could be|possibly|i wonder)\b`,
	`^\s*(hi|hello|hey|good morning|good evening|thanks|thank you)\b`,
	`^\s*(lol|haha|hehe|😂|🤣|😆)\b`,
})

// claimTriggerPhrases is the fixed corpus the semantic score compares the
// input against — a mix of misinformation templates and neutral/newsy
// factual templates, so that non-sensational news still scores.
var claimTriggerPhrases = []string{
	"scientists have discovered that",
	"studies prove that",
	"research shows that",
	"experts confirm that",
	"it has been proven that",
	"the government is hiding",
	"they don't want you to know",
	"breaking news reveals",
	"leaked documents show",
	"this cure will",
	"this treatment prevents",
	"vaccines cause",
	"this food causes cancer",
	"eating this will cure",
	"drinking this prevents",
	"the real truth about",
	"what they're not telling you",
	"exposed: the truth about",
	"fact: this actually",
	"warning: this common",
	"urgent: new evidence shows",
	"confirmed: government admits",
	"exposed: secret plan to",
	"shocking discovery reveals",
	"doctors are hiding this",

	"X has won the election",
	"X has been elected as the president",
	"X has been appointed as the new CEO",
	"X will host the World Cup in 2030",
	"India will host the Commonwealth Games",
	"the government has announced a new policy",
	"the central bank has increased interest rates",
	"inflation has risen to 7 percent",
	"the unemployment rate has fallen",
	"India has signed a new trade agreement",
	"the court has ruled that",
	"the company reported record profits",
}

var fallbackAuxiliaryVerb = regexp.MustCompile(`(?i)\b(is|are|was|were|has|have|had|will|shall|won|lost)\b`)

var fallbackNumberToken = regexp.MustCompile(`\b\d{2,4}\b`)

var fallbackCapitalizedToken = regexp.MustCompile(`^[A-Z][a-zA-Z]+$`)

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}

	return false
}
