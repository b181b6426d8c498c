// Package claim implements the detector component of the pipeline:
// classifying ingested text as a verifiable claim or not, extracting its
// canonical form, detecting its language, and tagging its topics.
package claim

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

// Result is the detector's classify output.
type Result struct {
	IsClaim       bool
	CanonicalText string
	Language      string
	Topics        []string
}

// Detector classifies text using the hybrid rule/semantic algorithm. A nil
// Embedder disables the semantic score and falls back to rules only.
type Detector struct {
	embedder ports.Embedder

	mu               sync.Mutex
	triggerEmbedded  bool
	triggerEmbedding [][]float32
}

// NewDetector builds a Detector backed by the given embedder. Pass nil to
// run rule-based classification only.
func NewDetector(embedder ports.Embedder) *Detector {
	return &Detector{embedder: embedder}
}

// Classify implements spec.md §4.1: hard overrides, rule score, semantic
// score, threshold decision, and the generic-fact fallback heuristic.
func (d *Detector) Classify(ctx context.Context, text string) Result {
	trimmed := strings.TrimSpace(text)

	if len([]rune(trimmed)) < MinClaimLength {
		return Result{}
	}

	isClaim := d.isClaim(ctx, trimmed)
	if !isClaim {
		return Result{IsClaim: false}
	}

	return Result{
		IsClaim:       true,
		CanonicalText: Canonicalize(trimmed),
		Language:      DetectLanguage(trimmed),
		Topics:        Topics(trimmed),
	}
}

func (d *Detector) isClaim(ctx context.Context, text string) bool {
	if isHighPriorityClaim(text) {
		return true
	}

	ruleScore := ruleBasedScore(text)
	semScore := d.semanticScore(ctx, text)

	if max(ruleScore, semScore) >= claimScoreThreshold {
		return true
	}

	return looksLikeGenericFact(text)
}

func isHighPriorityClaim(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if len([]rune(lower)) < MinClaimLength {
		return false
	}

	return matchesAny(highPriorityPatterns, lower)
}

func ruleBasedScore(text string) float64 {
	lower := strings.ToLower(strings.TrimSpace(text))

	n := len([]rune(lower))
	if n < MinClaimLength || n > MaxClaimLength {
		return 0
	}

	if matchesAny(nonClaimPatterns, lower) {
		return 0
	}

	matches := 0

	for _, p := range claimPatterns {
		if p.MatchString(lower) {
			matches++
		}
	}

	score := float64(matches) / ruleScoreDivisor
	if score > 1.0 {
		score = 1.0
	}

	return score
}

// semanticScore encodes text and compares it to the cached trigger-phrase
// corpus by cosine similarity, clipped to 0 below semanticCutoff. Any
// embedding failure (including a nil embedder) degrades to 0, matching the
// original's "semantic scoring unavailable" fallback.
func (d *Detector) semanticScore(ctx context.Context, text string) float64 {
	if d.embedder == nil {
		return 0
	}

	triggers, ok := d.triggerEmbeddings(ctx)
	if !ok {
		return 0
	}

	vec, err := d.embedder.Embed(ctx, text)
	if err != nil {
		return 0
	}

	var maxSim float64

	for _, t := range triggers {
		if sim := cosine(vec, t); sim > maxSim {
			maxSim = sim
		}
	}

	if maxSim < semanticCutoff {
		return 0
	}

	if maxSim > 1.0 {
		return 1.0
	}

	return maxSim
}

func (d *Detector) triggerEmbeddings(ctx context.Context) ([][]float32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.triggerEmbedded {
		return d.triggerEmbedding, len(d.triggerEmbedding) > 0
	}

	embeddings, err := d.embedder.EmbedBatch(ctx, claimTriggerPhrases)
	d.triggerEmbedded = true

	if err != nil {
		return nil, false
	}

	d.triggerEmbedding = embeddings

	return embeddings, true
}

func looksLikeGenericFact(text string) bool {
	t := strings.TrimSpace(text)
	if strings.HasSuffix(t, "?") {
		return false
	}

	if matchesAny(nonClaimPatterns, strings.ToLower(t)) {
		return false
	}

	if !fallbackAuxiliaryVerb.MatchString(t) {
		return false
	}

	tokens := strings.Fields(t)
	if len(tokens) < 5 {
		return false
	}

	hasNumber := fallbackNumberToken.MatchString(t)
	hasProperNoun := false

	for _, tok := range tokens {
		if fallbackCapitalizedToken.MatchString(tok) {
			hasProperNoun = true
			break
		}
	}

	return hasProperNoun || hasNumber
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
