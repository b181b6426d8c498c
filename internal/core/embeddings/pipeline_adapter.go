package embeddings

import (
	"context"
	"math"
)

// maxEmbedInputLength is the character cap applied before encoding, matching
// the truncation the claim detector and cluster manager both rely on.
const maxEmbedInputLength = 5000

// PipelineEmbedder adapts a Registry to the ports.Embedder contract: it
// truncates oversized inputs and normalizes every returned vector to unit
// length, since the vector index relies on inner product equaling cosine
// similarity.
type PipelineEmbedder struct {
	registry *Registry
}

// NewPipelineEmbedder wraps registry for use as a ports.Embedder.
func NewPipelineEmbedder(registry *Registry) *PipelineEmbedder {
	return &PipelineEmbedder{registry: registry}
}

// Embed truncates and encodes a single text, returning a unit-norm vector.
func (e *PipelineEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := e.registry.GetEmbedding(ctx, truncate(text))
	if err != nil {
		return nil, err
	}

	return normalize(vec), nil
}

// EmbedBatch encodes each text independently; the donor registry has no
// native batch endpoint, so this issues sequential calls.
func (e *PipelineEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}

		out[i] = vec
	}

	return out, nil
}

// Dimensions returns the registry's configured target dimension.
func (e *PipelineEmbedder) Dimensions() int {
	return e.registry.targetDimension
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxEmbedInputLength {
		return text
	}

	return string(runes[:maxEmbedInputLength])
}

func normalize(vec []float32) []float32 {
	var sumSquares float64

	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}

	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return vec
	}

	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / norm)
	}

	return out
}
