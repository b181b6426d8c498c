package claim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_RuleBasedOnly(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	t.Run("greeting is not a claim", func(t *testing.T) {
		res := d.Classify(ctx, "Hello, how are you today?")
		assert.False(t, res.IsClaim)
	})

	t.Run("below minimum length is not a claim", func(t *testing.T) {
		res := d.Classify(ctx, "short")
		assert.False(t, res.IsClaim)
	})

	t.Run("high priority death pattern overrides", func(t *testing.T) {
		res := d.Classify(ctx, "Famous actor was found dead in his home yesterday")
		assert.True(t, res.IsClaim)
	})

	t.Run("rule pattern misinformation claim", func(t *testing.T) {
		res := d.Classify(ctx, "Scientists have discovered that drinking warm water kills coronavirus instantly.")
		require.True(t, res.IsClaim)
		assert.Equal(t, "en", res.Language)
		assert.Contains(t, res.Topics, "health")
	})

	t.Run("generic fact fallback via proper noun and verb", func(t *testing.T) {
		res := d.Classify(ctx, "India has won a bid to host Commonwealth Games 2030.")
		assert.True(t, res.IsClaim)
	})

	t.Run("question is not a claim", func(t *testing.T) {
		res := d.Classify(ctx, "Is it true that the moon landing was faked?")
		assert.False(t, res.IsClaim)
	})
}

func TestClassify_BoundaryLengths(t *testing.T) {
	d := NewDetector(nil)
	ctx := context.Background()

	nine := "123456789"
	assert.Len(t, []rune(nine), 9)
	assert.False(t, d.Classify(ctx, nine).IsClaim)

	over := make([]rune, MaxClaimLength+1)
	for i := range over {
		over[i] = 'a'
	}

	res := d.Classify(ctx, string(over))
	assert.False(t, res.IsClaim)
}

func TestCanonicalize(t *testing.T) {
	in := "FWD: Scientists confirm!!! Share this with everyone https://example.com/a"
	out := Canonicalize(in)

	assert.NotContains(t, out, "FWD")
	assert.NotContains(t, out, "https://")
	assert.NotContains(t, out, "!!!")
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "hi", DetectLanguage("यह एक परीक्षण वाक्य है जो हिंदी में लिखा गया है"))
	assert.Equal(t, "en", DetectLanguage("this is a plain english sentence for testing"))
}

func TestTopics(t *testing.T) {
	assert.Equal(t, []string{"general"}, Topics("nothing matches here at all"))
	assert.Contains(t, Topics("the government announced a new election policy"), "politics")
}

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}

	return []float32{0, 0, 1}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

func TestClassify_SemanticScorePath(t *testing.T) {
	const text = "nothing here trips a rule pattern but vibes like the real story about quiet facts"

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"the real truth about": {1, 0, 0},
		text:                   {1, 0, 0}, // identical direction -> cosine similarity 1.0
	}}

	d := NewDetector(embedder)

	res := d.Classify(context.Background(), text)
	assert.True(t, res.IsClaim, "semantic score of 1.0 against a trigger phrase must clear the threshold")
}
