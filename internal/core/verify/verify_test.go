package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

func TestAssessCoverage(t *testing.T) {
	assert.Equal(t, CoverageNone, AssessCoverage("claim text", nil))

	evidence := []domain.EvidenceItem{{Snippet: "completely unrelated snippet about weather"}}
	assert.Equal(t, CoverageNone, AssessCoverage("vaccines cause autism", evidence))

	evidence = []domain.EvidenceItem{{Snippet: "studies show vaccines do not cause autism in children"}}
	cov := AssessCoverage("vaccines cause autism in children everywhere", evidence)
	assert.NotEqual(t, CoverageNone, cov)
}

func TestParse_WellFormedResponse(t *testing.T) {
	raw := "STATUS: FALSE\nCONFIDENCE: 0.9\nSHORT_REPLY: This is false.\nLONG_REPLY: Multiple\nlines\nof explanation.\nSOURCES: who.int"

	res := Parse(raw)
	assert.Equal(t, domain.StatusFalse, res.Status)
	assert.InDelta(t, 0.9, res.Confidence, 1e-9)
	assert.Equal(t, "This is false.", res.ShortReply)
	assert.Contains(t, res.LongReply, "Multiple")
	assert.Equal(t, "who.int", res.Sources)
}

func TestParse_ConfidenceClampedAndUnknownStatus(t *testing.T) {
	raw := "STATUS: BOGUS\nCONFIDENCE: 5\nSHORT_REPLY: x\nLONG_REPLY: y\nSOURCES: z"

	res := Parse(raw)
	assert.Equal(t, domain.StatusUnknown, res.Status)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)
}

func TestParse_UnparseableOutputSynthesizesDefault(t *testing.T) {
	res := Parse("the model rambled about something unrelated")
	assert.Equal(t, domain.StatusUnknown, res.Status)
	assert.NotEmpty(t, res.ShortReply)
}

func TestParse_ShortReplyTruncatedAt197(t *testing.T) {
	long := ""
	for i := 0; i < 60; i++ {
		long += "abcd "
	}

	raw := "STATUS: TRUE\nCONFIDENCE: 0.5\nSHORT_REPLY: " + long + "\nLONG_REPLY: y\nSOURCES: z"
	res := Parse(raw)

	runes := []rune(res.ShortReply)
	assert.LessOrEqual(t, len(runes), 198)
	assert.Contains(t, res.ShortReply, "…")
}

func TestAssembleRebuttal(t *testing.T) {
	out := AssembleRebuttal("the earth is flat", "the earth is an oblate spheroid", "nasa.gov")
	assert.Contains(t, out, "STATUS: FALSE")
	assert.Contains(t, out, "MYTH: the earth is flat")
	assert.Contains(t, out, "DO NOT FORWARD")
	assert.Contains(t, out, "nasa.gov")
}

type fakeAdjudicator struct {
	name      string
	available bool
	response  string
	err       error
}

func (f *fakeAdjudicator) Name() string                          { return f.name }
func (f *fakeAdjudicator) Available(_ context.Context) bool      { return f.available }
func (f *fakeAdjudicator) Generate(_ context.Context, _, _ string, _ int, _ float64) (string, error) {
	return f.response, f.err
}

var _ ports.Adjudicator = (*fakeAdjudicator)(nil)

func TestOrchestrator_SelectsFirstAvailableTier(t *testing.T) {
	unavailable := &fakeAdjudicator{name: "tier1", available: false}
	available := &fakeAdjudicator{name: "tier2", available: true, response: "STATUS: TRUE\nCONFIDENCE: 0.9\nSHORT_REPLY: ok\nLONG_REPLY: ok\nSOURCES: x"}

	orch := New([]ports.Adjudicator{unavailable, available}, nil)
	result := orch.Verify(context.Background(), "some claim with evidence", nil)

	assert.Equal(t, domain.StatusTrue, result.Status)
}

func TestOrchestrator_FalseVerdictGetsRebuttalTemplate(t *testing.T) {
	adj := &fakeAdjudicator{
		name:      "tier1",
		available: true,
		response:  "STATUS: FALSE\nCONFIDENCE: 0.9\nSHORT_REPLY: claim is false\nLONG_REPLY: details\nSOURCES: who.int",
	}

	orch := New([]ports.Adjudicator{adj}, nil)
	result := orch.Verify(context.Background(), "drinking hot water cures coronavirus", nil)

	require.Equal(t, domain.StatusFalse, result.Status)
	assert.Contains(t, result.ShortReply, "DO NOT FORWARD")
}

func TestOrchestrator_NoTierAvailableReturnsUnknown(t *testing.T) {
	orch := New([]ports.Adjudicator{&fakeAdjudicator{name: "tier1", available: false}}, nil)
	result := orch.Verify(context.Background(), "some claim", nil)

	assert.Equal(t, domain.StatusUnknown, result.Status)
}

func TestRuleBasedAdjudicator_RecognizesKnownFalsePattern(t *testing.T) {
	a := NewRuleBasedAdjudicator()
	prompt := BuildPrompt("drinking hot water kills coronavirus", CoverageNone, nil)

	out, err := a.Generate(context.Background(), systemPrompt, prompt, unifiedMaxTokens, unifiedTemperature)
	require.NoError(t, err)

	parsed := Parse(out)
	assert.Equal(t, domain.StatusFalse, parsed.Status)
}

func TestRuleBasedAdjudicator_UnknownForNovelClaim(t *testing.T) {
	a := NewRuleBasedAdjudicator()
	prompt := BuildPrompt("a new bridge opened in the city today", CoverageNone, nil)

	out, err := a.Generate(context.Background(), systemPrompt, prompt, unifiedMaxTokens, unifiedTemperature)
	require.NoError(t, err)

	parsed := Parse(out)
	assert.Equal(t, domain.StatusUnknown, parsed.Status)
}
