package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	geminiStageMaxTokensStatus = 16
	geminiStageMaxTokensShort  = 128
	geminiStageMaxTokensLong   = 512
)

// GeminiAdjudicator is the second tier: a managed model queried in
// three small stages (status, short reply, long reply) rather than one
// large structured call, matching a lower-capability local/managed
// model's reliability profile better than a single combined prompt.
type GeminiAdjudicator struct {
	client      *genai.Client
	model       string
	rateLimiter *rate.Limiter
}

// NewGeminiAdjudicator builds the staged tier against the given model
// (e.g. "gemini-2.0-flash-lite").
func NewGeminiAdjudicator(ctx context.Context, apiKey, model string, rps float64) (*GeminiAdjudicator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	if rps <= 0 {
		rps = 1
	}

	return &GeminiAdjudicator{
		client:      client,
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 5),
	}, nil
}

func (a *GeminiAdjudicator) Name() string { return "gemini" }

func (a *GeminiAdjudicator) Available(_ context.Context) bool {
	return a.client != nil
}

// Generate ignores the combined system+prompt contract and instead runs
// three sequential calls against the same underlying claim/evidence
// context embedded in prompt, stitching the prompt-contract lines back
// together so the caller's Parse still works unmodified.
func (a *GeminiAdjudicator) Generate(ctx context.Context, system, prompt string, _ int, _ float64) (string, error) {
	status, err := a.stage(ctx, system+"\n\n"+prompt+"\n\nRespond with only the STATUS value.", geminiStageMaxTokensStatus)
	if err != nil {
		return "", fmt.Errorf("gemini status stage: %w", err)
	}

	short, err := a.stage(ctx, system+"\n\n"+prompt+"\n\nRespond with only the SHORT_REPLY value, one line.", geminiStageMaxTokensShort)
	if err != nil {
		return "", fmt.Errorf("gemini short stage: %w", err)
	}

	long, err := a.stage(ctx, system+"\n\n"+prompt+"\n\nRespond with only the LONG_REPLY value.", geminiStageMaxTokensLong)
	if err != nil {
		return "", fmt.Errorf("gemini long stage: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "STATUS: %s\n", strings.TrimSpace(status))
	sb.WriteString("CONFIDENCE: 0.5\n")
	fmt.Fprintf(&sb, "SHORT_REPLY: %s\n", strings.TrimSpace(short))
	fmt.Fprintf(&sb, "LONG_REPLY: %s\n", strings.TrimSpace(long))
	sb.WriteString("SOURCES: \n")

	return sb.String(), nil
}

func (a *GeminiAdjudicator) stage(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	genModel := a.client.GenerativeModel(a.model)
	genModel.MaxOutputTokens = &maxTokens

	resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	return extractGeminiText(resp), nil
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder

	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}

		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	return sb.String()
}

var _ ports.Adjudicator = (*GeminiAdjudicator)(nil)
