package verify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	anthropicCircuitThreshold = 5
	anthropicCircuitTimeout   = 1 * time.Minute
	anthropicContentTypeText  = "text"
)

// AnthropicAdjudicator is the alternate remote chat-completion tier,
// behind the same generate contract. It is tried first when
// ADJUDICATOR_BACKEND is "anthropic", and otherwise after
// OpenAIAdjudicator when both are configured.
type AnthropicAdjudicator struct {
	client      anthropic.Client
	model       string
	rateLimiter *rate.Limiter

	mu                  sync.Mutex
	consecutiveFailures int
	circuitOpenUntil    time.Time
}

// NewAnthropicAdjudicator builds a tier against the given model (e.g.
// "claude-haiku-4.5"), rate limited to rps requests/sec.
func NewAnthropicAdjudicator(apiKey, model string, rps float64) *AnthropicAdjudicator {
	if rps <= 0 {
		rps = 1
	}

	return &AnthropicAdjudicator{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 5),
	}
}

func (a *AnthropicAdjudicator) Name() string { return "anthropic" }

func (a *AnthropicAdjudicator) Available(_ context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return time.Now().After(a.circuitOpenUntil)
}

func (a *AnthropicAdjudicator) Generate(ctx context.Context, system, prompt string, maxTokens int, _ float64) (string, error) {
	if !a.Available(ctx) {
		return "", fmt.Errorf("anthropic adjudicator: circuit open until %v", a.circuitOpenUntil)
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("anthropic adjudicator rate limit: %w", err)
	}

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		a.recordFailure()

		return "", fmt.Errorf("anthropic message create: %w", err)
	}

	a.recordSuccess()

	return extractAnthropicText(resp), nil
}

func extractAnthropicText(resp *anthropic.Message) string {
	var sb strings.Builder

	for _, block := range resp.Content {
		if block.Type == anthropicContentTypeText {
			sb.WriteString(block.Text)
		}
	}

	return strings.TrimSpace(sb.String())
}

func (a *AnthropicAdjudicator) recordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.consecutiveFailures = 0
}

func (a *AnthropicAdjudicator) recordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.consecutiveFailures++
	if a.consecutiveFailures >= anthropicCircuitThreshold {
		a.circuitOpenUntil = time.Now().Add(anthropicCircuitTimeout)
	}
}

var _ ports.Adjudicator = (*AnthropicAdjudicator)(nil)
