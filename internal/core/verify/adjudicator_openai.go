package verify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	openaiCircuitThreshold = 5
	openaiCircuitTimeout   = 1 * time.Minute
)

// OpenAIAdjudicator is the primary remote chat-completion tier.
type OpenAIAdjudicator struct {
	client      *openai.Client
	model       string
	rateLimiter *rate.Limiter

	mu                  sync.Mutex
	consecutiveFailures int
	circuitOpenUntil    time.Time
}

// NewOpenAIAdjudicator builds a tier against the given model (e.g.
// openai.GPT4oMini), rate limited to rps requests/sec.
func NewOpenAIAdjudicator(apiKey, model string, rps float64) *OpenAIAdjudicator {
	if rps <= 0 {
		rps = 1
	}

	return &OpenAIAdjudicator{
		client:      openai.NewClient(apiKey),
		model:       model,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 5),
	}
}

func (a *OpenAIAdjudicator) Name() string { return "openai" }

func (a *OpenAIAdjudicator) Available(_ context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return time.Now().After(a.circuitOpenUntil)
}

func (a *OpenAIAdjudicator) Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error) {
	if !a.Available(ctx) {
		return "", fmt.Errorf("openai adjudicator: circuit open until %v", a.circuitOpenUntil)
	}

	if err := a.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("openai adjudicator rate limit: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: float32(temperature),
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		a.recordFailure()

		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	a.recordSuccess()

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat completion: empty choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (a *OpenAIAdjudicator) recordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.consecutiveFailures = 0
}

func (a *OpenAIAdjudicator) recordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.consecutiveFailures++
	if a.consecutiveFailures >= openaiCircuitThreshold {
		a.circuitOpenUntil = time.Now().Add(openaiCircuitTimeout)
	}
}

var _ ports.Adjudicator = (*OpenAIAdjudicator)(nil)
