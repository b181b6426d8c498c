package verify

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

// VerdictResult is the orchestrator's output contract.
type VerdictResult struct {
	Status     domain.ClaimStatus
	Confidence float64
	ShortReply string
	LongReply  string
	Sources    []domain.EvidenceItem
}

// Orchestrator selects the first available adjudicator tier (in
// priority order) and runs the coverage → prompt → generate → parse →
// rebuttal pipeline.
type Orchestrator struct {
	tiers  []ports.Adjudicator
	logger *zerolog.Logger
}

// New builds an Orchestrator trying tiers in the given order: a
// capable remote chat-completion endpoint first, then a staged model
// served remotely through the Gemini API (no locally hosted model), then
// a deterministic rule-based fallback.
func New(tiers []ports.Adjudicator, logger *zerolog.Logger) *Orchestrator {
	return &Orchestrator{tiers: tiers, logger: logger}
}

// Verify runs the full adjudication pipeline for a canonical claim
// against its gathered evidence.
func (o *Orchestrator) Verify(ctx context.Context, claimText string, evidence []domain.EvidenceItem) VerdictResult {
	coverage := AssessCoverage(claimText, evidence)
	prompt := BuildPrompt(claimText, coverage, evidence)

	adjudicator := o.selectTier(ctx)
	if adjudicator == nil {
		if o.logger != nil {
			o.logger.Error().Msg("no adjudicator tier available")
		}

		return toVerdictResult(defaultUnknownResult(), evidence)
	}

	raw, err := adjudicator.Generate(ctx, systemPrompt, prompt, unifiedMaxTokens, unifiedTemperature)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn().Err(err).Str("adjudicator", adjudicator.Name()).Msg("adjudicator call failed")
		}

		return toVerdictResult(defaultUnknownResult(), evidence)
	}

	parsed := Parse(raw)

	if parsed.Status == domain.StatusFalse {
		parsed.ShortReply = AssembleRebuttal(claimText, parsed.ShortReply, parsed.Sources)
	}

	return toVerdictResult(parsed, evidence)
}

func (o *Orchestrator) selectTier(ctx context.Context) ports.Adjudicator {
	for _, t := range o.tiers {
		if t.Available(ctx) {
			return t
		}
	}

	return nil
}

func toVerdictResult(r Result, evidence []domain.EvidenceItem) VerdictResult {
	return VerdictResult{
		Status:     r.Status,
		Confidence: r.Confidence,
		ShortReply: r.ShortReply,
		LongReply:  r.LongReply,
		Sources:    evidence,
	}
}

// externalCallTimeout bounds a single adjudicator call, per the
// ≤120s budget for verification external calls.
const externalCallTimeout = 120 * time.Second

// WithTimeout wraps ctx with the adjudicator call budget.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, externalCallTimeout)
}
