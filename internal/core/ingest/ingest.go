// Package ingest implements the request-handler flow spec.md §5
// describes for an incoming message: classify, embed, assign to a
// cluster, and — only the first time a cluster is created — run the
// verification orchestrator synchronously before replying. Later
// sightings of an already-verified or still-pending cluster return
// immediately with whatever verdict already exists.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/claim"
	"github.com/clarity-project/claimpipeline/internal/core/cluster"
	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
	"github.com/clarity-project/claimpipeline/internal/core/verify"
)

// MemoryRecorder folds a cluster sighting into the memory graph. It
// must never return an error that aborts ingestion; failures are its
// own concern to log, per spec.md §7's propagation policy.
type MemoryRecorder interface {
	Record(ctx context.Context, clusterID int64, source domain.MessageSource, chatID, userID string, at time.Time)
}

// maxTextLength is the ingestion input bound from spec.md §6.
const maxTextLength = 10000

// ErrRateLimited is returned when a source/chat exceeds its configured
// per-key pacing, per spec.md §5.
var ErrRateLimited = errors.New("ingest: rate limited")

// Retriever gathers evidence for a claim's canonical text.
type Retriever interface {
	Gather(ctx context.Context, claimText string, limit int) []domain.EvidenceItem
}

// Orchestrator produces a verdict from a claim and its evidence.
type Orchestrator interface {
	Verify(ctx context.Context, claimText string, evidence []domain.EvidenceItem) verify.VerdictResult
}

const evidenceLimit = 10

// Input is the ingestion request shape from spec.md §6.
type Input struct {
	Text     string
	Source   domain.MessageSource
	ChatID   string
	UserID   string
	Platform string
}

// Output is the ingestion response shape from spec.md §6.
type Output struct {
	MessageID        int64
	IsClaim          bool
	ClusterID        int64
	ClusterStatus    domain.ClaimStatus
	ShortReply       string
	AudioURL         string
	NeedsVerification bool
}

// Handler wires the detector, embedder, cluster manager, evidence
// retriever, and verification orchestrator into the single ingestion
// entrypoint.
type Handler struct {
	store        ports.Store
	detector     *claim.Detector
	embedder     ports.Embedder
	clusters     *cluster.Manager
	retriever    Retriever
	orchestrator Orchestrator
	memory       MemoryRecorder
	limiter      ports.RateLimiter
	clock        ports.Clock
	logger       *zerolog.Logger
}

// New builds a Handler from its collaborators. memory and limiter may
// both be nil, disabling memory-graph recording and rate limiting
// respectively.
func New(
	store ports.Store,
	detector *claim.Detector,
	embedder ports.Embedder,
	clusters *cluster.Manager,
	retriever Retriever,
	orchestrator Orchestrator,
	memory MemoryRecorder,
	limiter ports.RateLimiter,
	clock ports.Clock,
	logger *zerolog.Logger,
) *Handler {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Handler{
		store:        store,
		detector:     detector,
		embedder:     embedder,
		clusters:     clusters,
		retriever:    retriever,
		orchestrator: orchestrator,
		memory:       memory,
		limiter:      limiter,
		clock:        clock,
		logger:       logger,
	}
}

// Handle runs the full ingestion flow. Cancellation at any point before
// the message is durably saved aborts without creating a cluster or
// persisting a partial message, per spec.md §5.
func (h *Handler) Handle(ctx context.Context, in Input) (Output, error) {
	if h.limiter != nil && !h.limiter.Allow(rateLimitKey(in.Source, in.ChatID)) {
		return Output{}, ErrRateLimited
	}

	text := in.Text
	if len([]rune(text)) > maxTextLength {
		text = string([]rune(text)[:maxTextLength])
	}

	result := h.detector.Classify(ctx, text)

	msg := &domain.Message{
		ExternalID:    uuid.NewString(),
		Text:          text,
		Source:        in.Source,
		ChatID:        in.ChatID,
		UserID:        in.UserID,
		ReceivedAt:    h.clock.Now(),
		IsClaim:       result.IsClaim,
		CanonicalText: result.CanonicalText,
	}

	if !result.IsClaim {
		if ctx.Err() != nil {
			return Output{}, ctx.Err()
		}

		id, err := h.store.SaveMessage(ctx, msg)
		if err != nil {
			return Output{}, fmt.Errorf("save non-claim message: %w", err)
		}

		return Output{MessageID: id, IsClaim: false}, nil
	}

	embedding, err := h.embedder.Embed(ctx, result.CanonicalText)
	if err != nil {
		return Output{}, fmt.Errorf("embed claim: %w", err)
	}

	if ctx.Err() != nil {
		return Output{}, ctx.Err()
	}

	msg.Embedding = embedding

	assignment, err := h.clusters.Assign(ctx, msg, result.CanonicalText, embedding)
	if err != nil {
		return Output{}, fmt.Errorf("assign to cluster: %w", err)
	}

	msg.ClusterID = assignment.Cluster.ID

	if ctx.Err() != nil {
		return Output{}, ctx.Err()
	}

	id, err := h.store.SaveMessage(ctx, msg)
	if err != nil {
		return Output{}, fmt.Errorf("save claim message: %w", err)
	}

	if h.memory != nil {
		h.memory.Record(ctx, msg.ClusterID, msg.Source, msg.ChatID, msg.UserID, msg.ReceivedAt)
	}

	if assignment.Merged {
		return h.outputForExistingCluster(ctx, id, assignment.Cluster.ID)
	}

	return h.verifyFirstSighting(ctx, id, assignment.Cluster)
}

// outputForExistingCluster returns immediately with whatever verdict is
// already on file for a cluster a message merged into.
func (h *Handler) outputForExistingCluster(ctx context.Context, messageID, clusterID int64) (Output, error) {
	verdict, err := h.store.GetVerdict(ctx, clusterID)
	if err != nil {
		return Output{
			MessageID:         messageID,
			IsClaim:           true,
			ClusterID:         clusterID,
			ClusterStatus:     domain.StatusUnknown,
			NeedsVerification: true,
		}, nil
	}

	return Output{
		MessageID:         messageID,
		IsClaim:           true,
		ClusterID:         clusterID,
		ClusterStatus:     verdict.Status,
		ShortReply:        verdict.ShortReply,
		NeedsVerification: verdict.Status == domain.StatusUnknown,
	}, nil
}

// verifyFirstSighting runs the verification orchestrator synchronously
// for a newly created cluster, per spec.md §5.
func (h *Handler) verifyFirstSighting(ctx context.Context, messageID int64, c *domain.Cluster) (Output, error) {
	evidence := h.retriever.Gather(ctx, c.CanonicalText, evidenceLimit)

	if ctx.Err() != nil {
		return Output{
			MessageID:         messageID,
			IsClaim:           true,
			ClusterID:         c.ID,
			ClusterStatus:     domain.StatusUnknown,
			NeedsVerification: true,
		}, ctx.Err()
	}

	result := h.orchestrator.Verify(ctx, c.CanonicalText, evidence)

	now := h.clock.Now()

	var verifiedAt *time.Time
	if result.Status != domain.StatusUnknown {
		verifiedAt = &now
	}

	verdict := &domain.Verdict{
		ClusterID:  c.ID,
		Status:     result.Status,
		Confidence: result.Confidence,
		ShortReply: result.ShortReply,
		LongReply:  result.LongReply,
		Evidence:   result.Sources,
		VerifiedAt: verifiedAt,
	}

	if err := h.store.UpsertVerdict(ctx, verdict, false); err != nil {
		h.logf(err, c.ID)
	}

	return Output{
		MessageID:         messageID,
		IsClaim:           true,
		ClusterID:         c.ID,
		ClusterStatus:     result.Status,
		ShortReply:        result.ShortReply,
		NeedsVerification: result.Status == domain.StatusUnknown,
	}, nil
}

// rateLimitKey scopes pacing to one source+chat pair so a noisy chat on
// one platform cannot starve another.
func rateLimitKey(source domain.MessageSource, chatID string) string {
	return string(source) + ":" + chatID
}

func (h *Handler) logf(err error, clusterID int64) {
	if h.logger == nil {
		return
	}

	h.logger.Error().Err(err).Int64("cluster_id", clusterID).Msg("persist verdict")
}
