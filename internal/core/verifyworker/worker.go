// Package verifyworker implements spec.md §4.7's periodic verification
// loop: each tick takes a small batch of UNKNOWN-status clusters, runs
// the evidence retriever and verification orchestrator against each,
// and persists the resulting verdict. A failure on one cluster is
// logged and does not abort the tick.
package verifyworker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
	"github.com/clarity-project/claimpipeline/internal/core/verify"
)

// DefaultInterval is the default tick period.
const DefaultInterval = 60 * time.Second

// DefaultBatchSize is the default number of clusters verified per tick.
const DefaultBatchSize = 5

// evidenceLimit caps the evidence items gathered per claim before
// handing them to the orchestrator, matching spec.md §4.4's ≤10 cap.
const evidenceLimit = 10

// Retriever gathers evidence for a claim's canonical text.
type Retriever interface {
	Gather(ctx context.Context, claimText string, limit int) []domain.EvidenceItem
}

// Orchestrator produces a verdict from a claim and its evidence.
type Orchestrator interface {
	Verify(ctx context.Context, claimText string, evidence []domain.EvidenceItem) verify.VerdictResult
}

// Worker drives one verification tick at a time.
type Worker struct {
	store        ports.Store
	retriever    Retriever
	orchestrator Orchestrator
	clock        ports.Clock
	logger       *zerolog.Logger
	batchSize    int
}

// New builds a Worker. batchSize <= 0 uses DefaultBatchSize.
func New(store ports.Store, retriever Retriever, orchestrator Orchestrator, clock ports.Clock, logger *zerolog.Logger, batchSize int) *Worker {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Worker{
		store:        store,
		retriever:    retriever,
		orchestrator: orchestrator,
		clock:        clock,
		logger:       logger,
		batchSize:    batchSize,
	}
}

// Tick processes up to the configured batch size of pending clusters.
// Errors on individual clusters are logged and do not stop the tick.
func (w *Worker) Tick(ctx context.Context) {
	pending, err := w.store.PendingClusters(ctx, w.batchSize)
	if err != nil {
		w.logf(func(e *zerolog.Event) { e.Err(err).Msg("list pending clusters") })

		return
	}

	for _, c := range pending {
		if err := w.verifyCluster(ctx, c); err != nil {
			w.logf(func(e *zerolog.Event) { e.Err(err).Int64("cluster_id", c.ID).Msg("verify cluster") })
		}
	}
}

func (w *Worker) verifyCluster(ctx context.Context, c *domain.Cluster) error {
	evidence := w.retriever.Gather(ctx, c.CanonicalText, evidenceLimit)

	result := w.orchestrator.Verify(ctx, c.CanonicalText, evidence)

	now := w.clock.Now()

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

	if err := w.store.UpsertVerdict(ctx, verdict, false); err != nil {
		return fmt.Errorf("upsert verdict for cluster %d: %w", c.ID, err)
	}

	return nil
}

func (w *Worker) logf(emit func(*zerolog.Event)) {
	if w.logger == nil {
		return
	}

	emit(w.logger.Error())
}
