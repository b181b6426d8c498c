// Package memory wires the in-process claim graph (internal/core/graph)
// to durable storage: every sighting is appended to the relational
// store and folded into the graph's node set and spike history, and
// clusters a chat activates close together in time accumulate a
// co-activation edge. Spec.md §7's propagation policy applies here
// unmodified: any failure in this path is logged and dropped, never
// surfacing as an ingestion error.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/graph"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	coActivationWindow = 10 * time.Minute
	coActivationWeight = 1.0
	recentClustersCap  = 50
	sightingHistoryCap = 200
)

// Service records sightings against the memory graph and persists the
// resulting nodes, spikes, and co-activation edges through Store.
type Service struct {
	graph  *graph.Graph
	store  ports.Store
	logger *zerolog.Logger

	mu     sync.Mutex
	recent map[string][]activation
}

type activation struct {
	clusterID int64
	at        time.Time
}

// New builds a Service over an already-loaded graph. g is typically
// loaded from its JSON side file at startup via g.Load.
func New(g *graph.Graph, store ports.Store, logger *zerolog.Logger) *Service {
	return &Service{
		graph:  g,
		store:  store,
		logger: logger,
		recent: make(map[string][]activation),
	}
}

// Record folds one sighting into the graph: registers the cluster
// node, appends the sighting to the store, checks for a sighting-rate
// spike, and links the cluster to any other cluster the same chat
// activated within the co-activation window. Errors are logged and
// swallowed per spec.md §7.
func (s *Service) Record(ctx context.Context, clusterID int64, source domain.MessageSource, chatID, userID string, at time.Time) {
	s.graph.AddNode(clusterID)

	if err := s.store.AppendSighting(ctx, &domain.Sighting{
		ClusterID: clusterID,
		Source:    source,
		ChatID:    chatID,
		UserID:    userID,
		SeenAt:    at,
	}); err != nil {
		s.logf(err, "append sighting", clusterID)
	}

	s.linkCoActivations(ctx, clusterID, chatID, at)
	s.checkSpike(ctx, clusterID, at)
}

// linkCoActivations adds a weighted edge between clusterID and every
// other cluster the same chat activated within coActivationWindow,
// persisting each edge through the store.
func (s *Service) linkCoActivations(ctx context.Context, clusterID int64, chatID string, at time.Time) {
	if chatID == "" {
		return
	}

	s.mu.Lock()
	history := append([]activation(nil), s.recent[chatID]...)
	s.mu.Unlock()

	cutoff := at.Add(-coActivationWindow)

	kept := make([]activation, 0, len(history)+1)

	for _, a := range history {
		if a.at.Before(cutoff) {
			continue
		}

		kept = append(kept, a)

		if a.clusterID == clusterID {
			continue
		}

		s.graph.AddRelationship(clusterID, a.clusterID, "co_activation", coActivationWeight)

		edge := domain.GraphEdge{ClusterA: clusterID, ClusterB: a.clusterID, Weight: coActivationWeight, Relationship: "co_activation"}
		if err := s.store.AddGraphEdge(ctx, edge); err != nil {
			s.logf(err, "persist co-activation edge", clusterID)
		}
	}

	kept = append(kept, activation{clusterID: clusterID, at: at})
	if len(kept) > recentClustersCap {
		kept = kept[len(kept)-recentClustersCap:]
	}

	s.mu.Lock()
	s.recent[chatID] = kept
	s.mu.Unlock()
}

// checkSpike loads recent sighting history for clusterID and records a
// spike timestamp in the graph when detect_spike's rate condition
// (spec.md §4.6) fires.
func (s *Service) checkSpike(ctx context.Context, clusterID int64, now time.Time) {
	sightings, err := s.store.ListSightings(ctx, clusterID, sightingHistoryCap)
	if err != nil {
		s.logf(err, "list sightings for spike check", clusterID)

		return
	}

	times := make([]time.Time, 0, len(sightings))
	for _, sgt := range sightings {
		times = append(times, sgt.SeenAt)
	}

	if graph.DetectSpike(times, now, 0, 0) {
		s.graph.RecordSpike(clusterID, now)
	}
}

// Predict forecasts cluster re-emergence, optionally boosted by a
// currently active cluster context, delegating to the graph's
// piecewise probability curve.
func (s *Service) Predict(now time.Time, currentContext []int64, topK int) []graph.Prediction {
	return s.graph.PredictReemergence(now, currentContext, topK)
}

// Related returns clusters within maxDepth hops of clusterID.
func (s *Service) Related(clusterID int64, maxDepth int) []graph.RelatedCluster {
	return s.graph.RelatedClusters(clusterID, maxDepth)
}

// RebuildFromStore replays every persisted edge into the in-memory
// graph, used at startup when the JSON side file is missing or stale
// relative to the relational store.
func (s *Service) RebuildFromStore(ctx context.Context) error {
	edges, err := s.store.ListGraphEdges(ctx)
	if err != nil {
		return err
	}

	for _, e := range edges {
		s.graph.AddRelationship(e.ClusterA, e.ClusterB, e.Relationship, e.Weight)
	}

	return nil
}

func (s *Service) logf(err error, action string, clusterID int64) {
	if s.logger == nil {
		return
	}

	s.logger.Error().Err(err).Str("action", action).Int64("cluster_id", clusterID).Msg("memory graph update failed")
}
