// Package cluster implements the cluster manager: assigning a new claim to
// an existing cluster or opening one, merging clusters, recomputing
// centroids, and answering similar-cluster queries.
package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

// DefaultSimilarityThreshold (τ) is the minimum cosine similarity for a
// new message to merge into an existing cluster.
const DefaultSimilarityThreshold = 0.75

// Manager assigns messages to clusters and maintains centroid invariants.
type Manager struct {
	store     ports.Store
	index     ports.VectorIndex
	threshold float64
	clock     ports.Clock
	logger    *zerolog.Logger
}

// New builds a Manager. threshold is τ; pass 0 to use DefaultSimilarityThreshold.
func New(store ports.Store, index ports.VectorIndex, threshold float64, clock ports.Clock, logger *zerolog.Logger) *Manager {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Manager{store: store, index: index, threshold: threshold, clock: clock, logger: logger}
}

// Assignment is the result of Assign: the cluster the message landed in and
// whether it merged into a pre-existing cluster.
type Assignment struct {
	Cluster *domain.Cluster
	Merged  bool
}

// Assign implements spec.md §4.3's assignment algorithm. embedding must
// already be unit-norm; the caller computes it outside any lock the index
// holds.
func (m *Manager) Assign(ctx context.Context, msg *domain.Message, canonicalText string, embedding []float32) (Assignment, error) {
	now := m.clock.Now()

	if neighbor, ok := m.index.Nearest(embedding, m.threshold); ok {
		c, err := m.store.GetCluster(ctx, neighbor.ClusterID)
		if err != nil {
			return Assignment{}, fmt.Errorf("load cluster %d: %w", neighbor.ClusterID, err)
		}

		mergeVectorIntoCentroid(c, embedding)
		c.LastSeen = now

		if err := m.store.UpdateCluster(ctx, c); err != nil {
			return Assignment{}, fmt.Errorf("update cluster %d: %w", c.ID, err)
		}

		if err := m.recordSighting(ctx, c.ID, msg, now); err != nil {
			return Assignment{}, err
		}

		return Assignment{Cluster: c, Merged: true}, nil
	}

	c := &domain.Cluster{
		CanonicalText: canonicalText,
		Centroid:      append([]float32(nil), embedding...),
		MessageCount:  1,
		FirstSeen:     now,
		LastSeen:      now,
	}

	id, err := m.store.CreateCluster(ctx, c)
	if err != nil {
		return Assignment{}, fmt.Errorf("create cluster: %w", err)
	}

	c.ID = id
	m.index.Add(embedding, id)

	if err := m.recordSighting(ctx, id, msg, now); err != nil {
		return Assignment{}, err
	}

	return Assignment{Cluster: c, Merged: false}, nil
}

func (m *Manager) recordSighting(ctx context.Context, clusterID int64, msg *domain.Message, at time.Time) error {
	s := &domain.Sighting{
		ClusterID: clusterID,
		Source:    msg.Source,
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		SeenAt:    at,
	}

	if err := m.store.AppendSighting(ctx, s); err != nil {
		return fmt.Errorf("record sighting for cluster %d: %w", clusterID, err)
	}

	return nil
}

// mergeVectorIntoCentroid applies centroid := (centroid*n + v) / (n+1) and
// increments MessageCount, preserving spec.md's mean-of-members invariant.
func mergeVectorIntoCentroid(c *domain.Cluster, v []float32) {
	n := float64(c.MessageCount)

	next := make([]float32, len(c.Centroid))
	for i := range c.Centroid {
		next[i] = float32((float64(c.Centroid[i])*n + float64(v[i])) / (n + 1))
	}

	c.Centroid = next
	c.MessageCount++
}

// Merge folds secondary into primary: weighted centroid, summed count,
// widened first/last-seen span, reassigned members, and deletion of the
// secondary row. The vector index is not compacted — the secondary's
// entries become unreachable, per spec.md §4.3.
func (m *Manager) Merge(ctx context.Context, primaryID, secondaryID int64) error {
	primary, err := m.store.GetCluster(ctx, primaryID)
	if err != nil {
		return fmt.Errorf("load primary cluster %d: %w", primaryID, err)
	}

	secondary, err := m.store.GetCluster(ctx, secondaryID)
	if err != nil {
		return fmt.Errorf("load secondary cluster %d: %w", secondaryID, err)
	}

	n1 := float64(primary.MessageCount)
	n2 := float64(secondary.MessageCount)

	centroid := make([]float32, len(primary.Centroid))
	for i := range primary.Centroid {
		centroid[i] = float32((float64(primary.Centroid[i])*n1 + float64(secondary.Centroid[i])*n2) / (n1 + n2))
	}

	primary.Centroid = centroid
	primary.MessageCount += secondary.MessageCount

	if secondary.FirstSeen.Before(primary.FirstSeen) {
		primary.FirstSeen = secondary.FirstSeen
	}

	if secondary.LastSeen.After(primary.LastSeen) {
		primary.LastSeen = secondary.LastSeen
	}

	if err := m.store.UpdateCluster(ctx, primary); err != nil {
		return fmt.Errorf("update primary cluster %d: %w", primaryID, err)
	}

	if err := m.store.ReassignMessages(ctx, secondaryID, primaryID); err != nil {
		return fmt.Errorf("reassign members from %d to %d: %w", secondaryID, primaryID, err)
	}

	if err := m.store.DeleteCluster(ctx, secondaryID); err != nil {
		return fmt.Errorf("delete secondary cluster %d: %w", secondaryID, err)
	}

	return nil
}

// Recompute replaces a cluster's centroid with the mean of all its
// members' stored embeddings, used after manual corrections.
func (m *Manager) Recompute(ctx context.Context, clusterID int64) error {
	c, err := m.store.GetCluster(ctx, clusterID)
	if err != nil {
		return fmt.Errorf("load cluster %d: %w", clusterID, err)
	}

	members, err := m.store.ListMemberEmbeddings(ctx, clusterID)
	if err != nil {
		return fmt.Errorf("list members of cluster %d: %w", clusterID, err)
	}

	if len(members) == 0 {
		return nil
	}

	dim := len(members[0])
	mean := make([]float32, dim)

	for _, v := range members {
		for i := 0; i < dim; i++ {
			mean[i] += v[i]
		}
	}

	for i := range mean {
		mean[i] /= float32(len(members))
	}

	c.Centroid = mean

	if err := m.store.UpdateCluster(ctx, c); err != nil {
		return fmt.Errorf("update cluster %d: %w", clusterID, err)
	}

	return nil
}

// SimilarClusters runs a nearest-neighbor search from a cluster's centroid
// with k+1 results, dropping the self-match.
func (m *Manager) SimilarClusters(ctx context.Context, clusterID int64, k int) ([]ports.Neighbor, error) {
	c, err := m.store.GetCluster(ctx, clusterID)
	if err != nil {
		return nil, fmt.Errorf("load cluster %d: %w", clusterID, err)
	}

	raw := m.index.Search(c.Centroid, k+1, 0)

	out := make([]ports.Neighbor, 0, k)

	for _, n := range raw {
		if n.ClusterID == clusterID {
			continue
		}

		out = append(out, n)

		if len(out) == k {
			break
		}
	}

	return out, nil
}
