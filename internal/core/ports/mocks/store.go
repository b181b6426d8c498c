// Package mocks provides in-memory test doubles for the pipeline's ports
// interfaces, in the style of the donor's repository test doubles: plain
// structs guarded by a mutex, with optional Fn overrides for failure
// injection.
package mocks

import (
	"context"
	"sync"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// Store is a thread-safe in-memory implementation of ports.Store.
type Store struct {
	mu sync.Mutex

	nextMessageID int64
	nextClusterID int64

	messages         map[int64]*domain.Message
	clusters         map[int64]*domain.Cluster
	verdicts         map[int64]*domain.Verdict
	sightings        map[int64][]domain.Sighting
	edges            map[[2]int64]domain.GraphEdge
	humanSet         map[int64]bool
	memberEmbeddings map[int64][][]float32
}

// NewStore creates an empty mock store.
func NewStore() *Store {
	return &Store{
		messages:  make(map[int64]*domain.Message),
		clusters:  make(map[int64]*domain.Cluster),
		verdicts:  make(map[int64]*domain.Verdict),
		sightings: make(map[int64][]domain.Sighting),
		edges:     make(map[[2]int64]domain.GraphEdge),
		humanSet:  make(map[int64]bool),
	}
}

// SaveMessage stores msg and assigns it an id.
func (s *Store) SaveMessage(_ context.Context, msg *domain.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMessageID++
	msg.ID = s.nextMessageID
	cp := *msg
	s.messages[msg.ID] = &cp

	return msg.ID, nil
}

// CreateCluster stores c and assigns it an id.
func (s *Store) CreateCluster(_ context.Context, c *domain.Cluster) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextClusterID++
	c.ID = s.nextClusterID
	cp := *c
	s.clusters[c.ID] = &cp

	return c.ID, nil
}

// GetCluster returns a copy of the stored cluster.
func (s *Store) GetCluster(_ context.Context, id int64) (*domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.clusters[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *c

	return &cp, nil
}

// UpdateCluster overwrites the stored cluster.
func (s *Store) UpdateCluster(_ context.Context, c *domain.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[c.ID]; !ok {
		return ErrNotFound
	}

	cp := *c
	s.clusters[c.ID] = &cp

	return nil
}

// DeleteCluster removes a cluster.
func (s *Store) DeleteCluster(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.clusters, id)

	return nil
}

// ReassignMessages moves every message pointing at fromCluster to toCluster.
func (s *Store) ReassignMessages(_ context.Context, fromCluster, toCluster int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.messages {
		if m.ClusterID == fromCluster {
			m.ClusterID = toCluster
		}
	}

	return nil
}

// CountMessagesInCluster counts messages whose ClusterID equals clusterID.
func (s *Store) CountMessagesInCluster(_ context.Context, clusterID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64

	for _, m := range s.messages {
		if m.ClusterID == clusterID {
			n++
		}
	}

	return n, nil
}

// ListMemberEmbeddings is not backed by real embeddings in the mock; tests
// that exercise Recompute set them with SetMemberEmbeddings.
func (s *Store) ListMemberEmbeddings(_ context.Context, clusterID int64) ([][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.memberEmbeddings[clusterID], nil
}

// SetMemberEmbeddings seeds the embeddings ListMemberEmbeddings returns for
// a cluster, for tests exercising Recompute.
func (s *Store) SetMemberEmbeddings(clusterID int64, embeddings [][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memberEmbeddings == nil {
		s.memberEmbeddings = make(map[int64][][]float32)
	}

	s.memberEmbeddings[clusterID] = embeddings
}

// GetVerdict returns the stored verdict, if any.
func (s *Store) GetVerdict(_ context.Context, clusterID int64) (*domain.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.verdicts[clusterID]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *v

	return &cp, nil
}

// UpsertVerdict stores v, refusing to overwrite a human-set verdict unless
// humanSet is true for this call (an explicit re-verification request).
func (s *Store) UpsertVerdict(_ context.Context, v *domain.Verdict, humanSet bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.humanSet[v.ClusterID] && !humanSet {
		return ErrHumanVerdictLocked
	}

	cp := *v
	s.verdicts[v.ClusterID] = &cp

	if humanSet {
		s.humanSet[v.ClusterID] = true
	}

	return nil
}

// AppendSighting records a sighting for a cluster.
func (s *Store) AppendSighting(_ context.Context, sg *domain.Sighting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sightings[sg.ClusterID] = append(s.sightings[sg.ClusterID], *sg)

	return nil
}

// ListSightings returns up to limit sightings for a cluster (0 = all).
func (s *Store) ListSightings(_ context.Context, clusterID int64, limit int) ([]domain.Sighting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sightings[clusterID]
	if limit <= 0 || limit >= len(all) {
		out := make([]domain.Sighting, len(all))
		copy(out, all)

		return out, nil
	}

	out := make([]domain.Sighting, limit)
	copy(out, all[len(all)-limit:])

	return out, nil
}

// AddGraphEdge accumulates weight on an existing edge or inserts a new one.
func (s *Store) AddGraphEdge(_ context.Context, e domain.GraphEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, b := e.Key()
	key := [2]int64{a, b}

	if existing, ok := s.edges[key]; ok {
		existing.Weight += e.Weight
		s.edges[key] = existing

		return nil
	}

	e.ClusterA, e.ClusterB = a, b
	s.edges[key] = e

	return nil
}

// ListGraphEdges returns every stored edge.
func (s *Store) ListGraphEdges(_ context.Context) ([]domain.GraphEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.GraphEdge, 0, len(s.edges))
	for _, e := range s.edges {
		out = append(out, e)
	}

	return out, nil
}

// PendingClusters returns up to limit UNKNOWN-status clusters (via their
// verdict, or absence of one), oldest last-seen first.
func (s *Store) PendingClusters(_ context.Context, limit int) ([]*domain.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*domain.Cluster

	for _, c := range s.clusters {
		if v, ok := s.verdicts[c.ID]; ok && v.Status.Terminal() {
			continue
		}

		cp := *c
		pending = append(pending, &cp)
	}

	sortByLastSeenAsc(pending)

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	return pending, nil
}

func sortByLastSeenAsc(clusters []*domain.Cluster) {
	for i := 1; i < len(clusters); i++ {
		for j := i; j > 0 && clusters[j].LastSeen.Before(clusters[j-1].LastSeen); j-- {
			clusters[j], clusters[j-1] = clusters[j-1], clusters[j]
		}
	}
}
