package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports/mocks"
	"github.com/clarity-project/claimpipeline/internal/core/vectorindex"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestAssign_MissCreatesNewCluster(t *testing.T) {
	store := mocks.NewStore()
	idx := vectorindex.New(3)
	mgr := New(store, idx, 0, fixedClock{time.Now()}, nil)

	msg := &domain.Message{Source: domain.SourceWebForm}
	a, err := mgr.Assign(context.Background(), msg, "the earth is flat", []float32{0, 0, 1})
	require.NoError(t, err)

	assert.False(t, a.Merged)
	assert.Equal(t, int64(1), a.Cluster.MessageCount)
	assert.Equal(t, 1, idx.Len())
}

func TestAssign_HitMergesAndUpdatesCentroid(t *testing.T) {
	store := mocks.NewStore()
	idx := vectorindex.New(3)
	mgr := New(store, idx, 0.75, fixedClock{time.Now()}, nil)

	msg := &domain.Message{Source: domain.SourceWebForm}

	first, err := mgr.Assign(context.Background(), msg, "hot water kills coronavirus", []float32{1, 0, 0})
	require.NoError(t, err)
	require.False(t, first.Merged)

	second, err := mgr.Assign(context.Background(), msg, "warm water destroys coronavirus", []float32{1, 0, 0})
	require.NoError(t, err)

	require.True(t, second.Merged)
	assert.Equal(t, first.Cluster.ID, second.Cluster.ID)
	assert.Equal(t, int64(2), second.Cluster.MessageCount)
	// mean of two identical unit vectors is itself
	assert.InDelta(t, 1.0, second.Cluster.Centroid[0], 1e-6)
}

func TestAssign_DistinctClaimOpensNewCluster(t *testing.T) {
	store := mocks.NewStore()
	idx := vectorindex.New(3)
	mgr := New(store, idx, 0.75, fixedClock{time.Now()}, nil)

	msg := &domain.Message{Source: domain.SourceWebForm}

	a, err := mgr.Assign(context.Background(), msg, "hot water kills coronavirus", []float32{1, 0, 0})
	require.NoError(t, err)

	b, err := mgr.Assign(context.Background(), msg, "the earth is flat", []float32{0, 1, 0})
	require.NoError(t, err)

	assert.NotEqual(t, a.Cluster.ID, b.Cluster.ID)
	assert.False(t, b.Merged)
}

func TestMerge_FoldsSecondaryIntoPrimary(t *testing.T) {
	store := mocks.NewStore()
	idx := vectorindex.New(2)
	mgr := New(store, idx, 0.75, fixedClock{time.Now()}, nil)
	ctx := context.Background()

	primary := &domain.Cluster{Centroid: []float32{1, 0}, MessageCount: 2, FirstSeen: time.Unix(100, 0), LastSeen: time.Unix(200, 0)}
	secondary := &domain.Cluster{Centroid: []float32{0, 1}, MessageCount: 1, FirstSeen: time.Unix(50, 0), LastSeen: time.Unix(300, 0)}

	pid, err := store.CreateCluster(ctx, primary)
	require.NoError(t, err)
	sid, err := store.CreateCluster(ctx, secondary)
	require.NoError(t, err)

	require.NoError(t, mgr.Merge(ctx, pid, sid))

	merged, err := store.GetCluster(ctx, pid)
	require.NoError(t, err)
	assert.Equal(t, int64(3), merged.MessageCount)
	assert.Equal(t, time.Unix(50, 0), merged.FirstSeen)
	assert.Equal(t, time.Unix(300, 0), merged.LastSeen)
	assert.InDelta(t, 2.0/3.0, merged.Centroid[0], 1e-6)
	assert.InDelta(t, 1.0/3.0, merged.Centroid[1], 1e-6)

	_, err = store.GetCluster(ctx, sid)
	assert.Error(t, err)
}

func TestRecompute_MeanOfMembers(t *testing.T) {
	store := mocks.NewStore()
	idx := vectorindex.New(2)
	mgr := New(store, idx, 0.75, fixedClock{time.Now()}, nil)
	ctx := context.Background()

	c := &domain.Cluster{Centroid: []float32{1, 0}, MessageCount: 2}
	id, err := store.CreateCluster(ctx, c)
	require.NoError(t, err)

	store.SetMemberEmbeddings(id, [][]float32{{1, 0}, {0, 1}})

	require.NoError(t, mgr.Recompute(ctx, id))

	updated, err := store.GetCluster(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, updated.Centroid[0], 1e-6)
	assert.InDelta(t, 0.5, updated.Centroid[1], 1e-6)
}

func TestSimilarClusters_DropsSelfMatch(t *testing.T) {
	store := mocks.NewStore()
	idx := vectorindex.New(2)
	mgr := New(store, idx, 0.75, fixedClock{time.Now()}, nil)
	ctx := context.Background()

	c := &domain.Cluster{Centroid: []float32{1, 0}, MessageCount: 1}
	id, err := store.CreateCluster(ctx, c)
	require.NoError(t, err)
	idx.Add([]float32{1, 0}, id)

	other := &domain.Cluster{Centroid: []float32{0.9, 0.1}, MessageCount: 1}
	oid, err := store.CreateCluster(ctx, other)
	require.NoError(t, err)
	idx.Add([]float32{0.9, 0.1}, oid)

	similar, err := mgr.SimilarClusters(ctx, id, 5)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, oid, similar[0].ClusterID)
}
