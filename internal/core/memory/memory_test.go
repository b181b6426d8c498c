package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/graph"
	"github.com/clarity-project/claimpipeline/internal/core/ports/mocks"
)

func TestRecord_LinksCoActivationsWithinWindow(t *testing.T) {
	store := mocks.NewStore()
	g := graph.New()
	svc := New(g, store, nil)

	ctx := context.Background()
	now := time.Now()

	svc.Record(ctx, 1, domain.SourceTelegram, "chat-1", "user-1", now)
	svc.Record(ctx, 2, domain.SourceTelegram, "chat-1", "user-1", now.Add(2*time.Minute))

	related := g.RelatedClusters(1, 1)
	require.Len(t, related, 1)
	assert.Equal(t, int64(2), related[0].ClusterID)

	edges, err := store.ListGraphEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "co_activation", edges[0].Relationship)
}

func TestRecord_DoesNotLinkOutsideWindowOrDifferentChats(t *testing.T) {
	store := mocks.NewStore()
	g := graph.New()
	svc := New(g, store, nil)

	ctx := context.Background()
	now := time.Now()

	svc.Record(ctx, 1, domain.SourceTelegram, "chat-1", "user-1", now)
	svc.Record(ctx, 2, domain.SourceTelegram, "chat-1", "user-1", now.Add(15*time.Minute))
	svc.Record(ctx, 3, domain.SourceTelegram, "chat-2", "user-2", now.Add(time.Minute))

	assert.Empty(t, g.RelatedClusters(1, 1))
	assert.Empty(t, g.RelatedClusters(3, 1))
}

func TestRebuildFromStore_ReplaysPersistedEdges(t *testing.T) {
	store := mocks.NewStore()
	ctx := context.Background()

	require.NoError(t, store.AddGraphEdge(ctx, domain.GraphEdge{ClusterA: 10, ClusterB: 20, Weight: 1.5, Relationship: "co_activation"}))

	g := graph.New()
	svc := New(g, store, nil)

	require.NoError(t, svc.RebuildFromStore(ctx))

	related := g.RelatedClusters(10, 1)
	require.Len(t, related, 1)
	assert.Equal(t, int64(20), related[0].ClusterID)
}

func TestPredictAndRelated_DelegateToGraph(t *testing.T) {
	store := mocks.NewStore()
	g := graph.New()
	svc := New(g, store, nil)

	g.RecordSpike(5, time.Now().Add(-20*24*time.Hour))
	g.RecordSpike(5, time.Now().Add(-10*24*time.Hour))

	predictions := svc.Predict(time.Now(), nil, 5)
	require.Len(t, predictions, 1)
	assert.Equal(t, int64(5), predictions[0].ClusterID)

	g.AddRelationship(5, 6, "co_activation", 1.0)
	related := svc.Related(5, 1)
	require.Len(t, related, 1)
	assert.Equal(t, int64(6), related[0].ClusterID)
}
