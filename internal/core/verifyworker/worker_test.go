package verifyworker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/verify"
)

type fakeStore struct {
	pending  []*domain.Cluster
	upserted []*domain.Verdict
	failList error
}

func (f *fakeStore) SaveMessage(context.Context, *domain.Message) (int64, error) { return 0, nil }
func (f *fakeStore) CreateCluster(context.Context, *domain.Cluster) (int64, error) {
	return 0, nil
}
func (f *fakeStore) GetCluster(context.Context, int64) (*domain.Cluster, error) { return nil, nil }
func (f *fakeStore) UpdateCluster(context.Context, *domain.Cluster) error       { return nil }
func (f *fakeStore) DeleteCluster(context.Context, int64) error                { return nil }
func (f *fakeStore) ReassignMessages(context.Context, int64, int64) error      { return nil }
func (f *fakeStore) CountMessagesInCluster(context.Context, int64) (int64, error) {
	return 0, nil
}
func (f *fakeStore) ListMemberEmbeddings(context.Context, int64) ([][]float32, error) {
	return nil, nil
}
func (f *fakeStore) GetVerdict(context.Context, int64) (*domain.Verdict, error) { return nil, nil }
func (f *fakeStore) UpsertVerdict(_ context.Context, v *domain.Verdict, _ bool) error {
	f.upserted = append(f.upserted, v)

	return nil
}
func (f *fakeStore) AppendSighting(context.Context, *domain.Sighting) error { return nil }
func (f *fakeStore) ListSightings(context.Context, int64, int) ([]domain.Sighting, error) {
	return nil, nil
}
func (f *fakeStore) AddGraphEdge(context.Context, domain.GraphEdge) error { return nil }
func (f *fakeStore) ListGraphEdges(context.Context) ([]domain.GraphEdge, error) {
	return nil, nil
}
func (f *fakeStore) PendingClusters(context.Context, int) ([]*domain.Cluster, error) {
	return f.pending, f.failList
}

type fakeRetriever struct{ items []domain.EvidenceItem }

func (f *fakeRetriever) Gather(context.Context, string, int) []domain.EvidenceItem { return f.items }

type fakeOrchestrator struct {
	result  verify.VerdictResult
	claims  []string
	evCount int
}

func (f *fakeOrchestrator) Verify(_ context.Context, claimText string, evidence []domain.EvidenceItem) verify.VerdictResult {
	f.claims = append(f.claims, claimText)
	f.evCount = len(evidence)

	return f.result
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestTick_VerifiesPendingClustersAndPersistsVerdict(t *testing.T) {
	store := &fakeStore{pending: []*domain.Cluster{
		{ID: 1, CanonicalText: "the moon landing was faked"},
		{ID: 2, CanonicalText: "5g towers cause coronavirus"},
	}}
	retriever := &fakeRetriever{items: []domain.EvidenceItem{{URL: "https://reuters.com/x"}}}
	orchestrator := &fakeOrchestrator{result: verify.VerdictResult{
		Status:     domain.StatusFalse,
		Confidence: 0.9,
		ShortReply: "this is false",
	}}

	w := New(store, retriever, orchestrator, fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil, 5)
	w.Tick(context.Background())

	require.Len(t, store.upserted, 2)
	assert.Equal(t, domain.StatusFalse, store.upserted[0].Status)
	assert.Equal(t, int64(1), store.upserted[0].ClusterID)
	assert.NotNil(t, store.upserted[0].VerifiedAt)
	assert.ElementsMatch(t, []string{"the moon landing was faked", "5g towers cause coronavirus"}, orchestrator.claims)
}

func TestTick_UnknownVerdictLeavesVerifiedAtNil(t *testing.T) {
	store := &fakeStore{pending: []*domain.Cluster{{ID: 1, CanonicalText: "some claim"}}}
	retriever := &fakeRetriever{}
	orchestrator := &fakeOrchestrator{result: verify.VerdictResult{Status: domain.StatusUnknown}}

	w := New(store, retriever, orchestrator, fixedClock{t: time.Now()}, nil, 5)
	w.Tick(context.Background())

	require.Len(t, store.upserted, 1)
	assert.Nil(t, store.upserted[0].VerifiedAt)
}

func TestTick_ListErrorIsLoggedAndDoesNotPanic(t *testing.T) {
	store := &fakeStore{failList: assert.AnError}
	w := New(store, &fakeRetriever{}, &fakeOrchestrator{}, fixedClock{t: time.Now()}, nil, 5)

	assert.NotPanics(t, func() { w.Tick(context.Background()) })
	assert.Empty(t, store.upserted)
}

func TestNew_DefaultsBatchSize(t *testing.T) {
	w := New(&fakeStore{}, &fakeRetriever{}, &fakeOrchestrator{}, nil, nil, 0)
	assert.Equal(t, DefaultBatchSize, w.batchSize)
}
