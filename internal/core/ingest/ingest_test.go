package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-project/claimpipeline/internal/core/claim"
	"github.com/clarity-project/claimpipeline/internal/core/cluster"
	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
	"github.com/clarity-project/claimpipeline/internal/core/vectorindex"
	"github.com/clarity-project/claimpipeline/internal/core/verify"
)

type memStore struct {
	messages []*domain.Message
	clusters map[int64]*domain.Cluster
	verdicts map[int64]*domain.Verdict
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{clusters: map[int64]*domain.Cluster{}, verdicts: map[int64]*domain.Verdict{}}
}

func (m *memStore) SaveMessage(_ context.Context, msg *domain.Message) (int64, error) {
	m.nextID++
	msg.ID = m.nextID
	m.messages = append(m.messages, msg)

	return msg.ID, nil
}

func (m *memStore) CreateCluster(_ context.Context, c *domain.Cluster) (int64, error) {
	m.nextID++
	c.ID = m.nextID
	m.clusters[c.ID] = c

	return c.ID, nil
}

func (m *memStore) GetCluster(_ context.Context, id int64) (*domain.Cluster, error) {
	return m.clusters[id], nil
}
func (m *memStore) UpdateCluster(_ context.Context, c *domain.Cluster) error {
	m.clusters[c.ID] = c
	return nil
}
func (m *memStore) DeleteCluster(context.Context, int64) error           { return nil }
func (m *memStore) ReassignMessages(context.Context, int64, int64) error { return nil }
func (m *memStore) CountMessagesInCluster(context.Context, int64) (int64, error) {
	return 0, nil
}
func (m *memStore) ListMemberEmbeddings(context.Context, int64) ([][]float32, error) {
	return nil, nil
}
func (m *memStore) GetVerdict(_ context.Context, clusterID int64) (*domain.Verdict, error) {
	if v, ok := m.verdicts[clusterID]; ok {
		return v, nil
	}

	return &domain.Verdict{ClusterID: clusterID, Status: domain.StatusUnknown}, nil
}
func (m *memStore) UpsertVerdict(_ context.Context, v *domain.Verdict, _ bool) error {
	m.verdicts[v.ClusterID] = v
	return nil
}
func (m *memStore) AppendSighting(context.Context, *domain.Sighting) error { return nil }
func (m *memStore) ListSightings(context.Context, int64, int) ([]domain.Sighting, error) {
	return nil, nil
}
func (m *memStore) AddGraphEdge(context.Context, domain.GraphEdge) error { return nil }
func (m *memStore) ListGraphEdges(context.Context) ([]domain.GraphEdge, error) {
	return nil, nil
}
func (m *memStore) PendingClusters(context.Context, int) ([]*domain.Cluster, error) {
	return nil, nil
}

type stubEmbedder struct{ vec []float32 }

func (e stubEmbedder) Embed(context.Context, string) ([]float32, error) { return e.vec, nil }
func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vec
	}

	return out, nil
}
func (e stubEmbedder) Dimensions() int { return len(e.vec) }

type fakeRetriever struct{}

func (fakeRetriever) Gather(context.Context, string, int) []domain.EvidenceItem { return nil }

type fakeOrchestrator struct{ result verify.VerdictResult }

func (f fakeOrchestrator) Verify(context.Context, string, []domain.EvidenceItem) verify.VerdictResult {
	return f.result
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newHandler(t *testing.T, orchestrator Orchestrator) (*Handler, *memStore) {
	t.Helper()

	store := newMemStore()
	detector := claim.NewDetector(nil)
	index := vectorindex.New(3)
	mgr := cluster.New(store, index, 0.9, fixedClock{t: time.Now()}, nil)
	embedder := stubEmbedder{vec: []float32{1, 0, 0}}

	h := New(store, detector, embedder, mgr, fakeRetriever{}, orchestrator, nil, nil, fixedClock{t: time.Now()}, nil)

	return h, store
}

func TestHandle_NonClaimSavesMessageOnly(t *testing.T) {
	h, store := newHandler(t, fakeOrchestrator{})

	out, err := h.Handle(context.Background(), Input{Text: "good morning everyone", Source: domain.SourceWebForm})
	require.NoError(t, err)
	assert.False(t, out.IsClaim)
	assert.Zero(t, out.ClusterID)
	require.Len(t, store.messages, 1)
}

func TestHandle_NewClaimVerifiesSynchronously(t *testing.T) {
	h, store := newHandler(t, fakeOrchestrator{result: verify.VerdictResult{
		Status:     domain.StatusFalse,
		ShortReply: "this is false",
	}})

	out, err := h.Handle(context.Background(), Input{
		Text:   "Scientists confirm drinking bleach cures all diseases instantly",
		Source: domain.SourceTelegram,
		ChatID: "chat-1",
	})
	require.NoError(t, err)
	require.True(t, out.IsClaim)
	assert.Equal(t, domain.StatusFalse, out.ClusterStatus)
	assert.Equal(t, "this is false", out.ShortReply)
	assert.False(t, out.NeedsVerification)
	require.Len(t, store.clusters, 1)
	require.Len(t, store.verdicts, 1)
}

func TestHandle_ResightingReturnsExistingVerdictWithoutReverifying(t *testing.T) {
	calls := 0
	orchestrator := countingOrchestrator{calls: &calls, result: verify.VerdictResult{Status: domain.StatusFalse}}

	h, store := newHandler(t, orchestrator)

	text := "Scientists confirm drinking bleach cures all diseases instantly"
	first, err := h.Handle(context.Background(), Input{Text: text, Source: domain.SourceTelegram, ChatID: "chat-1"})
	require.NoError(t, err)

	second, err := h.Handle(context.Background(), Input{Text: text, Source: domain.SourceDiscord, ChatID: "chat-2"})
	require.NoError(t, err)

	assert.Equal(t, first.ClusterID, second.ClusterID)
	assert.Equal(t, 1, calls)
	require.Len(t, store.messages, 2)
}

type countingOrchestrator struct {
	calls  *int
	result verify.VerdictResult
}

func (c countingOrchestrator) Verify(context.Context, string, []domain.EvidenceItem) verify.VerdictResult {
	*c.calls++

	return c.result
}

func TestHandle_CanceledContextAbortsBeforeSave(t *testing.T) {
	h, store := newHandler(t, fakeOrchestrator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Handle(ctx, Input{Text: "good morning everyone", Source: domain.SourceWebForm})
	require.Error(t, err)
	assert.Empty(t, store.messages)
}
