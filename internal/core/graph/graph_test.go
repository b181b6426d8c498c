package graph

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRelationship_AccumulatesWeightIdempotently(t *testing.T) {
	g := New()
	g.AddRelationship(1, 2, "similar_topic", 1.0)
	g.AddRelationship(1, 2, "similar_topic", 1.0)
	g.AddRelationship(2, 1, "similar_topic", 0.5)

	related := g.RelatedClusters(1, 2)
	require.Len(t, related, 1)
	assert.Equal(t, int64(2), related[0].ClusterID)
}

func TestRelatedClusters_ScoresByDistance(t *testing.T) {
	g := New()
	g.AddRelationship(1, 2, "rel", 1.0)
	g.AddRelationship(2, 3, "rel", 1.0)

	related := g.RelatedClusters(1, 2)
	require.Len(t, related, 2)
	assert.Equal(t, int64(2), related[0].ClusterID)
	assert.InDelta(t, 0.5, related[0].Score, 1e-9)
	assert.Equal(t, int64(3), related[1].ClusterID)
	assert.InDelta(t, 1.0/3, related[1].Score, 1e-9)
}

func TestDetectSpike_RequiresMinimumHistory(t *testing.T) {
	now := time.Now()

	sightings := make([]time.Time, 5)
	for i := range sightings {
		sightings[i] = now.Add(-time.Duration(i) * time.Hour)
	}

	assert.False(t, DetectSpike(sightings, now, 0, 0))
}

func TestDetectSpike_DetectsSuddenBurst(t *testing.T) {
	now := time.Now()

	var sightings []time.Time
	// steady trickle over 20 days, one per day
	for i := 0; i < 20; i++ {
		sightings = append(sightings, now.Add(-time.Duration(i)*24*time.Hour))
	}

	// sudden burst of 15 more in the last hour
	for i := 0; i < 15; i++ {
		sightings = append(sightings, now.Add(-time.Duration(i)*time.Minute))
	}

	assert.True(t, DetectSpike(sightings, now, 24*time.Hour, 3.0))
}

func TestPredictReemergence_PeaksNearMeanInterval(t *testing.T) {
	g := New()
	now := time.Now()

	// two spikes 10 days apart; "now" sits near the next expected spike
	g.RecordSpike(1, now.Add(-20*24*time.Hour))
	g.RecordSpike(1, now.Add(-10*24*time.Hour))

	predictions := g.PredictReemergence(now, nil, 5)
	require.Len(t, predictions, 1)
	assert.Greater(t, predictions[0].Probability, 0.4)
}

func TestPredictReemergence_BoostsContextNeighbors(t *testing.T) {
	g := New()
	now := time.Now()

	g.RecordSpike(1, now.Add(-20*24*time.Hour))
	g.RecordSpike(1, now.Add(-10*24*time.Hour))
	g.AddRelationship(1, 2, "similar_topic", 1.0)

	withoutContext := g.PredictReemergence(now, nil, 5)
	withContext := g.PredictReemergence(now, []int64{2}, 5)

	require.Len(t, withoutContext, 1)
	require.Len(t, withContext, 1)

	found := false

	for _, p := range withContext {
		if p.ClusterID == 1 {
			found = true

			assert.GreaterOrEqual(t, p.Probability, withoutContext[0].Probability)
		}
	}

	assert.True(t, found)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	g := New()
	now := time.Now().Truncate(time.Second)

	g.AddRelationship(1, 2, "similar_topic", 2.5)
	g.RecordSpike(1, now)
	g.RecordSpike(1, now.Add(-48*time.Hour))

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, g.Save(path))

	loaded := New()
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, g.Stats(), loaded.Stats())

	related := loaded.RelatedClusters(1, 1)
	require.Len(t, related, 1)
	assert.Equal(t, int64(2), related[0].ClusterID)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	g := New()
	err := g.Load(filepath.Join(os.TempDir(), "does-not-exist-claim-graph.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Stats().Nodes)
}
