package vectorindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddSearchNearest(t *testing.T) {
	idx := New(3)

	idx.Add([]float32{1, 0, 0}, 1)
	idx.Add([]float32{0, 1, 0}, 2)
	idx.Add([]float32{0.9, 0.1, 0}, 3)

	results := idx.Search([]float32{1, 0, 0}, 5, 0.75)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ClusterID)

	n, ok := idx.Nearest([]float32{1, 0, 0}, 0.75)
	require.True(t, ok)
	assert.Equal(t, int64(1), n.ClusterID)

	_, ok = idx.Nearest([]float32{0, 0, 1}, 0.75)
	assert.False(t, ok)
}

func TestIndex_SimilarityExactlyThresholdIsHit(t *testing.T) {
	idx := New(2)
	idx.Add([]float32{1, 0}, 10)

	n, ok := idx.Nearest([]float32{1, 0}, 1.0)
	require.True(t, ok)
	assert.Equal(t, int64(10), n.ClusterID)
}

func TestIndex_SaveLoadRoundTrip(t *testing.T) {
	idx := New(3)
	idx.Add([]float32{1, 0, 0}, 1)
	idx.Add([]float32{0, 1, 0}, 2)
	idx.Add([]float32{0.6, 0.8, 0}, 3)

	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, idx.Save(path))

	loaded := New(0)
	require.NoError(t, loaded.Load(path))

	assert.Equal(t, idx.Len(), loaded.Len())

	for _, q := range [][]float32{{1, 0, 0}, {0, 1, 0}, {0.6, 0.8, 0}} {
		want := idx.Search(q, 5, 0)
		got := loaded.Search(q, 5, 0)
		assert.Equal(t, want, got)
	}
}

func TestIndex_LoadMissingFileIsEmpty(t *testing.T) {
	idx := New(4)
	err := idx.Load(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}
