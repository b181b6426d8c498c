// Package vectorindex implements the in-memory ANN-style structure the
// cluster manager assigns claims against: a brute-force inner-product
// search over unit-norm vectors, grounded on the donor's FAISS IndexFlatIP
// usage (flat index, parallel id map, lock-serialized mutation and save).
// Go has no equivalent FAISS binding in the retrieval pack, so the search
// itself is a straight line scan under a mutex rather than wrapping a
// third-party ANN library — acceptable at the scale this pipeline targets
// (tens of thousands of clusters, not billions of vectors).
package vectorindex

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

// Index is a flat, append-only inner-product index. All mutation and
// query are serialized under mu; callers must compute embeddings outside
// any lock they hold themselves.
type Index struct {
	mu      sync.RWMutex
	vectors [][]float32
	ids     []int64
	dim     int
}

// New creates an empty index for vectors of the given dimensionality. dim
// is advisory until the first Add call fixes it.
func New(dim int) *Index {
	return &Index{dim: dim}
}

// Add appends vector under the given external cluster id. The index does
// not deduplicate or compact; a cluster whose centroid drifts may have
// multiple entries, all but the most recent of which become stale but
// harmless (spec.md's append-only contract).
func (idx *Index) Add(vector []float32, clusterID int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := make([]float32, len(vector))
	copy(cp, vector)

	idx.vectors = append(idx.vectors, cp)
	idx.ids = append(idx.ids, clusterID)

	if idx.dim == 0 {
		idx.dim = len(vector)
	}
}

// Search returns up to k neighbors whose inner product with vector is at
// least minSimilarity, sorted by similarity descending.
func (idx *Index) Search(vector []float32, k int, minSimilarity float64) []ports.Neighbor {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := make([]ports.Neighbor, 0, len(idx.vectors))

	for i, v := range idx.vectors {
		sim := dot(vector, v)
		if sim >= minSimilarity {
			candidates = append(candidates, ports.Neighbor{ClusterID: idx.ids[i], Similarity: sim})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	return candidates
}

// Nearest is Search with k=1, returning the single best match if any.
func (idx *Index) Nearest(vector []float32, minSimilarity float64) (ports.Neighbor, bool) {
	results := idx.Search(vector, 1, minSimilarity)
	if len(results) == 0 {
		return ports.Neighbor{}, false
	}

	return results[0], true
}

// Len reports the number of stored vectors, which may exceed the number of
// distinct clusters due to drift re-adds.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.vectors)
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64

	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}

	return sum
}

// fileMagic tags the on-disk format so Load can reject foreign files early.
const fileMagic uint32 = 0x43495658 // "CIVX"

// Save persists the vectors and the parallel id table to path as a single
// binary file: magic, dimension, count, then id+vector pairs.
func (idx *Index) Save(path string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if err := binary.Write(w, binary.LittleEndian, fileMagic); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, int32(idx.dim)); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, int64(len(idx.vectors))); err != nil {
		return err
	}

	for i, v := range idx.vectors {
		if err := binary.Write(w, binary.LittleEndian, idx.ids[i]); err != nil {
			return err
		}

		for _, f32 := range v {
			if err := binary.Write(w, binary.LittleEndian, f32); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}

// Load replaces the index contents with the vectors and id table stored at
// path. A missing file is not an error: the index is left empty, matching
// spec.md's "absence of either is equivalent to empty" persistence rule.
func (idx *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return fmt.Errorf("read index magic: %w", err)
	}

	if magic != fileMagic {
		return fmt.Errorf("index file %s: %w", path, errBadMagic)
	}

	var dim32 int32
	if err := binary.Read(r, binary.LittleEndian, &dim32); err != nil {
		return fmt.Errorf("read index dimension: %w", err)
	}

	var count int64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("read index count: %w", err)
	}

	vectors := make([][]float32, 0, count)
	ids := make([]int64, 0, count)

	for i := int64(0); i < count; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return fmt.Errorf("read vector id: %w", err)
		}

		vec := make([]float32, dim32)
		for j := range vec {
			if err := binary.Read(r, binary.LittleEndian, &vec[j]); err != nil {
				return fmt.Errorf("read vector component: %w", err)
			}
		}

		ids = append(ids, id)
		vectors = append(vectors, vec)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.dim = int(dim32)
	idx.vectors = vectors
	idx.ids = ids

	return nil
}

var _ ports.VectorIndex = (*Index)(nil)
