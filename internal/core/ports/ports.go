// Package ports provides domain-centric interfaces for external dependencies
// of the claim ingestion and verification pipeline, following the same
// ports-and-adapters split the rest of the codebase uses: business logic
// depends only on these interfaces, never on a concrete storage or provider
// package.
package ports

import (
	"context"
	"time"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
)

// Store is the relational-store facade the pipeline reads and writes
// through. It is the source of truth for messages, clusters, verdicts,
// sightings, and graph edges; the vector index and memory graph are
// side files reloadable from it only in the degenerate "rebuild" sense.
type Store interface {
	SaveMessage(ctx context.Context, msg *domain.Message) (int64, error)

	CreateCluster(ctx context.Context, c *domain.Cluster) (int64, error)
	GetCluster(ctx context.Context, id int64) (*domain.Cluster, error)
	UpdateCluster(ctx context.Context, c *domain.Cluster) error
	DeleteCluster(ctx context.Context, id int64) error
	ReassignMessages(ctx context.Context, fromCluster, toCluster int64) error
	CountMessagesInCluster(ctx context.Context, clusterID int64) (int64, error)
	ListMemberEmbeddings(ctx context.Context, clusterID int64) ([][]float32, error)

	GetVerdict(ctx context.Context, clusterID int64) (*domain.Verdict, error)
	UpsertVerdict(ctx context.Context, v *domain.Verdict, humanSet bool) error

	AppendSighting(ctx context.Context, s *domain.Sighting) error
	ListSightings(ctx context.Context, clusterID int64, limit int) ([]domain.Sighting, error)

	AddGraphEdge(ctx context.Context, e domain.GraphEdge) error
	ListGraphEdges(ctx context.Context) ([]domain.GraphEdge, error)

	// PendingClusters returns up to limit clusters with status UNKNOWN,
	// oldest last-seen first.
	PendingClusters(ctx context.Context, limit int) ([]*domain.Cluster, error)
}

// Embedder produces fixed-dimension, unit-norm dense vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// VectorIndex is the in-memory ANN structure backing cluster assignment.
// Implementations serialize all mutation and query under a single lock;
// callers are expected to compute embeddings outside that lock.
type VectorIndex interface {
	Add(vector []float32, clusterID int64)
	Search(vector []float32, k int, minSimilarity float64) []Neighbor
	Nearest(vector []float32, minSimilarity float64) (Neighbor, bool)
	Save(path string) error
	Load(path string) error
	Len() int
}

// Neighbor is a single vector-index search result.
type Neighbor struct {
	ClusterID  int64
	Similarity float64
}

// SearchProvider issues a web search and returns raw hits.
type SearchProvider interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error)
	Available() bool
}

// SearchOptions parameterizes a SearchProvider call.
type SearchOptions struct {
	MaxResults int
	Region     string
	SafeSearch string
	TimeLimit  string // e.g. "w" for one week, matching the provider's token vocabulary
}

// SearchHit is the minimum shape a search provider must return per result.
type SearchHit struct {
	URL     string
	Title   string
	Snippet string
}

// PageFetcher retrieves and cleans a page body for optional evidence fetch.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Adjudicator is the small capability interface every verification-model
// backend implements: a chat-style generate call and an availability probe.
// Concrete tiers (remote chat API, staged Gemini API model, rule-based fallback)
// are selected in priority order by the orchestrator.
type Adjudicator interface {
	Name() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, system, prompt string, maxTokens int, temperature float64) (string, error)
}

// GraphStore persists the memory graph (nodes, edges, spike history) as a
// single JSON blob, tolerant to a missing file.
type GraphStore interface {
	Save(path string) error
	Load(path string) error
}

// RateLimiter enforces per-source ingestion pacing.
type RateLimiter interface {
	Allow(key string) bool
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
