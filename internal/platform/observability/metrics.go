package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_messages_ingested_total",
		Help: "Total number of ingested messages, labeled by source",
	}, []string{"source"})

	ClaimsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_claims_detected_total",
		Help: "Total number of messages classified as claims vs non-claims",
	}, []string{"is_claim"})

	ClusterAssignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_cluster_assignments_total",
		Help: "Total number of cluster assignments, labeled by whether a new cluster was created",
	}, []string{"outcome"})

	VerdictsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_verdicts_issued_total",
		Help: "Total number of verdicts issued, labeled by status and the tier that produced it",
	}, []string{"status", "tier"})

	WorkerTickClusters = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claimpipeline_worker_tick_clusters",
		Help:    "Number of pending clusters processed per worker tick",
		Buckets: []float64{0, 1, 2, 5, 10, 20},
	})

	// Embedding provider metrics, populated by internal/core/embeddings.
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_embedding_requests_total",
		Help: "Total number of embedding requests by provider, model, and outcome",
	}, []string{"provider", "model", "status"})

	EmbeddingTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_embedding_tokens_total",
		Help: "Total number of tokens sent to embedding providers",
	}, []string{"provider", "model"})

	EmbeddingEstimatedCost = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_embedding_estimated_cost_millicents_total",
		Help: "Estimated embedding cost in millicents (0.001 cents)",
	}, []string{"provider", "model"})

	EmbeddingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "claimpipeline_embedding_request_latency_seconds",
		Help:    "Latency of embedding requests by provider and model",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "model"})

	EmbeddingFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claimpipeline_embedding_fallbacks_total",
		Help: "Total number of embedding provider fallback events",
	}, []string{"from_provider", "to_provider"})

	EmbeddingProviderAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "claimpipeline_embedding_provider_available",
		Help: "Whether an embedding provider is currently available (0=no, 1=yes)",
	}, []string{"provider"})
)
