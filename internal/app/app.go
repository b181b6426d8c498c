// Package app wires the claim pipeline's adapters and core services into
// runnable modes: ingest (Telegram sources feeding the detection and
// first-sighting pipeline), worker (periodic re-verification of clusters
// still marked unknown), and http (health and metrics only — the research
// UI and routing layer the donor exposes here are out of scope).
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clarity-project/claimpipeline/internal/config"
	"github.com/clarity-project/claimpipeline/internal/core/claim"
	"github.com/clarity-project/claimpipeline/internal/core/cluster"
	"github.com/clarity-project/claimpipeline/internal/core/embeddings"
	"github.com/clarity-project/claimpipeline/internal/core/evidence"
	"github.com/clarity-project/claimpipeline/internal/core/graph"
	"github.com/clarity-project/claimpipeline/internal/core/ingest"
	"github.com/clarity-project/claimpipeline/internal/core/memory"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
	"github.com/clarity-project/claimpipeline/internal/core/ratelimit"
	"github.com/clarity-project/claimpipeline/internal/core/vectorindex"
	"github.com/clarity-project/claimpipeline/internal/core/verify"
	"github.com/clarity-project/claimpipeline/internal/core/verifyworker"
	"github.com/clarity-project/claimpipeline/internal/platform/observability"
	"github.com/clarity-project/claimpipeline/internal/platform/worker"
	"github.com/clarity-project/claimpipeline/internal/storage/claimstore"
	"github.com/clarity-project/claimpipeline/internal/telegram"
	"github.com/clarity-project/claimpipeline/internal/telegramchannel"
)

const mockAPIKeyPlaceholder = "mock"

// App holds the fully-migrated store and the two side files (vector index,
// relationship graph) that persist across restarts, plus everything needed
// to build a mode's components on demand.
type App struct {
	cfg    *config.Config
	store  *claimstore.Store
	index  *vectorindex.Index
	graph  *graph.Graph
	logger *zerolog.Logger
}

// New loads the vector index and relationship graph side files (tolerating
// their absence on a first run) and returns an App ready to run any mode.
func New(cfg *config.Config, store *claimstore.Store, logger *zerolog.Logger) (*App, error) {
	index := vectorindex.New(cfg.EmbeddingDimensions)
	if err := index.Load(cfg.VectorIndexPath); err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}

	g := graph.New()
	if err := g.Load(cfg.MemoryGraphPath); err != nil {
		return nil, fmt.Errorf("load memory graph: %w", err)
	}

	return &App{cfg: cfg, store: store, index: index, graph: g, logger: logger}, nil
}

// Persist flushes the vector index and relationship graph to their side
// files. Called once on clean shutdown; callers hold no lock across it,
// so it should only run after every mode's goroutines have stopped.
func (a *App) Persist() {
	if err := ensureDir(a.cfg.VectorIndexPath); err == nil {
		if err := a.index.Save(a.cfg.VectorIndexPath); err != nil {
			a.logger.Error().Err(err).Msg("save vector index failed")
		}
	}

	if err := a.graph.Save(a.cfg.MemoryGraphPath); err != nil {
		a.logger.Error().Err(err).Msg("save memory graph failed")
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}

	return os.MkdirAll(dir, 0o755)
}

// RunIngest starts every configured ingestion source — the bot-API
// Telegram adapter and the MTProto channel reader — feeding the same
// first-sighting handler, and blocks until ctx is cancelled or either
// source returns a non-cancellation error.
func (a *App) RunIngest(ctx context.Context) error {
	a.logger.Info().Msg("starting ingest mode")

	handler, err := a.newIngestHandler(ctx)
	if err != nil {
		return fmt.Errorf("build ingest handler: %w", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.cfg.TelegramBotToken != "" {
		source, err := telegram.New(a.cfg.TelegramBotToken, handler, a.logger)
		if err != nil {
			return fmt.Errorf("telegram bot source init: %w", err)
		}

		group.Go(func() error { return source.Run(ctx) })
	} else {
		a.logger.Warn().Msg("BOT_TOKEN unset, Telegram bot-API ingestion disabled")
	}

	reader := telegramchannel.New(telegramchannel.Config{
		APIID:        a.cfg.TGAPIID,
		APIHash:      a.cfg.TGAPIHash,
		SessionPath:  a.cfg.TGSessionPath,
		Phone:        a.cfg.TGPhone,
		Password:     a.cfg.TG2FAPassword,
		Channels:     a.cfg.ChannelList(),
		FetchLimit:   a.cfg.TGFetchLimit,
		PollInterval: a.cfg.TGPollInterval,
	}, handler, a.logger)

	group.Go(func() error { return reader.Run(ctx) })

	return group.Wait()
}

// RunWorker drives the periodic re-verification loop over clusters still
// marked unknown.
func (a *App) RunWorker(ctx context.Context) error {
	a.logger.Info().Msg("starting worker mode")

	retriever := a.newRetriever()
	orchestrator := a.newOrchestrator(ctx)

	w := verifyworker.New(a.store, retriever, orchestrator, ports.SystemClock{}, a.logger, a.cfg.ClaimWorkerBatchSize)

	return worker.Loop(ctx, worker.Config{
		Name:         "claim-verify",
		PollInterval: a.cfg.ClaimWorkerInterval,
		Process: func(ctx context.Context) error {
			w.Tick(ctx)
			return nil
		},
		Logger: a.logger,
	})
}

// RunHTTP runs the health/readiness/metrics server only; the research and
// routing surface the donor serves here is out of this pipeline's scope.
func (a *App) RunHTTP(ctx context.Context) error {
	a.logger.Info().Msg("starting http mode")

	return a.StartHealthServer(ctx)
}

// StartHealthServer starts the health/readiness/metrics server, used
// directly by http mode and in the background by every other mode.
func (a *App) StartHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.store.Pool, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server start: %w", err)
	}

	return nil
}

func (a *App) newIngestHandler(ctx context.Context) (*ingest.Handler, error) {
	embedder := a.newEmbedder(ctx)
	detector := claim.NewDetector(embedder)
	clusters := cluster.New(a.store, a.index, a.cfg.SimilarityThreshold, ports.SystemClock{}, a.logger)
	retriever := a.newRetriever()
	orchestrator := a.newOrchestrator(ctx)

	memLogger := a.logger.With().Str("component", "memory").Logger()
	memService := memory.New(a.graph, a.store, &memLogger)

	if a.graph.Stats().Nodes == 0 {
		if err := memService.RebuildFromStore(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("rebuild memory graph from store failed")
		}
	}

	limiter := ratelimit.New(time.Duration(a.cfg.IngestRateLimitSeconds * float64(time.Second)))

	return ingest.New(a.store, detector, embedder, clusters, retriever, orchestrator, memService, limiter, ports.SystemClock{}, a.logger), nil
}

func (a *App) newEmbedder(ctx context.Context) ports.Embedder {
	logger := a.logger.With().Str("component", "embeddings").Logger()

	registry := embeddings.NewClient(ctx, embeddings.Config{
		OpenAIAPIKey:     a.cfg.OpenAIAPIKey,
		OpenAIModel:      a.cfg.EmbeddingModel,
		OpenAIDimensions: a.cfg.EmbeddingDimensions,
		OpenAIRateLimit:  a.cfg.OpenAIEmbeddingRateLimit,
		CohereAPIKey:     a.cfg.CohereAPIKey,
		CohereModel:      a.cfg.CohereEmbeddingModel,
		CohereRateLimit:  a.cfg.CohereEmbeddingRateLimit,
		GoogleAPIKey:     a.cfg.GoogleAPIKey,
		GoogleModel:      a.cfg.GoogleEmbeddingModel,
		GoogleRateLimit:  a.cfg.GoogleEmbeddingRateLimit,
		ProviderOrder:        a.cfg.EmbeddingProviderOrder,
		CircuitBreakerConfig: embeddings.DefaultCircuitBreakerConfig(),
		TargetDimensions:     a.cfg.EmbeddingDimensions,
	}, &logger)

	return embeddings.NewPipelineEmbedder(registry)
}

func (a *App) newRetriever() *evidence.Retriever {
	logger := a.logger.With().Str("component", "evidence").Logger()

	providers := []ports.SearchProvider{
		evidence.NewSearxNGProvider(a.cfg.SearxNGBaseURL, a.cfg.SearxNGEnabled, a.cfg.SearxNGTimeout),
		evidence.NewGDELTProvider(a.cfg.GDELTEnabled, a.cfg.GDELTRequestsPerMin, a.cfg.GDELTTimeout),
		evidence.NewRSSFeedProvider(a.cfg.RSSFeedBaseURL, a.cfg.RSSFeedEnabled),
		evidence.NewHTMLScrapeProvider(a.cfg.HTMLScrapeBaseURL, a.cfg.HTMLScrapeEnabled, a.cfg.HTMLScrapeTimeout),
	}

	fetcher := evidence.NewHTTPPageFetcher(a.cfg.PageFetchRPS, a.cfg.PageFetchTimeout)

	return evidence.New(providers, fetcher, a.cfg.AuthoritativeDomainList(), evidence.SearchDefaults{
		Region:     a.cfg.SearchRegion,
		SafeSearch: a.cfg.SearchSafeSearch,
		TimeLimit:  a.cfg.SearchTimeLimit,
	}, &logger)
}

// newOrchestrator builds the adjudicator tier chain in priority order: the
// backend named by ADJUDICATOR_BACKEND first (if its credentials are
// configured), the remaining capable backends as fallback, and the
// deterministic rule-based adjudicator last so a verdict is always
// reachable.
func (a *App) newOrchestrator(ctx context.Context) *verify.Orchestrator {
	logger := a.logger.With().Str("component", "verify").Logger()

	tiers := make([]ports.Adjudicator, 0, 4)

	order := []string{a.cfg.AdjudicatorBackend, "openai", "anthropic", "gemini"}
	seen := make(map[string]bool, len(order))

	for _, backend := range order {
		if seen[backend] {
			continue
		}

		seen[backend] = true

		if tier := a.buildAdjudicatorTier(ctx, backend, &logger); tier != nil {
			tiers = append(tiers, tier)
		}
	}

	tiers = append(tiers, verify.NewRuleBasedAdjudicator())

	return verify.New(tiers, &logger)
}

func (a *App) buildAdjudicatorTier(ctx context.Context, backend string, logger *zerolog.Logger) ports.Adjudicator {
	switch backend {
	case "openai":
		if a.cfg.AdjudicatorOpenAIAPIKey == "" || a.cfg.AdjudicatorOpenAIAPIKey == mockAPIKeyPlaceholder {
			return nil
		}

		return verify.NewOpenAIAdjudicator(a.cfg.AdjudicatorOpenAIAPIKey, a.cfg.AdjudicatorOpenAIModel, a.cfg.AdjudicatorRPS)
	case "anthropic":
		if a.cfg.AdjudicatorAnthropicAPIKey == "" {
			return nil
		}

		return verify.NewAnthropicAdjudicator(a.cfg.AdjudicatorAnthropicAPIKey, a.cfg.AdjudicatorAnthropicModel, a.cfg.AdjudicatorRPS)
	case "gemini":
		if a.cfg.AdjudicatorGeminiAPIKey == "" {
			return nil
		}

		adjudicator, err := verify.NewGeminiAdjudicator(ctx, a.cfg.AdjudicatorGeminiAPIKey, a.cfg.AdjudicatorGeminiModel, a.cfg.AdjudicatorRPS)
		if err != nil {
			logger.Error().Err(err).Msg("gemini adjudicator init failed")

			return nil
		}

		return adjudicator
	default:
		return nil
	}
}
