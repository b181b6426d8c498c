// Package config loads the claim pipeline's runtime configuration from
// the environment via caarlos0/env, the same struct-tag-driven loader
// the donor project uses, optionally seeded from a .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every configuration key spec.md §6 enumerates, plus the
// ambient keys (log level, health port, bot token) the donor's own
// Config always carries regardless of feature scope.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresDSN       string `env:"POSTGRES_DSN,required"`
	InternalAuthToken string `env:"INTERNAL_AUTH_TOKEN"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`

	// Telegram ingestion source (thin adapter only, per spec.md's
	// non-goal on bot UX).
	TelegramBotToken string `env:"BOT_TOKEN"`

	// Telegram channel reader (MTProto), for public channels the bot API
	// cannot join. A thin read-and-feed loop, not the donor's discovery
	// crawler or media pipeline.
	TGAPIID        int           `env:"TG_API_ID"`
	TGAPIHash      string        `env:"TG_API_HASH"`
	TGSessionPath  string        `env:"TG_SESSION_PATH" envDefault:"./data/tg_session.json"`
	TGPhone        string        `env:"TG_PHONE"`
	TG2FAPassword  string        `env:"TG_2FA_PASSWORD"`
	TGChannels     string        `env:"TG_CHANNELS"` // comma-separated usernames
	TGFetchLimit   int           `env:"TG_FETCH_LIMIT" envDefault:"50"`
	TGPollInterval time.Duration `env:"TG_POLL_INTERVAL" envDefault:"30s"`

	// Side files.
	VectorIndexPath string `env:"VECTOR_INDEX_PATH" envDefault:"./data/vector_index.bin"`
	MemoryGraphPath string `env:"MEMORY_GRAPH_PATH" envDefault:"./data/memory_graph.json"`
	MediaPath       string `env:"MEDIA_PATH" envDefault:"./data/media"`

	// Clustering.
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.75"`

	// Embedding provider selection and credentials.
	EmbeddingModel           string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingProviderOrder   string `env:"EMBEDDING_PROVIDER_ORDER" envDefault:"openai,cohere,google"`
	EmbeddingDimensions      int    `env:"EMBEDDING_DIMENSIONS" envDefault:"1536"`
	OpenAIAPIKey             string `env:"OPENAI_API_KEY"`
	OpenAIEmbeddingRateLimit int    `env:"OPENAI_EMBEDDING_RATE_LIMIT" envDefault:"10"`
	CohereAPIKey             string `env:"COHERE_API_KEY"`
	CohereEmbeddingModel     string `env:"COHERE_EMBEDDING_MODEL" envDefault:"embed-multilingual-v3.0"`
	CohereEmbeddingRateLimit int    `env:"COHERE_EMBEDDING_RATE_LIMIT" envDefault:"10"`
	GoogleAPIKey             string `env:"GOOGLE_API_KEY"`
	GoogleEmbeddingModel     string `env:"GOOGLE_EMBEDDING_MODEL" envDefault:"gemini-embedding-001"`
	GoogleEmbeddingRateLimit int    `env:"GOOGLE_EMBEDDING_RATE_LIMIT" envDefault:"10"`

	// Adjudicator tiers, tried in this order: the backend named by
	// ADJUDICATOR_BACKEND, then whichever of openai, anthropic and gemini
	// (in that order) have credentials configured, then the always-available
	// rule-based fallback.
	AdjudicatorBackend         string  `env:"ADJUDICATOR_BACKEND" envDefault:"openai"`
	AdjudicatorOpenAIAPIKey    string  `env:"ADJUDICATOR_OPENAI_API_KEY"`
	AdjudicatorOpenAIModel     string  `env:"ADJUDICATOR_OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AdjudicatorAnthropicAPIKey string  `env:"ADJUDICATOR_ANTHROPIC_API_KEY"`
	AdjudicatorAnthropicModel  string  `env:"ADJUDICATOR_ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-20241022"`
	AdjudicatorGeminiAPIKey    string  `env:"ADJUDICATOR_GEMINI_API_KEY"`
	AdjudicatorGeminiModel     string  `env:"ADJUDICATOR_GEMINI_MODEL" envDefault:"gemini-2.0-flash-lite"`
	AdjudicatorRPS             float64 `env:"ADJUDICATOR_RPS" envDefault:"0.5"`
	AdjudicatorTimeout         time.Duration `env:"ADJUDICATOR_TIMEOUT" envDefault:"120s"`

	// Evidence retrieval.
	SearchRegion         string        `env:"SEARCH_REGION" envDefault:"in-en"`
	SearchSafeSearch     string        `env:"SEARCH_SAFESEARCH" envDefault:"moderate"`
	SearchTimeLimit      string        `env:"SEARCH_TIME_LIMIT" envDefault:"w"`
	AuthoritativeDomains string        `env:"AUTHORITATIVE_DOMAINS" envDefault:""` // comma-separated; empty uses the built-in list
	SearxNGEnabled       bool          `env:"SEARXNG_ENABLED" envDefault:"false"`
	SearxNGBaseURL       string        `env:"SEARXNG_BASE_URL" envDefault:"http://localhost:8888"`
	SearxNGTimeout       time.Duration `env:"SEARXNG_TIMEOUT" envDefault:"30s"`
	GDELTEnabled         bool          `env:"GDELT_ENABLED" envDefault:"false"`
	GDELTRequestsPerMin  int           `env:"GDELT_RPM" envDefault:"60"`
	GDELTTimeout         time.Duration `env:"GDELT_TIMEOUT" envDefault:"30s"`
	RSSFeedEnabled       bool          `env:"RSS_FEED_ENABLED" envDefault:"true"`
	RSSFeedBaseURL       string        `env:"RSS_FEED_BASE_URL" envDefault:""`
	HTMLScrapeEnabled    bool          `env:"HTML_SCRAPE_ENABLED" envDefault:"true"`
	HTMLScrapeBaseURL    string        `env:"HTML_SCRAPE_BASE_URL" envDefault:""`
	HTMLScrapeTimeout    time.Duration `env:"HTML_SCRAPE_TIMEOUT" envDefault:"20s"`
	PageFetchRPS         float64       `env:"PAGE_FETCH_RPS" envDefault:"1"`
	PageFetchTimeout     time.Duration `env:"PAGE_FETCH_TIMEOUT" envDefault:"10s"`

	// Worker loop.
	ClaimWorkerInterval  time.Duration `env:"CLAIM_WORKER_INTERVAL" envDefault:"60s"`
	ClaimWorkerBatchSize int           `env:"CLAIM_WORKER_BATCH_SIZE" envDefault:"5"`

	// Per-source ingestion pacing.
	IngestRateLimitSeconds float64 `env:"INGEST_RATE_LIMIT_SECONDS" envDefault:"2.5"`
}

// Load reads a .env file if present (tolerating its absence) and parses
// the environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}

// AuthoritativeDomainList splits the comma-separated AuthoritativeDomains
// key, trimming whitespace and dropping empty entries.
func (c *Config) AuthoritativeDomainList() []string {
	if c.AuthoritativeDomains == "" {
		return nil
	}

	raw := strings.Split(c.AuthoritativeDomains, ",")
	out := make([]string, 0, len(raw))

	for _, d := range raw {
		d = strings.TrimSpace(d)
		if d != "" {
			out = append(out, d)
		}
	}

	return out
}

// ChannelList splits the comma-separated TGChannels key the same way
// AuthoritativeDomainList splits its own.
func (c *Config) ChannelList() []string {
	if c.TGChannels == "" {
		return nil
	}

	raw := strings.Split(c.TGChannels, ",")
	out := make([]string, 0, len(raw))

	for _, ch := range raw {
		ch = strings.TrimSpace(ch)
		if ch != "" {
			out = append(out, ch)
		}
	}

	return out
}
