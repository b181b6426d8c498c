// Package evidence synthesizes search queries from a canonical claim,
// fans them out across one or more search providers with a circuit
// breaker per provider, ranks and dedupes the hits, and optionally
// fetches and cleans the page body of the top results.
package evidence

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clarity-project/claimpipeline/internal/core/domain"
	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	defaultMaxResultsPerQuery = 5
	defaultRegion             = "in-en"
	defaultSafeSearch         = "moderate"
	defaultTimeLimit          = "w"

	authoritativeScore    = 1.0
	nonAuthoritativeScore = 0.5

	maxFetchedBodyChars     = 5000
	maxBodyFetchesPerGather = 3
)

// defaultAuthoritativeDomains is the built-in allowlist used to score
// evidence relevance when no override is configured; entries are
// suffix-matched against a hit's host so that subdomains (e.g.
// "www.pib.gov.in") still match.
var defaultAuthoritativeDomains = []string{
	"pib.gov.in",
	"who.int",
	"cdc.gov",
	"reuters.com",
	"apnews.com",
	"bbc.com",
	"altnews.in",
	"boomlive.in",
	"factcheck.org",
	"thehindu.com",
	"indianexpress.com",
	"pti.in",
}

type providerSlot struct {
	provider ports.SearchProvider
	breaker  *circuitBreaker
}

// SearchDefaults overrides the query parameters sent to every provider.
// Zero values fall back to the package defaults (region "in-en", safe
// search "moderate", time limit "w").
type SearchDefaults struct {
	Region     string
	SafeSearch string
	TimeLimit  string
}

// Retriever executes the evidence-gathering step of a claim's
// verification: query synthesis, provider fan-out, ranking, and
// optional page fetch.
type Retriever struct {
	providers            []providerSlot
	fetcher              ports.PageFetcher
	logger               *zerolog.Logger
	authoritativeDomains []string
	searchDefaults       SearchDefaults
}

// New builds a Retriever over providers in priority order: the first
// available provider whose circuit is closed is used for each query, the
// remainder serve as fallback. fetcher may be nil, in which case
// evidence items carry only the snippet returned by search. An empty
// authoritativeDomains falls back to the built-in allowlist, and a zero
// SearchDefaults falls back to the package defaults.
func New(
	providers []ports.SearchProvider,
	fetcher ports.PageFetcher,
	authoritativeDomains []string,
	searchDefaults SearchDefaults,
	logger *zerolog.Logger,
) *Retriever {
	slots := make([]providerSlot, 0, len(providers))
	for _, p := range providers {
		slots = append(slots, providerSlot{provider: p, breaker: newCircuitBreaker()})
	}

	if len(authoritativeDomains) == 0 {
		authoritativeDomains = defaultAuthoritativeDomains
	}

	if searchDefaults.Region == "" {
		searchDefaults.Region = defaultRegion
	}

	if searchDefaults.SafeSearch == "" {
		searchDefaults.SafeSearch = defaultSafeSearch
	}

	if searchDefaults.TimeLimit == "" {
		searchDefaults.TimeLimit = defaultTimeLimit
	}

	return &Retriever{
		providers:            slots,
		fetcher:              fetcher,
		authoritativeDomains: authoritativeDomains,
		searchDefaults:       searchDefaults,
		logger:               logger,
	}
}

// Gather runs query synthesis, executes each query against the first
// available provider, ranks and dedupes the combined hits, and returns
// at most limit evidence items. For the top maxBodyFetchesPerGather items
// it also fetches and substitutes the full page body via FetchBody, when a
// PageFetcher is configured, so the adjudicator prompt sees more than the
// search snippet for the evidence most likely to matter; a fetch failure
// just leaves that item's snippet as returned by search.
func (r *Retriever) Gather(ctx context.Context, claimText string, limit int) []domain.EvidenceItem {
	queries := SynthesizeQueries(claimText)

	var hits []ports.SearchHit

	for _, q := range queries {
		h, err := r.search(ctx, q)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn().Err(err).Str("query", q).Msg("evidence search failed")
			}

			continue
		}

		hits = append(hits, h...)
	}

	items := r.rank(hits)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	r.enrichBodies(ctx, items)

	return items
}

// enrichBodies replaces the snippet of the first few items with their
// fetched page body in place, bounded by maxBodyFetchesPerGather to keep
// Gather's latency predictable regardless of how many items it returns.
func (r *Retriever) enrichBodies(ctx context.Context, items []domain.EvidenceItem) {
	if r.fetcher == nil {
		return
	}

	n := len(items)
	if n > maxBodyFetchesPerGather {
		n = maxBodyFetchesPerGather
	}

	for i := 0; i < n; i++ {
		body, err := r.FetchBody(ctx, items[i])
		if err != nil {
			if r.logger != nil {
				r.logger.Warn().Err(err).Str("url", items[i].URL).Msg("evidence page fetch failed")
			}

			continue
		}

		if body != "" {
			items[i].Snippet = body
		}
	}
}

func (r *Retriever) search(ctx context.Context, query string) ([]ports.SearchHit, error) {
	opts := ports.SearchOptions{
		MaxResults: defaultMaxResultsPerQuery,
		Region:     r.searchDefaults.Region,
		SafeSearch: r.searchDefaults.SafeSearch,
		TimeLimit:  r.searchDefaults.TimeLimit,
	}

	var lastErr error

	for i := range r.providers {
		slot := &r.providers[i]
		if !slot.provider.Available() || !slot.breaker.canAttempt() {
			continue
		}

		hits, err := slot.provider.Search(ctx, query, opts)
		if err != nil {
			slot.breaker.recordFailure()
			lastErr = err

			continue
		}

		slot.breaker.recordSuccess()

		return hits, nil
	}

	return nil, lastErr
}

// rank scores hits by authoritative-domain membership, dedupes by URL,
// and returns them sorted by descending score with original-order ties
// broken stably.
func (r *Retriever) rank(hits []ports.SearchHit) []domain.EvidenceItem {
	seen := make(map[string]bool, len(hits))

	items := make([]domain.EvidenceItem, 0, len(hits))

	for _, h := range hits {
		u := strings.TrimSpace(h.URL)
		if u == "" || seen[u] {
			continue
		}

		seen[u] = true

		domainName := hostOf(u)
		items = append(items, domain.EvidenceItem{
			URL:         u,
			Domain:      domainName,
			Title:       h.Title,
			Snippet:     h.Snippet,
			Relevance:   r.relevanceScore(domainName),
			RetrievedAt: time.Now(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Relevance > items[j].Relevance
	})

	return items
}

func (r *Retriever) relevanceScore(host string) float64 {
	for _, d := range r.authoritativeDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return authoritativeScore
		}
	}

	return nonAuthoritativeScore
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

// FetchBody retrieves and cleans the page at item.URL using the
// configured PageFetcher, truncating to maxFetchedBodyChars. It is a
// no-op returning the snippet unchanged if no fetcher was configured.
func (r *Retriever) FetchBody(ctx context.Context, item domain.EvidenceItem) (string, error) {
	if r.fetcher == nil {
		return item.Snippet, nil
	}

	body, err := r.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return "", err
	}

	body = strings.TrimSpace(body)
	if len(body) > maxFetchedBodyChars {
		body = body[:maxFetchedBodyChars]
	}

	return body, nil
}
