package evidence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	rssDefaultTimeout = 15 * time.Second
	rssBaseURL        = "https://news.google.com/rss/search"
)

// RSSFeedProvider satisfies the recency bias spec.md §4.4 asks of
// evidence gathering by querying a news aggregator's RSS search feed
// directly, a fallback search path that needs no API key and degrades
// gracefully when SearxNG and GDELT are both rate limited or unconfigured.
type RSSFeedProvider struct {
	baseURL string
	client  *http.Client
	parser  *gofeed.Parser
	enabled bool
}

// NewRSSFeedProvider builds a feed-based provider. An empty baseURL falls
// back to the public Google News RSS search endpoint.
func NewRSSFeedProvider(baseURL string, enabled bool) *RSSFeedProvider {
	if baseURL == "" {
		baseURL = rssBaseURL
	}

	return &RSSFeedProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: rssDefaultTimeout},
		parser:  gofeed.NewParser(),
		enabled: enabled,
	}
}

var _ ports.SearchProvider = (*RSSFeedProvider)(nil)

func (p *RSSFeedProvider) Available() bool { return p.enabled }

// Search fetches the query's RSS feed and maps entries onto
// ports.SearchHit, newest first, trimmed to opts.MaxResults and filtered
// by opts.TimeLimit when an item's publish date parses.
func (p *RSSFeedProvider) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("build rss request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rss feed: %w", err)
	}
	defer resp.Body.Close()

	feed, err := p.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rss feed: %w", err)
	}

	cutoff, hasCutoff := recencyCutoff(opts.TimeLimit)

	items := make([]*gofeed.Item, 0, len(feed.Items))

	for _, it := range feed.Items {
		if it == nil || it.Link == "" {
			continue
		}

		if hasCutoff {
			if published, err := dateparse.ParseAny(it.Published); err == nil && published.Before(cutoff) {
				continue
			}
		}

		items = append(items, it)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ti, erri := dateparse.ParseAny(items[i].Published)
		tj, errj := dateparse.ParseAny(items[j].Published)

		if erri != nil || errj != nil {
			return false
		}

		return ti.After(tj)
	})

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResultsPerQuery
	}

	if len(items) > maxResults {
		items = items[:maxResults]
	}

	hits := make([]ports.SearchHit, 0, len(items))
	for _, it := range items {
		hits = append(hits, ports.SearchHit{
			URL:     it.Link,
			Title:   it.Title,
			Snippet: it.Description,
		})
	}

	return hits, nil
}

func (p *RSSFeedProvider) feedURL(query string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", "en-IN")
	v.Set("gl", "IN")
	v.Set("ceid", "IN:en")

	return p.baseURL + "?" + v.Encode()
}

func recencyCutoff(timeLimit string) (time.Time, bool) {
	now := time.Now()

	switch timeLimit {
	case "d":
		return now.AddDate(0, 0, -1), true
	case "w":
		return now.AddDate(0, 0, -7), true
	case "m":
		return now.AddDate(0, -1, 0), true
	case "y":
		return now.AddDate(-1, 0, 0), true
	default:
		return time.Time{}, false
	}
}
