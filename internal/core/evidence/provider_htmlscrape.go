package evidence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	htmlScrapeDefaultTimeout = 20 * time.Second
	htmlScrapeBaseURL        = "https://html.duckduckgo.com/html/"
	htmlScrapeUserAgent      = "Mozilla/5.0 (compatible; claimpipeline-evidence/1.0)"
)

var errHTMLScrapeUnexpectedStatus = errors.New("htmlscrape: unexpected status")

// HTMLScrapeProvider is the last-resort evidence provider spec.md §4.4
// calls for: when no metasearch API is reachable, it scrapes a public
// search engine's plain HTML results page directly.
type HTMLScrapeProvider struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
}

// NewHTMLScrapeProvider builds a scraping provider against baseURL. An
// empty baseURL falls back to DuckDuckGo's HTML-only endpoint, which
// serves unscripted markup meant for exactly this kind of consumption.
func NewHTMLScrapeProvider(baseURL string, enabled bool, timeout time.Duration) *HTMLScrapeProvider {
	if baseURL == "" {
		baseURL = htmlScrapeBaseURL
	}

	if timeout <= 0 {
		timeout = htmlScrapeDefaultTimeout
	}

	return &HTMLScrapeProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		enabled:    enabled,
	}
}

var _ ports.SearchProvider = (*HTMLScrapeProvider)(nil)

func (p *HTMLScrapeProvider) Available() bool { return p.enabled }

// Search fetches the results page and extracts each result's link,
// title, and snippet via goquery/cascadia CSS selectors.
func (p *HTMLScrapeProvider) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchHit, error) {
	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build htmlscrape request: %w", err)
	}

	req.Header.Set("User-Agent", htmlScrapeUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("htmlscrape request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errHTMLScrapeUnexpectedStatus, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse htmlscrape response: %w", err)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResultsPerQuery
	}

	hits := make([]ports.SearchHit, 0, maxResults)

	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()

		href, ok := link.Attr("href")
		if !ok {
			href = strings.TrimSpace(link.AttrOr("href", ""))
		}

		href = resolveRedirectTarget(href)
		if href == "" {
			return true
		}

		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		hits = append(hits, ports.SearchHit{URL: href, Title: title, Snippet: snippet})

		return len(hits) < maxResults
	})

	return hits, nil
}

// resolveRedirectTarget unwraps DuckDuckGo's HTML-endpoint redirect
// links (//duckduckgo.com/l/?uddg=<encoded-target>&...) down to the
// real destination URL.
func resolveRedirectTarget(href string) string {
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return href
	}

	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}

	return href
}
