package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	gdeltBaseURL        = "https://api.gdeltproject.org/api/v2/doc/doc"
	gdeltDefaultTimeout = 30 * time.Second
	gdeltDefaultRPM     = 60
	secondsPerMinute    = 60.0
)

var (
	errGDELTUnexpectedStatus = errors.New("gdelt: unexpected status")
	errGDELTAPIError         = errors.New("gdelt: api error")
)

// GDELTProvider queries the public GDELT news-article API, a keyless
// fallback behind SearxNG when no self-hosted metasearch instance is
// configured; the same public news backend the donor's enrichment
// pipeline falls back to.
type GDELTProvider struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	enabled     bool
}

// NewGDELTProvider builds a provider rate limited to requestsPerMin
// (defaulted to 60/min, GDELT's documented courtesy limit).
func NewGDELTProvider(enabled bool, requestsPerMin int, timeout time.Duration) *GDELTProvider {
	if timeout <= 0 {
		timeout = gdeltDefaultTimeout
	}

	if requestsPerMin <= 0 {
		requestsPerMin = gdeltDefaultRPM
	}

	return &GDELTProvider{
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(requestsPerMin)/secondsPerMinute), 1),
		enabled:     enabled,
	}
}

var _ ports.SearchProvider = (*GDELTProvider)(nil)

// Available reports whether the provider is enabled; GDELT needs no
// credentials, so this is purely a config switch.
func (p *GDELTProvider) Available() bool { return p.enabled }

// Search queries GDELT's doc API and maps articles onto ports.SearchHit.
func (p *GDELTProvider) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchHit, error) {
	if !p.enabled {
		return nil, errGDELTAPIError
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gdelt rate limit: %w", err)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResultsPerQuery
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildURL(query, maxResults), nil)
	if err != nil {
		return nil, fmt.Errorf("build gdelt request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdelt request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errGDELTUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gdelt response: %w", err)
	}

	return parseGDELTResponse(body, maxResults)
}

func (p *GDELTProvider) buildURL(query string, maxResults int) string {
	sanitized := sanitizeQueryForGDELT(query)

	params := url.Values{}
	params.Set("query", sanitized)
	params.Set("mode", "ArtList")
	params.Set("maxrecords", strconv.Itoa(maxResults))
	params.Set("format", "json")
	params.Set("sort", "DateDesc")

	return gdeltBaseURL + "?" + params.Encode()
}

func sanitizeQueryForGDELT(query string) string {
	return query
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL       string `json:"url"`
	URLMobile string `json:"url_mobile"`
	Title     string `json:"title"`
}

func parseGDELTResponse(body []byte, maxResults int) ([]ports.SearchHit, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		errMsg := string(trimmed)
		if len(errMsg) > 200 {
			errMsg = errMsg[:200] + "..."
		}

		return nil, fmt.Errorf("%w: %s", errGDELTAPIError, errMsg)
	}

	var resp gdeltResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, fmt.Errorf("parse gdelt json: %w", err)
	}

	hits := make([]ports.SearchHit, 0, min(len(resp.Articles), maxResults))

	for i, a := range resp.Articles {
		if i >= maxResults {
			break
		}

		articleURL := a.URL
		if articleURL == "" {
			articleURL = a.URLMobile
		}

		if articleURL == "" {
			continue
		}

		hits = append(hits, ports.SearchHit{URL: articleURL, Title: a.Title})
	}

	return hits, nil
}
