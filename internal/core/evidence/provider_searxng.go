package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	searxngDefaultTimeout     = 30 * time.Second
	searxngSearchPath         = "/search"
	searxngHealthCheckTimeout = 5 * time.Second
	searxngResponseFormat     = "json"
	searxngCategoryGeneral    = "general"
)

var (
	errSearxNGUnexpectedStatus = errors.New("searxng: unexpected status")
	errSearxNGAPIError         = errors.New("searxng: api error")
)

// SearxNGProvider queries a self-hosted SearxNG metasearch instance,
// the same free/self-hosted search backend the donor's enrichment
// pipeline uses, adapted here to the narrower evidence-search contract.
type SearxNGProvider struct {
	baseURL    string
	httpClient *http.Client
	enabled    bool
}

// NewSearxNGProvider builds a provider against baseURL. enabled gates
// Available() so a missing instance configuration degrades gracefully
// rather than erroring on every claim.
func NewSearxNGProvider(baseURL string, enabled bool, timeout time.Duration) *SearxNGProvider {
	if timeout <= 0 {
		timeout = searxngDefaultTimeout
	}

	return &SearxNGProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		enabled:    enabled,
	}
}

var _ ports.SearchProvider = (*SearxNGProvider)(nil)

// Available reports whether the instance is configured and reachable.
func (p *SearxNGProvider) Available() bool {
	if !p.enabled || p.baseURL == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), searxngHealthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/config", nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Search queries the instance and maps results onto ports.SearchHit.
func (p *SearxNGProvider) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]ports.SearchHit, error) {
	if !p.enabled {
		return nil, errSearxNGAPIError
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.buildSearchURL(query, opts), nil)
	if err != nil {
		return nil, fmt.Errorf("build searxng request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searxng request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", errSearxNGUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read searxng response: %w", err)
	}

	return parseSearxNGResponse(body, opts.MaxResults)
}

func (p *SearxNGProvider) buildSearchURL(query string, opts ports.SearchOptions) string {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", searxngResponseFormat)
	params.Set("categories", searxngCategoryGeneral)

	if opts.TimeLimit != "" {
		params.Set("time_range", searxngTimeRangeToken(opts.TimeLimit))
	}

	if opts.SafeSearch == "moderate" {
		params.Set("safesearch", "1")
	}

	return p.baseURL + searxngSearchPath + "?" + params.Encode()
}

func searxngTimeRangeToken(spec string) string {
	switch spec {
	case "d":
		return "day"
	case "w":
		return "week"
	case "m":
		return "month"
	case "y":
		return "year"
	default:
		return ""
	}
}

type searxngResponse struct {
	Results []searxngResult `json:"results"`
}

type searxngResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func parseSearxNGResponse(body []byte, maxResults int) ([]ports.SearchHit, error) {
	if len(body) > 0 && body[0] != '{' && body[0] != '[' {
		errMsg := string(body)
		if len(errMsg) > 200 {
			errMsg = errMsg[:200] + "..."
		}

		return nil, fmt.Errorf("%w: %s", errSearxNGAPIError, errMsg)
	}

	var resp searxngResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse searxng json: %w", err)
	}

	if maxResults <= 0 {
		maxResults = defaultMaxResultsPerQuery
	}

	hits := make([]ports.SearchHit, 0, min(len(resp.Results), maxResults))

	for i, item := range resp.Results {
		if i >= maxResults {
			break
		}

		if item.URL == "" {
			continue
		}

		hits = append(hits, ports.SearchHit{
			URL:     item.URL,
			Title:   item.Title,
			Snippet: item.Content,
		})
	}

	return hits, nil
}
