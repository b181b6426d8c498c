package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxFetchBodyBytes   = 5 * 1024 * 1024
)

// HTTPPageFetcher retrieves a page and extracts its readable text via
// go-readability, the same extraction path the donor's link resolver
// uses for shared messages, under one rate limit shared by all hosts.
type HTTPPageFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewHTTPPageFetcher builds a fetcher with a single global rate limit of
// rps requests per second and the given per-request timeout (defaulted
// to 10s, matching spec.md §6's external-call budget for page fetch).
func NewHTTPPageFetcher(rps float64, timeout time.Duration) *HTTPPageFetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	if rps <= 0 {
		rps = 1
	}

	return &HTTPPageFetcher{
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 2),
		userAgent: "ClaimVerifier/1.0 (+evidence fetch)",
	}
}

var _ ports.PageFetcher = (*HTTPPageFetcher)(nil)

// Fetch downloads rawURL and returns its readable plain-text content.
func (f *HTTPPageFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("evidence fetch: HTTP %d for %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBodyBytes))
	if err != nil {
		return "", err
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsed)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(article.TextContent), nil
}
