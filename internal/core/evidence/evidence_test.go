package evidence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clarity-project/claimpipeline/internal/core/ports"
)

func TestSynthesizeQueries_DeathClaimIncludesDeathQuery(t *testing.T) {
	queries := SynthesizeQueries("Amitabh Bachchan died in a car accident yesterday")

	assert.Contains(t, queries, "Amitabh Bachchan died in a car accident yesterday")

	found := false

	for _, q := range queries {
		if q == "Amitabh Bachchan death" {
			found = true
		}
	}

	assert.True(t, found, "expected a death-specific query, got %v", queries)
}

func TestSynthesizeQueries_Dedupes(t *testing.T) {
	queries := SynthesizeQueries("water")
	seen := map[string]bool{}

	for _, q := range queries {
		assert.False(t, seen[q], "duplicate query: %s", q)
		seen[q] = true
	}
}

type fakeProvider struct {
	name      string
	available bool
	hits      []ports.SearchHit
	err       error
	calls     int
}

func (f *fakeProvider) Available() bool { return f.available }

func (f *fakeProvider) Search(_ context.Context, _ string, _ ports.SearchOptions) ([]ports.SearchHit, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	return f.hits, nil
}

func TestRetriever_RanksAuthoritativeDomainsFirst(t *testing.T) {
	p := &fakeProvider{available: true, hits: []ports.SearchHit{
		{URL: "https://randomblog.example.com/post", Title: "Random blog"},
		{URL: "https://www.who.int/news/item", Title: "WHO statement"},
	}}

	r := New([]ports.SearchProvider{p}, nil, nil, SearchDefaults{}, nil)

	items := r.Gather(context.Background(), "drinking hot water cures coronavirus", 10)
	require.NotEmpty(t, items)
	assert.Equal(t, "www.who.int", items[0].Domain)
	assert.Equal(t, authoritativeScore, items[0].Relevance)
}

func TestRetriever_DedupesByURL(t *testing.T) {
	p := &fakeProvider{available: true, hits: []ports.SearchHit{
		{URL: "https://example.com/a", Title: "One"},
		{URL: "https://example.com/a", Title: "Duplicate"},
	}}

	r := New([]ports.SearchProvider{p}, nil, nil, SearchDefaults{}, nil)
	items := r.Gather(context.Background(), "a claim about something", 10)

	count := 0

	for _, it := range items {
		if it.URL == "https://example.com/a" {
			count++
		}
	}

	assert.Equal(t, 1, count)
}

func TestRetriever_FallsBackWhenPrimaryUnavailable(t *testing.T) {
	primary := &fakeProvider{available: false}
	fallback := &fakeProvider{available: true, hits: []ports.SearchHit{
		{URL: "https://reuters.com/article", Title: "Reuters"},
	}}

	r := New([]ports.SearchProvider{primary, fallback}, nil, nil, SearchDefaults{}, nil)
	items := r.Gather(context.Background(), "some claim text here", 10)

	assert.Equal(t, 0, primary.calls)
	assert.NotZero(t, fallback.calls)
	require.NotEmpty(t, items)
}

func TestCircuitBreaker_OpensAfterThresholdFailures(t *testing.T) {
	cb := newCircuitBreaker()

	for i := 0; i < circuitBreakerThreshold; i++ {
		require.True(t, cb.canAttempt())
		cb.recordFailure()
	}

	assert.False(t, cb.canAttempt())
}

func TestCircuitBreaker_ClosesAfterHalfOpenSuccesses(t *testing.T) {
	cb := newCircuitBreaker()
	cb.resetAfter = 0 // force immediate half-open transition for the test

	for i := 0; i < circuitBreakerThreshold; i++ {
		cb.recordFailure()
	}

	require.Equal(t, circuitOpen, cb.state)
	require.True(t, cb.canAttempt()) // transitions to half-open

	for i := 0; i < halfOpenSuccessesToClose; i++ {
		cb.recordSuccess()
	}

	assert.Equal(t, circuitClosed, cb.state)
}

func TestRetriever_NoProvidersAvailableReturnsEmpty(t *testing.T) {
	p := &fakeProvider{available: true, err: errors.New("boom")}

	r := New([]ports.SearchProvider{p}, nil, nil, SearchDefaults{}, nil)
	items := r.Gather(context.Background(), "a claim about nothing useful", 10)

	assert.Empty(t, items)
}

type fakeFetcher struct {
	bodies map[string]string
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}

	return f.bodies[url], nil
}

func TestRetriever_GatherEnrichesTopItemsWithFetchedBody(t *testing.T) {
	p := &fakeProvider{available: true, hits: []ports.SearchHit{
		{URL: "https://www.who.int/a", Title: "A", Snippet: "snippet a"},
	}}
	fetcher := &fakeFetcher{bodies: map[string]string{
		"https://www.who.int/a": "the full fetched article body",
	}}

	r := New([]ports.SearchProvider{p}, fetcher, nil, SearchDefaults{}, nil)
	items := r.Gather(context.Background(), "a claim", 10)

	require.Len(t, items, 1)
	assert.Equal(t, "the full fetched article body", items[0].Snippet)
	assert.Equal(t, 1, fetcher.calls)
}

func TestRetriever_GatherKeepsSnippetWhenFetchFails(t *testing.T) {
	p := &fakeProvider{available: true, hits: []ports.SearchHit{
		{URL: "https://www.who.int/a", Title: "A", Snippet: "snippet a"},
	}}
	fetcher := &fakeFetcher{err: errors.New("fetch failed")}

	r := New([]ports.SearchProvider{p}, fetcher, nil, SearchDefaults{}, nil)
	items := r.Gather(context.Background(), "a claim", 10)

	require.Len(t, items, 1)
	assert.Equal(t, "snippet a", items[0].Snippet)
}

func TestRetriever_GatherBoundsFetchCount(t *testing.T) {
	hits := make([]ports.SearchHit, 0, 5)
	for i := 0; i < 5; i++ {
		hits = append(hits, ports.SearchHit{URL: fmt.Sprintf("https://www.who.int/%d", i), Title: "A"})
	}

	p := &fakeProvider{available: true, hits: hits}
	fetcher := &fakeFetcher{bodies: map[string]string{}}

	r := New([]ports.SearchProvider{p}, fetcher, nil, SearchDefaults{}, nil)
	items := r.Gather(context.Background(), "a claim", 10)

	require.Len(t, items, 5)
	assert.Equal(t, maxBodyFetchesPerGather, fetcher.calls)
}
