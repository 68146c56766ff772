package source

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/metrics"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// Client fans a query out to every requested provider concurrently,
// throttled per source, and aggregates the settled results. One source
// failing never aborts the others.
type Client struct {
	registry   *Registry
	limiter    *Limiter
	timeout    time.Duration
	maxResults int
}

// Response carries aggregated results plus per-source diagnostics. An
// all-sources failure yields empty Results with every error attached.
type Response struct {
	Results []Result
	Errors  []*SourceError
}

func NewClient(registry *Registry, limiter *Limiter, timeout time.Duration, maxResults int) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		registry:   registry,
		limiter:    limiter,
		timeout:    timeout,
		maxResults: maxResults,
	}
}

func (c *Client) Registry() *Registry {
	return c.registry
}

func (c *Client) Limiter() *Limiter {
	return c.limiter
}

type settled struct {
	source  string
	results []Result
	err     error
}

func (c *Client) Search(ctx context.Context, query string, opts Options) (*Response, error) {
	names := opts.Sources
	if len(names) == 0 {
		names = c.registry.Names()
	}
	if len(names) == 0 {
		return nil, ErrNoAdapters
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	logger.Info("Fanning out search",
		zap.String("query", query),
		zap.Strings("sources", names),
		zap.Int("max_results", maxResults),
	)

	outcomes := make(chan settled, len(names))
	for _, name := range names {
		go c.searchOne(ctx, name, query, maxResults, outcomes)
	}

	// Settle all: every source reports back, success or error, before
	// aggregation begins.
	response := &Response{}
	seen := make(map[string]bool)
	for range names {
		outcome := <-outcomes
		if outcome.err != nil {
			metrics.SourceRequests.WithLabelValues(outcome.source, "error").Inc()
			response.Errors = append(response.Errors, &SourceError{Source: outcome.source, Err: outcome.err})
			continue
		}
		metrics.SourceRequests.WithLabelValues(outcome.source, "success").Inc()
		for _, result := range outcome.results {
			if result.URL == "" || seen[result.URL] {
				continue
			}
			seen[result.URL] = true
			response.Results = append(response.Results, result)
		}
	}

	sortResults(response.Results)
	metrics.SourcesRetrieved.Observe(float64(len(response.Results)))

	logger.Info("Search aggregated",
		zap.String("query", query),
		zap.Int("results", len(response.Results)),
		zap.Int("failed_sources", len(response.Errors)),
	)

	return response, nil
}

func (c *Client) searchOne(ctx context.Context, name, query string, maxResults int, outcomes chan<- settled) {
	adapter, ok := c.registry.Get(name)
	if !ok {
		outcomes <- settled{source: name, err: fmt.Errorf("%w: %s", ErrUnknownSource, name)}
		return
	}

	if err := c.limiter.Wait(ctx, name); err != nil {
		outcomes <- settled{source: name, err: fmt.Errorf("rate limit wait: %w", err)}
		return
	}

	searchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := adapter.Search(searchCtx, query, maxResults)
	if err != nil {
		logger.Warn("Source search failed", zap.String("source", name), zap.Error(err))
		outcomes <- settled{source: name, err: err}
		return
	}

	outcomes <- settled{source: name, results: results}
}

// sortResults orders by relevance descending, breaking ties by recency
// (undated results last).
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		switch {
		case results[i].PublishedAt == nil:
			return false
		case results[j].PublishedAt == nil:
			return true
		default:
			return results[i].PublishedAt.After(*results[j].PublishedAt)
		}
	})
}
