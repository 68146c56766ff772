package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingCredential = errors.New("missing API credential")
	ErrUnknownSource     = errors.New("unknown source")
	ErrNoAdapters        = errors.New("no source adapters registered")
)

// Result is one externally retrieved candidate document. Immutable once
// produced by an adapter.
type Result struct {
	URL            string     `json:"url"`
	Title          string     `json:"title"`
	Snippet        string     `json:"snippet"`
	Content        string     `json:"content"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	RelevanceScore float64    `json:"relevance_score"`
	Origin         string     `json:"origin"`
}

type Options struct {
	Sources    []string
	MaxResults int
	Freshness  string
}

// Adapter is the capability interface each search provider implements.
// Adding a provider means registering another Adapter; the orchestrator
// never changes.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// SourceError records a single provider failure. Per-source failures are
// diagnostics, never fatal for the whole search.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
