package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/logger"
)

type serpAPIAdapter struct {
	apiKey     string
	httpClient *http.Client
}

func NewSerpAPIAdapter(apiKey string, httpClient *http.Client) (Adapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("serpapi: %w", ErrMissingCredential)
	}
	return &serpAPIAdapter{apiKey: apiKey, httpClient: httpClient}, nil
}

func (a *serpAPIAdapter) Name() string {
	return "serpapi"
}

func (a *serpAPIAdapter) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("api_key", a.apiKey)
	params.Add("num", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, "GET", "https://serpapi.com/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var searchResp struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Date    string `json:"date"`
		} `json:"organic_results"`
	}

	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(searchResp.OrganicResults))
	for i, r := range searchResp.OrganicResults {
		if i >= maxResults {
			break
		}

		content, err := scrapeContent(a.httpClient, r.Link)
		if err != nil {
			logger.Warn("Failed to scrape content", zap.String("url", r.Link), zap.Error(err))
			content = r.Snippet
		}

		results = append(results, Result{
			URL:            r.Link,
			Title:          r.Title,
			Snippet:        r.Snippet,
			Content:        content,
			PublishedAt:    parsePublishedDate(r.Date),
			RelevanceScore: rankScore(i),
			Origin:         a.Name(),
		})
	}

	logger.Info("SerpAPI search completed", zap.Int("results", len(results)))

	return results, nil
}

// rankScore derives a relevance score from result position for providers
// that return ranked lists without explicit scores.
func rankScore(position int) float64 {
	score := 1.0 - 0.05*float64(position)
	if score < 0.1 {
		score = 0.1
	}
	return score
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"Jan 2, 2006",
	"Jan 02, 2006",
	"2 Jan 2006",
}

func parsePublishedDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
