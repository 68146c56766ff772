package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/logger"
)

type braveAdapter struct {
	apiKey     string
	httpClient *http.Client
}

func NewBraveAdapter(apiKey string, httpClient *http.Client) (Adapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("brave: %w", ErrMissingCredential)
	}
	return &braveAdapter{apiKey: apiKey, httpClient: httpClient}, nil
}

func (a *braveAdapter) Name() string {
	return "brave"
}

func (a *braveAdapter) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	params := url.Values{}
	params.Add("q", query)
	params.Add("count", fmt.Sprintf("%d", maxResults))

	req, err := http.NewRequestWithContext(ctx, "GET",
		"https://api.search.brave.com/res/v1/web/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", a.apiKey)

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
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
				PageAge     string `json:"page_age"`
			} `json:"results"`
		} `json:"web"`
	}

	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]Result, 0, len(searchResp.Web.Results))
	for i, r := range searchResp.Web.Results {
		if i >= maxResults {
			break
		}

		content, err := scrapeContent(a.httpClient, r.URL)
		if err != nil {
			logger.Warn("Failed to scrape content", zap.String("url", r.URL), zap.Error(err))
			content = r.Description
		}

		results = append(results, Result{
			URL:            r.URL,
			Title:          r.Title,
			Snippet:        r.Description,
			Content:        content,
			PublishedAt:    parsePublishedDate(r.PageAge),
			RelevanceScore: rankScore(i),
			Origin:         a.Name(),
		})
	}

	logger.Info("Brave search completed", zap.Int("results", len(results)))

	return results, nil
}
