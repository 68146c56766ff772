package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/logger"
)

// duckduckgoAdapter scrapes the keyless HTML endpoint; it is the default
// provider when no API keys are configured.
type duckduckgoAdapter struct {
	httpClient *http.Client
}

func NewDuckDuckGoAdapter(httpClient *http.Client) Adapter {
	return &duckduckgoAdapter{httpClient: httpClient}
}

func (a *duckduckgoAdapter) Name() string {
	return "duckduckgo"
}

func (a *duckduckgoAdapter) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	results := make([]Result, 0, maxResults)
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		title := s.Find("a.result__a").Text()
		link, _ := s.Find("a.result__a").Attr("href")
		snippet := s.Find("a.result__snippet").Text()

		if title == "" || link == "" {
			return true
		}

		content, err := scrapeContent(a.httpClient, link)
		if err != nil {
			content = snippet
		}

		results = append(results, Result{
			URL:            link,
			Title:          title,
			Snippet:        snippet,
			Content:        content,
			RelevanceScore: rankScore(i),
			Origin:         a.Name(),
		})
		return true
	})

	logger.Info("DuckDuckGo search completed", zap.Int("results", len(results)))

	return results, nil
}
