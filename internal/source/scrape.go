package source

import (
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxScrapedChars = 5000

// scrapeContent pulls the visible text of a result page, stripped of
// chrome elements and bounded in size. Callers fall back to the snippet
// when this fails.
func scrapeContent(httpClient *http.Client, urlStr string) (string, error) {
	resp, err := httpClient.Get(urlStr)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, footer, header, aside").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())

	if len(text) > maxScrapedChars {
		text = text[:maxScrapedChars]
	}

	return text, nil
}
