package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cognitive-agent/backend/internal/source"
)

var (
	bracketCitationPattern = regexp.MustCompile(`\[\d+\]`)
	parenCitationPattern   = regexp.MustCompile(`\([A-Z][a-z]+,?\s+\d{4}\)`)
)

// scoreCredibility blends domain authority (0.3), content quality (0.25),
// citation cross-reference (0.2), author expertise (0.15) and fact-check
// cross-reference (0.1) into one [0,1] score.
func scoreCredibility(src source.Result) (float64, error) {
	parsed, err := url.Parse(src.URL)
	if err != nil || parsed.Host == "" {
		return 0, fmt.Errorf("unparsable source URL %q", src.URL)
	}

	text := strings.ToLower(src.Content)

	score := authorityScore(parsed.Host)*0.3 +
		contentQualityScore(src.Content)*0.25 +
		citationScore(src.Content)*0.2 +
		termDensityScore(text, expertiseIndicators, 3)*0.15 +
		termDensityScore(text, factReferenceIndicators, 3)*0.1

	return clamp01(score), nil
}

func authorityScore(host string) float64 {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	if score, ok := domainAuthority[host]; ok {
		return score
	}
	for domain, score := range domainAuthority {
		if strings.HasSuffix(host, "."+domain) {
			return score
		}
	}

	switch {
	case strings.HasSuffix(host, ".gov"):
		return 0.95
	case strings.HasSuffix(host, ".edu"):
		return 0.9
	case strings.HasSuffix(host, ".org"):
		return 0.65
	default:
		return neutralScore
	}
}

func contentQualityScore(content string) float64 {
	if content == "" {
		return 0
	}

	lengthScore := float64(len(content)) / 2000
	if lengthScore > 1 {
		lengthScore = 1
	}

	structureScore := 0.0
	if strings.Count(content, "\n") >= 3 {
		structureScore += 0.5
	}
	if strings.Contains(content, ". ") {
		structureScore += 0.5
	}

	citationMarkers := len(bracketCitationPattern.FindAllString(content, -1)) +
		len(parenCitationPattern.FindAllString(content, -1))
	markerScore := float64(citationMarkers) / 5
	if markerScore > 1 {
		markerScore = 1
	}

	vocabularyScore := termDensityScore(strings.ToLower(content), professionalVocabulary, 5)

	return (lengthScore + structureScore + markerScore + vocabularyScore) / 4
}

func citationScore(content string) float64 {
	count := len(bracketCitationPattern.FindAllString(content, -1)) +
		len(parenCitationPattern.FindAllString(content, -1)) +
		strings.Count(strings.ToLower(content), "et al") +
		strings.Count(strings.ToLower(content), "doi:")

	score := float64(count) / 5
	if score > 1 {
		score = 1
	}
	return score
}

// termDensityScore counts distinct lexicon hits, saturating at the given
// number of hits.
func termDensityScore(lowerText string, terms []string, saturation int) float64 {
	hits := 0
	for _, term := range terms {
		if strings.Contains(lowerText, term) {
			hits++
		}
	}
	score := float64(hits) / float64(saturation)
	if score > 1 {
		score = 1
	}
	return score
}
