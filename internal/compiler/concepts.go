package compiler

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	prose "github.com/jdkato/prose/v2"
)

const minTermLength = 4

var (
	properBigramPattern = regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)
	yearPattern         = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	acronymPattern      = regexp.MustCompile(`\b[A-Z]{2,6}\b`)
)

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "have": true,
	"they": true, "been": true, "were": true, "their": true, "which": true,
	"would": true, "there": true, "about": true, "when": true, "more": true,
	"these": true, "than": true, "also": true, "into": true, "other": true,
	"some": true, "such": true, "only": true, "over": true, "most": true,
	"where": true, "while": true, "because": true, "between": true,
}

// extractConcepts derives the iteration's concept set from concatenated
// validated-source text: term frequency over tokenized words, unioned
// with entity patterns, capped at maxConcepts. Fully deterministic for a
// given input.
func extractConcepts(text string, maxConcepts int) ([]Concept, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithTagging(false),
	)
	if err != nil {
		return nil, err
	}

	frequencies := make(map[string]int)
	totalWords := 0

	for _, token := range doc.Tokens() {
		word := strings.ToLower(token.Text)
		if len(word) < minTermLength || stopwords[word] || !isAlphabetic(word) {
			continue
		}
		frequencies[word]++
		totalWords++
	}

	// TF importance cut: a term mentioned once is noise at corpus level.
	for term, freq := range frequencies {
		if freq < 2 {
			delete(frequencies, term)
		}
	}

	for _, match := range properBigramPattern.FindAllString(text, -1) {
		frequencies[match]++
	}
	for _, match := range yearPattern.FindAllString(text, -1) {
		frequencies[match]++
	}
	for _, match := range acronymPattern.FindAllString(text, -1) {
		frequencies[match]++
	}

	maxFreq := 0
	for _, freq := range frequencies {
		if freq > maxFreq {
			maxFreq = freq
		}
	}

	concepts := make([]Concept, 0, len(frequencies))
	for term, freq := range frequencies {
		concepts = append(concepts, Concept{
			Term:       term,
			Frequency:  freq,
			Type:       classifyConcept(term),
			Confidence: conceptConfidence(term, freq, maxFreq),
		})
	}

	sort.Slice(concepts, func(i, j int) bool {
		if concepts[i].Frequency != concepts[j].Frequency {
			return concepts[i].Frequency > concepts[j].Frequency
		}
		return concepts[i].Term < concepts[j].Term
	})

	if len(concepts) > maxConcepts {
		concepts = concepts[:maxConcepts]
	}

	return concepts, nil
}

func classifyConcept(term string) ConceptType {
	if yearPattern.MatchString(term) || isNumeric(term) {
		return ConceptNumber
	}
	if term == strings.ToUpper(term) && len(term) >= 2 && isAlphabetic(term) {
		return ConceptAcronym
	}
	if first := []rune(term)[0]; unicode.IsUpper(first) {
		return ConceptProperNoun
	}
	return ConceptCommonNoun
}

func conceptConfidence(term string, freq, maxFreq int) float64 {
	if maxFreq == 0 {
		return 0
	}

	frequencyComponent := float64(freq) / float64(maxFreq)

	lengthComponent := float64(len(term)) / 20
	if lengthComponent > 1 {
		lengthComponent = 1
	}

	confidence := frequencyComponent*0.7 + lengthComponent*0.3
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}
