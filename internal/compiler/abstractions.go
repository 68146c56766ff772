package compiler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cognitive-agent/backend/pkg/hashutil"
)

const minAbstractionConcepts = 3

type conceptGroup struct {
	members       map[string]bool
	relationships []Relationship
}

// formAbstractions greedily groups relationships into connected
// components over the strength-sorted list: a relationship joins an
// existing group through a shared endpoint, extends it with the free
// endpoint, and is dropped when both endpoints already belong to
// different groups. Groups spanning at least three distinct concepts
// become abstractions.
func formAbstractions(relationships []Relationship) []Abstraction {
	var groups []*conceptGroup
	assigned := make(map[string]int)

	for _, rel := range relationships {
		sourceGroup, sourceOK := assigned[rel.Source]
		targetGroup, targetOK := assigned[rel.Target]

		switch {
		case !sourceOK && !targetOK:
			group := &conceptGroup{members: map[string]bool{rel.Source: true, rel.Target: true}}
			group.relationships = append(group.relationships, rel)
			groups = append(groups, group)
			assigned[rel.Source] = len(groups) - 1
			assigned[rel.Target] = len(groups) - 1

		case sourceOK && !targetOK:
			groups[sourceGroup].members[rel.Target] = true
			groups[sourceGroup].relationships = append(groups[sourceGroup].relationships, rel)
			assigned[rel.Target] = sourceGroup

		case !sourceOK && targetOK:
			groups[targetGroup].members[rel.Source] = true
			groups[targetGroup].relationships = append(groups[targetGroup].relationships, rel)
			assigned[rel.Source] = targetGroup

		case sourceGroup == targetGroup:
			groups[sourceGroup].relationships = append(groups[sourceGroup].relationships, rel)

			// Both endpoints consumed by earlier, distinct groups: skip.
		}
	}

	var abstractions []Abstraction
	for _, group := range groups {
		if len(group.members) < minAbstractionConcepts {
			continue
		}
		abstractions = append(abstractions, buildAbstraction(group))
	}

	return abstractions
}

func buildAbstraction(group *conceptGroup) Abstraction {
	terms := make([]string, 0, len(group.members))
	for term := range group.members {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	central := centralConcept(group)

	var totalStrength float64
	for _, rel := range group.relationships {
		totalStrength += rel.Strength
	}

	return Abstraction{
		ID:             AbstractionID(terms),
		Title:          central,
		Concepts:       terms,
		CentralConcept: central,
		Description: fmt.Sprintf("Cluster of %d concepts centred on %q: %s",
			len(terms), central, strings.Join(terms, ", ")),
		Level:      abstractionLevel(len(terms)),
		CreatedAt:  time.Now(),
		Confidence: totalStrength / float64(len(group.relationships)),
	}
}

// AbstractionID is a content hash over the sorted concept set; the same
// set always collapses to the same id across runs.
func AbstractionID(sortedTerms []string) string {
	return hashutil.ShortHash(strings.Join(sortedTerms, "|"))
}

// centralConcept picks the member with the highest summed relationship
// strength, breaking ties lexicographically for determinism.
func centralConcept(group *conceptGroup) string {
	strengths := make(map[string]float64, len(group.members))
	for _, rel := range group.relationships {
		strengths[rel.Source] += rel.Strength
		strengths[rel.Target] += rel.Strength
	}

	var central string
	var best float64
	for term := range group.members {
		s := strengths[term]
		if central == "" || s > best || (s == best && term < central) {
			central = term
			best = s
		}
	}
	return central
}

func abstractionLevel(conceptCount int) AbstractionLevel {
	switch {
	case conceptCount <= 4:
		return LevelLow
	case conceptCount <= 7:
		return LevelMedium
	default:
		return LevelHigh
	}
}
