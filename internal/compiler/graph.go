package compiler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/pkg/logger"
)

// consolidationKeepRatio: when the graph hits its cap, keep the
// most-referenced 80% of entries.
const consolidationKeepRatio = 0.8

type entryKind string

const (
	kindConcept     entryKind = "concept"
	kindAbstraction entryKind = "abstraction"
)

type graphEntry struct {
	key         string
	kind        entryKind
	concept     *Concept
	abstraction *Abstraction
	references  int
	updatedAt   time.Time
}

// KnowledgeGraph is the shared store of concepts and abstractions
// accumulated across loop runs. Only the compiler mutates it; reads and
// writes from concurrent loop invocations go through one RWMutex.
type KnowledgeGraph struct {
	mu         sync.RWMutex
	entries    map[string]*graphEntry
	maxEntries int
}

func NewKnowledgeGraph(maxEntries int) *KnowledgeGraph {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &KnowledgeGraph{
		entries:    make(map[string]*graphEntry),
		maxEntries: maxEntries,
	}
}

// Merge upserts an iteration's concepts and abstractions, bumping
// reference counts for every concept an abstraction mentions, and
// consolidates when the size cap is exceeded.
func (g *KnowledgeGraph) Merge(concepts []Concept, abstractions []Abstraction) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()

	for i := range concepts {
		concept := concepts[i]
		key := "concept:" + concept.Term
		if existing, ok := g.entries[key]; ok {
			existing.concept.Frequency += concept.Frequency
			if concept.Confidence > existing.concept.Confidence {
				existing.concept.Confidence = concept.Confidence
			}
			existing.updatedAt = now
			continue
		}
		g.entries[key] = &graphEntry{
			key:       key,
			kind:      kindConcept,
			concept:   &concept,
			updatedAt: now,
		}
	}

	for i := range abstractions {
		abstraction := abstractions[i]
		key := "abstraction:" + abstraction.ID
		if existing, ok := g.entries[key]; ok {
			existing.references++
			existing.updatedAt = now
		} else {
			g.entries[key] = &graphEntry{
				key:         key,
				kind:        kindAbstraction,
				abstraction: &abstraction,
				references:  1,
				updatedAt:   now,
			}
		}

		for _, term := range abstraction.Concepts {
			if entry, ok := g.entries["concept:"+term]; ok {
				entry.references++
			}
		}
	}

	if len(g.entries) > g.maxEntries {
		g.consolidateLocked()
	}
}

// consolidateLocked keeps the most-referenced entries and discards the
// rest. Caller holds the write lock.
func (g *KnowledgeGraph) consolidateLocked() {
	keep := int(float64(g.maxEntries) * consolidationKeepRatio)

	entries := make([]*graphEntry, 0, len(g.entries))
	for _, entry := range g.entries {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].references != entries[j].references {
			return entries[i].references > entries[j].references
		}
		return entries[i].key < entries[j].key
	})

	discarded := len(entries) - keep
	for _, entry := range entries[keep:] {
		delete(g.entries, entry.key)
	}

	logger.Info("Knowledge graph consolidated",
		zap.Int("kept", keep),
		zap.Int("discarded", discarded),
	)
}

func (g *KnowledgeGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// QueryOptions bound a read-only graph traversal.
type QueryOptions struct {
	MaxResults      int
	MinConfidence   float64
	IncludeConcepts bool
}

type QueryResult struct {
	Results         []Abstraction `json:"results"`
	RelatedConcepts []string      `json:"related_concepts,omitempty"`
}

// Query walks breadth-first from a concept to the abstractions that
// reference it, then outward through their member concepts, up to the
// given depth. A visited set guards against cycles.
func (g *KnowledgeGraph) Query(concept string, depth int, opts QueryOptions) *QueryResult {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 10
	}
	if depth <= 0 {
		depth = 2
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	result := &QueryResult{}
	visitedConcepts := map[string]bool{concept: true}
	visitedAbstractions := make(map[string]bool)

	frontier := []string{concept}
	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string

		for _, entry := range g.sortedAbstractionsLocked() {
			abstraction := entry.abstraction
			if visitedAbstractions[abstraction.ID] || abstraction.Confidence < opts.MinConfidence {
				continue
			}
			if !mentionsAny(abstraction, frontier) {
				continue
			}

			visitedAbstractions[abstraction.ID] = true
			if len(result.Results) < opts.MaxResults {
				result.Results = append(result.Results, *abstraction)
			}

			for _, term := range abstraction.Concepts {
				if !visitedConcepts[term] {
					visitedConcepts[term] = true
					next = append(next, term)
				}
			}
		}

		frontier = next
	}

	if opts.IncludeConcepts {
		delete(visitedConcepts, concept)
		related := make([]string, 0, len(visitedConcepts))
		for term := range visitedConcepts {
			related = append(related, term)
		}
		sort.Strings(related)
		result.RelatedConcepts = related
	}

	return result
}

func (g *KnowledgeGraph) sortedAbstractionsLocked() []*graphEntry {
	entries := make([]*graphEntry, 0)
	for _, entry := range g.entries {
		if entry.kind == kindAbstraction {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].references != entries[j].references {
			return entries[i].references > entries[j].references
		}
		return entries[i].key < entries[j].key
	})
	return entries
}

func mentionsAny(abstraction *Abstraction, terms []string) bool {
	for _, term := range terms {
		for _, member := range abstraction.Concepts {
			if member == term {
				return true
			}
		}
	}
	return false
}
