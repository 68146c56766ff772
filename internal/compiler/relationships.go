package compiler

import "sort"

// buildRelationships links every concept pair whose embedding cosine
// similarity clears the threshold, sorted by strength descending with a
// deterministic tie-break.
func buildRelationships(concepts []Concept, embeddings []Embedding, threshold float64) []Relationship {
	vectors := make(map[string][]float64, len(embeddings))
	for _, e := range embeddings {
		vectors[e.Concept] = e.Vector
	}

	var relationships []Relationship
	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			a, b := concepts[i], concepts[j]

			strength := CosineSimilarity(vectors[a.Term], vectors[b.Term])
			if strength < threshold {
				continue
			}

			relationships = append(relationships, Relationship{
				Source:     a.Term,
				Target:     b.Term,
				Type:       classifyRelationship(a.Type, b.Type),
				Strength:   strength,
				Confidence: (a.Confidence + b.Confidence) / 2,
			})
		}
	}

	sort.Slice(relationships, func(i, j int) bool {
		if relationships[i].Strength != relationships[j].Strength {
			return relationships[i].Strength > relationships[j].Strength
		}
		if relationships[i].Source != relationships[j].Source {
			return relationships[i].Source < relationships[j].Source
		}
		return relationships[i].Target < relationships[j].Target
	})

	return relationships
}

func classifyRelationship(a, b ConceptType) RelationType {
	if a == ConceptNumber || b == ConceptNumber {
		return RelationQuantitative
	}
	if isEntityType(a) && isEntityType(b) {
		return RelationEntity
	}
	return RelationSemantic
}

func isEntityType(t ConceptType) bool {
	return t == ConceptProperNoun || t == ConceptAcronym
}
