package compiler

import (
	"errors"
	"time"
)

var ErrEmptyInput = errors.New("no compilable text")

type ConceptType string

const (
	ConceptNumber     ConceptType = "number"
	ConceptAcronym    ConceptType = "acronym"
	ConceptProperNoun ConceptType = "proper_noun"
	ConceptCommonNoun ConceptType = "common_noun"
)

type Concept struct {
	Term       string      `json:"term"`
	Frequency  int         `json:"frequency"`
	Type       ConceptType `json:"type"`
	Confidence float64     `json:"confidence"`
}

type Embedding struct {
	Concept    string    `json:"concept"`
	Vector     []float64 `json:"vector"`
	Dimensions int       `json:"dimensions"`
}

type RelationType string

const (
	RelationEntity       RelationType = "entity_relation"
	RelationQuantitative RelationType = "quantitative"
	RelationSemantic     RelationType = "semantic"
)

type Relationship struct {
	Source     string       `json:"source"`
	Target     string       `json:"target"`
	Type       RelationType `json:"type"`
	Strength   float64      `json:"strength"`
	Confidence float64      `json:"confidence"`
}

type AbstractionLevel string

const (
	LevelLow    AbstractionLevel = "low"
	LevelMedium AbstractionLevel = "medium"
	LevelHigh   AbstractionLevel = "high"
)

// Abstraction is a higher-level knowledge unit formed from a connected
// group of related concepts. ID is a content hash of the sorted concept
// set, so the same concept set always collapses to the same abstraction.
type Abstraction struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Concepts       []string         `json:"concepts"`
	CentralConcept string           `json:"central_concept"`
	Description    string           `json:"description"`
	Level          AbstractionLevel `json:"level"`
	CreatedAt      time.Time        `json:"created_at"`
	Confidence     float64          `json:"confidence"`
}

type Metadata struct {
	SourceCount       int           `json:"source_count"`
	ConceptCount      int           `json:"concept_count"`
	RelationshipCount int           `json:"relationship_count"`
	AbstractionCount  int           `json:"abstraction_count"`
	Duration          time.Duration `json:"duration"`
}

// Compilation is the result of one compile call over the validated texts
// of a single iteration.
type Compilation struct {
	Concepts      []Concept      `json:"concepts"`
	Embeddings    []Embedding    `json:"embeddings"`
	Relationships []Relationship `json:"relationships"`
	Abstractions  []Abstraction  `json:"abstractions"`
	Metadata      Metadata       `json:"metadata"`
}

type Config struct {
	MaxConcepts         int
	EmbeddingDimensions int
	SimilarityThreshold float64
	GraphMaxEntries     int
	QueryDepth          int
}

func (c Config) withDefaults() Config {
	if c.MaxConcepts <= 0 {
		c.MaxConcepts = 50
	}
	if c.EmbeddingDimensions <= 0 {
		c.EmbeddingDimensions = 384
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.7
	}
	if c.GraphMaxEntries <= 0 {
		c.GraphMaxEntries = 10000
	}
	if c.QueryDepth <= 0 {
		c.QueryDepth = 2
	}
	return c
}
