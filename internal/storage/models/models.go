package models

import "time"

// LoopRecord is the persisted summary row for one completed loop.
type LoopRecord struct {
	ID             string
	Query          string
	Iterations     int
	Converged      bool
	Cancelled      bool
	Summary        string
	AbstractionIDs []string
	LearningScore  float64
	DurationMS     int64
	CreatedAt      time.Time
}

// IterationRow is one iteration of a persisted loop.
type IterationRow struct {
	LoopID           string
	Iteration        int
	Query            string
	SourcesFound     int
	SourcesValidated int
	MeanCredibility  float64
	ConceptCount     int
	AbstractionCount int
	DurationMS       int64
}
