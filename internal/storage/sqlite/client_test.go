package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/internal/loop"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func sampleResult() *loop.Result {
	return &loop.Result{
		LoopID:    "loop-123",
		Query:     "training data quality",
		Converged: true,
		Iterations: []loop.IterationRecord{
			{
				Iteration:        1,
				Query:            "training data quality",
				SourcesFound:     5,
				SourcesValidated: 4,
				MeanCredibility:  0.7,
				ConceptCount:     12,
				AbstractionCount: 2,
				Duration:         120 * time.Millisecond,
			},
			{
				Iteration:        2,
				Query:            "training data quality datasets",
				SourcesFound:     4,
				SourcesValidated: 4,
				MeanCredibility:  0.75,
				ConceptCount:     15,
				AbstractionCount: 3,
				Duration:         90 * time.Millisecond,
			},
		},
		Knowledge: loop.Knowledge{
			Abstractions: []compiler.Abstraction{{ID: "abs-1"}, {ID: "abs-2"}},
			Summary:      "Compiled knowledge about training data quality.",
		},
		Metrics:   loop.Metrics{LearningScore: 0.6},
		Timestamp: time.Now(),
		Duration:  250 * time.Millisecond,
	}
}

func TestRecordLoopRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.RecordLoop(ctx, sampleResult()))

	records, err := client.GetLoopHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, "loop-123", record.ID)
	assert.Equal(t, "training data quality", record.Query)
	assert.Equal(t, 2, record.Iterations)
	assert.True(t, record.Converged)
	assert.False(t, record.Cancelled)
	assert.Equal(t, []string{"abs-1", "abs-2"}, record.AbstractionIDs)
	assert.InDelta(t, 0.6, record.LearningScore, 1e-9)
}

func TestGetLoopIterationsOrdered(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.RecordLoop(ctx, sampleResult()))

	iterations, err := client.GetLoopIterations(ctx, "loop-123")
	require.NoError(t, err)
	require.Len(t, iterations, 2)

	assert.Equal(t, 1, iterations[0].Iteration)
	assert.Equal(t, 2, iterations[1].Iteration)
	assert.Equal(t, "training data quality datasets", iterations[1].Query)
	assert.Equal(t, 3, iterations[1].AbstractionCount)
}

func TestGetLoopHistoryLimitAndOrder(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i, id := range []string{"loop-a", "loop-b", "loop-c"} {
		result := sampleResult()
		result.LoopID = id
		result.Timestamp = time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, client.RecordLoop(ctx, result))
	}

	records, err := client.GetLoopHistory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "loop-c", records[0].ID, "history is newest first")
}

func TestGetLoopIterationsUnknownLoop(t *testing.T) {
	client := newTestClient(t)

	iterations, err := client.GetLoopIterations(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, iterations)
}
