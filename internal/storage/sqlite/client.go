package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/loop"
	"github.com/cognitive-agent/backend/internal/storage/models"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// Client persists completed loops and their iterations. It satisfies
// loop.Recorder.
type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS loop_history (
		id TEXT PRIMARY KEY,
		query_text TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		converged INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		summary TEXT,
		abstraction_ids TEXT,
		learning_score REAL,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_loops_created ON loop_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_loops_converged ON loop_history(converged);

	CREATE TABLE IF NOT EXISTS loop_iterations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		loop_id TEXT NOT NULL,
		iteration INTEGER NOT NULL,
		query_text TEXT NOT NULL,
		sources_found INTEGER NOT NULL,
		sources_validated INTEGER NOT NULL,
		mean_credibility REAL,
		concept_count INTEGER,
		abstraction_count INTEGER,
		latency_ms INTEGER,
		FOREIGN KEY (loop_id) REFERENCES loop_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_iterations_loop ON loop_iterations(loop_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// RecordLoop writes the loop summary row and its iterations in one
// transaction.
func (c *Client) RecordLoop(ctx context.Context, result *loop.Result) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	abstractionIDs := make([]string, 0, len(result.Knowledge.Abstractions))
	for _, abstraction := range result.Knowledge.Abstractions {
		abstractionIDs = append(abstractionIDs, abstraction.ID)
	}
	idsJSON, _ := json.Marshal(abstractionIDs)

	converged := 0
	if result.Converged {
		converged = 1
	}
	cancelled := 0
	if result.Cancelled {
		cancelled = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loop_history (id, query_text, iterations, converged, cancelled,
			summary, abstraction_ids, learning_score, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.LoopID,
		result.Query,
		len(result.Iterations),
		converged,
		cancelled,
		result.Knowledge.Summary,
		string(idsJSON),
		result.Metrics.LearningScore,
		result.Duration.Milliseconds(),
		result.Timestamp.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert loop record: %w", err)
	}

	for _, iteration := range result.Iterations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO loop_iterations (loop_id, iteration, query_text, sources_found,
				sources_validated, mean_credibility, concept_count, abstraction_count, latency_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			result.LoopID,
			iteration.Iteration,
			iteration.Query,
			iteration.SourcesFound,
			iteration.SourcesValidated,
			iteration.MeanCredibility,
			iteration.ConceptCount,
			iteration.AbstractionCount,
			iteration.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert iteration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit loop record: %w", err)
	}

	logger.Info("Loop recorded",
		zap.String("loop_id", result.LoopID),
		zap.String("query", result.Query),
		zap.Int("iterations", len(result.Iterations)),
	)

	return nil
}

// GetLoopHistory returns recent loop summaries, newest first.
func (c *Client) GetLoopHistory(ctx context.Context, limit int) ([]models.LoopRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, query_text, iterations, converged, cancelled, summary,
			abstraction_ids, learning_score, latency_ms, created_at
		FROM loop_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get loop history: %w", err)
	}
	defer rows.Close()

	var records []models.LoopRecord
	for rows.Next() {
		var r models.LoopRecord
		var converged, cancelled int
		var idsJSON string
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Query, &r.Iterations, &converged, &cancelled,
			&r.Summary, &idsJSON, &r.LearningScore, &r.DurationMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Converged = converged == 1
		r.Cancelled = cancelled == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		json.Unmarshal([]byte(idsJSON), &r.AbstractionIDs)

		records = append(records, r)
	}

	return records, rows.Err()
}

// GetLoopIterations returns the stored iterations of one loop in order.
func (c *Client) GetLoopIterations(ctx context.Context, loopID string) ([]models.IterationRow, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT loop_id, iteration, query_text, sources_found, sources_validated,
			mean_credibility, concept_count, abstraction_count, latency_ms
		FROM loop_iterations
		WHERE loop_id = ?
		ORDER BY iteration ASC
	`, loopID)
	if err != nil {
		return nil, fmt.Errorf("failed to get iterations: %w", err)
	}
	defer rows.Close()

	var iterations []models.IterationRow
	for rows.Next() {
		var row models.IterationRow
		err := rows.Scan(&row.LoopID, &row.Iteration, &row.Query, &row.SourcesFound,
			&row.SourcesValidated, &row.MeanCredibility, &row.ConceptCount,
			&row.AbstractionCount, &row.DurationMS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		iterations = append(iterations, row)
	}

	return iterations, rows.Err()
}
