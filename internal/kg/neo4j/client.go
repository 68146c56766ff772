package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/pkg/circuitbreaker"
	"github.com/cognitive-agent/backend/pkg/logger"
	"github.com/cognitive-agent/backend/pkg/retry"
)

// Client projects compiled knowledge into a Neo4j graph. It satisfies
// loop.GraphMirror; the in-memory knowledge graph remains the source of
// truth and mirror failures are never fatal to a loop.
type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	cb := circuitbreaker.New("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Neo4j client initialized", zap.String("uri", uri))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

// MirrorCompilation upserts an iteration's concepts and abstractions,
// linking each abstraction to its member concepts.
func (c *Client) MirrorCompilation(ctx context.Context, loopID string, compilation *compiler.Compilation) error {
	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		for _, concept := range compilation.Concepts {
			if err := upsertConcept(ctx, session, concept); err != nil {
				return err
			}
		}
		for _, abstraction := range compilation.Abstractions {
			if err := upsertAbstraction(ctx, session, loopID, abstraction); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Compilation mirrored to Neo4j",
		zap.String("loop_id", loopID),
		zap.Int("concepts", len(compilation.Concepts)),
		zap.Int("abstractions", len(compilation.Abstractions)),
	)

	return nil
}

func upsertConcept(ctx context.Context, session neo4j.SessionWithContext, concept compiler.Concept) error {
	query := `
		MERGE (c:Concept {term: $term})
		SET c.type = $type,
		    c.confidence = $confidence,
		    c.updated_at = timestamp()
		ON CREATE SET c.frequency = $frequency
		ON MATCH SET c.frequency = c.frequency + $frequency
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"term":       concept.Term,
		"type":       string(concept.Type),
		"confidence": concept.Confidence,
		"frequency":  concept.Frequency,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert concept: %w", err)
	}
	return nil
}

func upsertAbstraction(ctx context.Context, session neo4j.SessionWithContext, loopID string, abstraction compiler.Abstraction) error {
	query := `
		MERGE (a:Abstraction {id: $id})
		SET a.title = $title,
		    a.central_concept = $central_concept,
		    a.level = $level,
		    a.confidence = $confidence,
		    a.loop_id = $loop_id,
		    a.updated_at = timestamp()
		WITH a
		UNWIND $concepts AS term
		MATCH (c:Concept {term: term})
		MERGE (a)-[:CONTAINS]->(c)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":              abstraction.ID,
		"title":           abstraction.Title,
		"central_concept": abstraction.CentralConcept,
		"level":           string(abstraction.Level),
		"confidence":      abstraction.Confidence,
		"loop_id":         loopID,
		"concepts":        abstraction.Concepts,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert abstraction: %w", err)
	}
	return nil
}

// RelatedConcepts returns terms sharing an abstraction with the given
// concept, strongest abstractions first.
func (c *Client) RelatedConcepts(ctx context.Context, term string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	var related []string
	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		query := `
			MATCH (a:Abstraction)-[:CONTAINS]->(c:Concept {term: $term})
			MATCH (a)-[:CONTAINS]->(other:Concept)
			WHERE other.term <> $term
			RETURN DISTINCT other.term AS term, a.confidence AS confidence
			ORDER BY confidence DESC, term ASC
			LIMIT $limit
		`

		result, err := session.Run(ctx, query, map[string]interface{}{
			"term":  term,
			"limit": limit,
		})
		if err != nil {
			return fmt.Errorf("failed to query related concepts: %w", err)
		}

		for result.Next(ctx) {
			if value, ok := result.Record().Get("term"); ok {
				if s, ok := value.(string); ok {
					related = append(related, s)
				}
			}
		}
		return result.Err()
	})
	if err != nil {
		return nil, err
	}

	return related, nil
}
