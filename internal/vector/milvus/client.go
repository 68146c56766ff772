package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/pkg/circuitbreaker"
	"github.com/cognitive-agent/backend/pkg/logger"
	"github.com/cognitive-agent/backend/pkg/retry"
)

// Client stores concept embeddings for similarity search. It satisfies
// loop.EmbeddingIndex.
type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

type SearchResult struct {
	Term  string
	Score float32
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	cb := circuitbreaker.New("milvus", circuitbreaker.Config{
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

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
		cb:             cb,
		retryConfig:    retryConfig,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) executeWithRetry(ctx context.Context, operation func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return m.cb.Execute(ctx, func() error {
		return retry.Do(ctx, m.retryConfig, func() error {
			return operation(ctx)
		})
	})
}

func (m *Client) CreateCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Concept embeddings",
		Fields: []*entity.Field{
			{
				Name:       "term",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "indexed_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.IP, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

// IndexEmbeddings upserts an iteration's concept embeddings.
func (m *Client) IndexEmbeddings(ctx context.Context, embeddings []compiler.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	terms := make([]string, 0, len(embeddings))
	vectors := make([][]float32, 0, len(embeddings))
	timestamps := make([]int64, 0, len(embeddings))

	now := time.Now().Unix()
	for _, embedding := range embeddings {
		vector := make([]float32, len(embedding.Vector))
		for i, v := range embedding.Vector {
			vector[i] = float32(v)
		}
		terms = append(terms, embedding.Concept)
		vectors = append(vectors, vector)
		timestamps = append(timestamps, now)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("term", terms),
		entity.NewColumnFloatVector("embedding", m.vectorDim, vectors),
		entity.NewColumnInt64("indexed_at", timestamps),
	}

	err := m.executeWithRetry(ctx, func(ctx context.Context) error {
		if _, err := m.client.Upsert(ctx, m.collectionName, "", columns...); err != nil {
			return fmt.Errorf("failed to upsert embeddings: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("Embeddings indexed", zap.Int("count", len(embeddings)))

	return nil
}

// SearchSimilar returns the terms closest to the query vector by inner
// product.
func (m *Client) SearchSimilar(ctx context.Context, vector []float64, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}

	query := make([]float32, len(vector))
	for i, v := range vector {
		query[i] = float32(v)
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	var results []client.SearchResult
	err = m.executeWithRetry(ctx, func(ctx context.Context) error {
		results, err = m.client.Search(
			ctx,
			m.collectionName,
			nil,
			"",
			[]string{"term"},
			[]entity.Vector{entity.FloatVector(query)},
			"embedding",
			entity.IP,
			topK,
			sp,
		)
		if err != nil {
			return fmt.Errorf("failed to search embeddings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var matches []SearchResult
	for _, result := range results {
		termColumn, ok := result.Fields.GetColumn("term").(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		for i := 0; i < result.ResultCount; i++ {
			term, err := termColumn.ValueByIdx(i)
			if err != nil {
				continue
			}
			matches = append(matches, SearchResult{
				Term:  term,
				Score: result.Scores[i],
			})
		}
	}

	return matches, nil
}
