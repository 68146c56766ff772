package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/compiler"
	"github.com/cognitive-agent/backend/pkg/circuitbreaker"
	"github.com/cognitive-agent/backend/pkg/logger"
	"github.com/cognitive-agent/backend/pkg/retry"
)

const summarySystemPrompt = "You summarize compiled research knowledge. " +
	"Given a query and a list of concept clusters, write a short factual " +
	"summary of what was learned. Do not speculate beyond the clusters."

// Client generates loop summaries with a chat model. It satisfies
// loop.Summarizer; the orchestrator falls back to its deterministic
// summary when this client errors.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewClient(apiKey, model string, temperature float32, maxTokens int) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

func (c *Client) Summarize(ctx context.Context, query string, abstractions []compiler.Abstraction) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var summary string
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
					{Role: openai.ChatMessageRoleUser, Content: buildPrompt(query, abstractions)},
				},
			})
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}

			logger.Debug("Summary generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			summary = strings.TrimSpace(resp.Choices[0].Message.Content)
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return summary, nil
}

func buildPrompt(query string, abstractions []compiler.Abstraction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nConcept clusters:\n", query)
	for i, abstraction := range abstractions {
		fmt.Fprintf(&b, "%d. %s (level %s, confidence %.2f): %s\n",
			i+1, abstraction.Title, abstraction.Level, abstraction.Confidence,
			strings.Join(abstraction.Concepts, ", "))
	}
	return b.String()
}
