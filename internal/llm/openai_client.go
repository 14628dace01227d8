// ABOUTME: OpenAI embedding client used as the embed() collaborator
// ABOUTME: Retries transient failures with exponential backoff and a per-call timeout
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/harper/threadsearch/internal/util"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	EmbeddingModel openai.EmbeddingModel
	// Dimensions requests shortened embeddings; 0 keeps the model default.
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		EmbeddingModel: DefaultEmbeddingModel,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
}

// embeddingsAPI is the slice of the go-openai client the embedder calls.
type embeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIEmbedder wraps the OpenAI embeddings endpoint with retry logic
type OpenAIEmbedder struct {
	client     embeddingsAPI
	model      openai.EmbeddingModel
	dimensions int
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIEmbedder creates an embedder with the given API key using default configuration
func NewOpenAIEmbedder(apiKey string) (*OpenAIEmbedder, error) {
	return NewOpenAIEmbedderWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIEmbedderWithConfig creates an embedder with custom configuration
func NewOpenAIEmbedderWithConfig(config *ClientConfig) (*OpenAIEmbedder, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return newOpenAIEmbedder(openai.NewClientWithConfig(clientConfig), config), nil
}

func newOpenAIEmbedder(api embeddingsAPI, config *ClientConfig) *OpenAIEmbedder {
	model := config.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIEmbedder{
		client:     api,
		model:      model,
		dimensions: config.Dimensions,
		timeout:    timeout,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}
}

// Embed returns the embedding vector for text. The text is sent unchanged,
// including empty or whitespace-only input.
func (c *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Wait(ctx, c.retryDelay, attempt); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input:      []string{text},
			Model:      c.model,
			Dimensions: c.dimensions,
		})
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}

		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("attempt %d: no embeddings returned", attempt+1)
			continue
		}

		return resp.Data[0].Embedding, nil
	}

	return nil, fmt.Errorf("failed to generate embedding after %d attempts: %w", c.maxRetries+1, lastErr)
}

// Model returns the embedding model name.
func (c *OpenAIEmbedder) Model() string {
	return string(c.model)
}
