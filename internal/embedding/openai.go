package embedding

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingAPI defines the subset of the OpenAI API used for embeddings
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// OpenAIClient generates embeddings through the OpenAI embeddings API.
type OpenAIClient struct {
	api       EmbeddingAPI
	model     string
	dimension int
}

func newOpenAIClient(apiKey, model string, dimension int) *OpenAIClient {
	return &OpenAIClient{
		api:       openai.NewClient(apiKey),
		model:     model,
		dimension: dimension,
	}
}

// NewOpenAIClientWithAPI creates a client with an injected API, for tests.
func NewOpenAIClientWithAPI(api EmbeddingAPI, model string, dimension int) *OpenAIClient {
	return &OpenAIClient{api: api, model: model, dimension: dimension}
}

// EmbedQuery generates an embedding for a single query text
func (c *OpenAIClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vectors, err := c.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for a batch of document texts
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}
	return c.embed(ctx, texts)
}

func (c *OpenAIClient) embed(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(resp.Data) != len(input) {
		return nil, errors.New("embedding response count does not match input count")
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != c.dimension {
			return nil, ErrWrongDimensions
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// Model returns the embedding model this client is bound to
func (c *OpenAIClient) Model() string {
	return c.model
}

// Dimension returns the fixed vector dimension of the bound model
func (c *OpenAIClient) Dimension() int {
	return c.dimension
}
