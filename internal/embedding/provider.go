// Package embedding provides clients for the supported embedding providers.
package embedding

import (
	"context"
	"errors"

	"github.com/relaydesk/relaydesk/internal/domain"
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
)

// Client defines the interface every embedding provider adapter satisfies.
type Client interface {
	// EmbedQuery generates an embedding for a single query text.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for a batch of document texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the embedding model this client is bound to.
	Model() string
	// Dimension returns the fixed vector dimension of the bound model.
	Dimension() int
}

// Credentials holds the per-provider API keys.
type Credentials struct {
	OpenAIAPIKey string
	VoyageAPIKey string
}

// NewClient constructs the adapter for a provider/model pair. The adapter
// is only built when first needed; construction fails when the provider's
// credentials are absent.
func NewClient(provider domain.EmbeddingProvider, model string, creds Credentials) (Client, error) {
	dim, err := domain.ModelDimension(model)
	if err != nil {
		return nil, err
	}

	switch provider {
	case domain.ProviderOpenAI:
		if creds.OpenAIAPIKey == "" {
			return nil, domain.ErrProviderNotConfigured
		}
		return newOpenAIClient(creds.OpenAIAPIKey, model, dim), nil
	case domain.ProviderVoyage:
		if creds.VoyageAPIKey == "" {
			return nil, domain.ErrProviderNotConfigured
		}
		return newVoyageClient(creds.VoyageAPIKey, model, dim), nil
	}
	return nil, domain.ErrInvalidProvider
}
