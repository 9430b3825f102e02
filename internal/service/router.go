package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/embedding"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
)

// clientFactory builds an embedding client for a binding. Swapped in tests.
type clientFactory func(provider domain.EmbeddingProvider, model string, creds embedding.Credentials) (embedding.Client, error)

// RouterConfig configures the EmbeddingRouter.
type RouterConfig struct {
	Credentials    embedding.Credentials
	BaseCollection string
	// CacheSize enables an in-process LRU over query embeddings when > 0.
	CacheSize int
	CacheTTL  time.Duration
}

// EmbeddingRouter owns the process-wide active embedding selection: which
// provider, which model, and therefore which collection every search and
// ingest call hits. Switching providers is an administrative operation,
// not a per-turn one; turns take a Binding snapshot at call start and work
// against that.
type EmbeddingRouter struct {
	mu    sync.Mutex
	store vectorstore.Store
	cfg   RouterConfig

	newClient clientFactory

	binding    domain.EmbeddingBinding
	client     embedding.Client
	configured bool
}

// NewEmbeddingRouter creates a router over the given vector store. No
// provider is active until SetProvider is called.
func NewEmbeddingRouter(store vectorstore.Store, cfg RouterConfig) *EmbeddingRouter {
	return &EmbeddingRouter{
		store:     store,
		cfg:       cfg,
		newClient: embedding.NewClient,
	}
}

// SetProvider activates a provider/model pair. Calling it again with the
// already-active pair is a no-op. Otherwise it resolves the destination
// collection, verifies credentials are present, and provisions the
// collection with the model's dimension plus the tenant filter indexes.
// The provider client itself is built lazily on first embed call.
func (r *EmbeddingRouter) SetProvider(ctx context.Context, provider, model string) error {
	p, err := domain.ParseProvider(provider)
	if err != nil {
		return err
	}

	binding, err := domain.ResolveBinding(p, model, r.cfg.BaseCollection)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configured && binding == r.binding {
		return nil
	}

	if !r.hasCredentials(p) {
		return domain.ErrProviderNotConfigured
	}

	if err := r.store.EnsureCollection(ctx, binding.Collection, binding.Dimension); err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeDimensionMismatch {
			// The collection predates the model switch. Reads still work,
			// so flag the inconsistency and keep going.
			log.Printf("WARN: collection %s dimension mismatch for model %s: %v",
				binding.Collection, binding.Model, err)
		} else {
			return err
		}
	}

	for _, field := range []string{"businessId", "widgetId"} {
		if err := r.store.CreateFieldIndex(ctx, binding.Collection, field); err != nil {
			return err
		}
	}

	r.binding = binding
	r.client = nil
	r.configured = true
	return nil
}

// Binding returns an immutable snapshot of the active binding.
func (r *EmbeddingRouter) Binding() (domain.EmbeddingBinding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.configured {
		return domain.EmbeddingBinding{}, domain.ErrSearchBackendUnavailable
	}
	return r.binding, nil
}

// EmbedQuery embeds a single query text with the active provider.
func (r *EmbeddingRouter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	client, err := r.ensureClient()
	if err != nil {
		return nil, err
	}
	return client.EmbedQuery(ctx, text)
}

// EmbedBatch embeds document texts with the active provider.
func (r *EmbeddingRouter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	client, err := r.ensureClient()
	if err != nil {
		return nil, err
	}
	return client.EmbedBatch(ctx, texts)
}

func (r *EmbeddingRouter) ensureClient() (embedding.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.configured {
		return nil, domain.ErrSearchBackendUnavailable
	}
	if r.client != nil {
		return r.client, nil
	}

	client, err := r.newClient(r.binding.Provider, r.binding.Model, r.cfg.Credentials)
	if err != nil {
		return nil, err
	}
	if r.cfg.CacheSize > 0 {
		client = embedding.WithLRUCache(client, r.cfg.CacheSize, r.cfg.CacheTTL)
	}
	r.client = client
	return client, nil
}

func (r *EmbeddingRouter) hasCredentials(p domain.EmbeddingProvider) bool {
	switch p {
	case domain.ProviderOpenAI:
		return r.cfg.Credentials.OpenAIAPIKey != ""
	case domain.ProviderVoyage:
		return r.cfg.Credentials.VoyageAPIKey != ""
	}
	return false
}
