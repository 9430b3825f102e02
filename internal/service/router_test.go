package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/embedding"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
)

// fakeVectorStore counts provisioning calls so idempotence is observable.
type fakeVectorStore struct {
	vectorstore.Store

	ensureCalls   []string
	ensureDims    []int
	indexCalls    []string
	ensureErr     error
	searchResult  []vectorstore.ScoredPoint
	searchErr     error
	lastLimit     int
	lastFilter    vectorstore.Filter
	upserted      []vectorstore.Point
	deleteFilters []vectorstore.Filter
	dropped       []string
	info          *vectorstore.CollectionInfo
}

func (f *fakeVectorStore) EnsureCollection(_ context.Context, name string, dimension int) error {
	f.ensureCalls = append(f.ensureCalls, name)
	f.ensureDims = append(f.ensureDims, dimension)
	return f.ensureErr
}

func (f *fakeVectorStore) CreateFieldIndex(_ context.Context, collection, field string) error {
	f.indexCalls = append(f.indexCalls, collection+"/"+field)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, _ string, _ []float32, filter vectorstore.Filter, limit int) ([]vectorstore.ScoredPoint, error) {
	f.lastFilter = filter
	f.lastLimit = limit
	return f.searchResult, f.searchErr
}

func (f *fakeVectorStore) Upsert(_ context.Context, _ string, points []vectorstore.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeVectorStore) DeleteByFilter(_ context.Context, _ string, filter vectorstore.Filter) error {
	f.deleteFilters = append(f.deleteFilters, filter)
	return nil
}

func (f *fakeVectorStore) DropCollection(_ context.Context, name string) error {
	f.dropped = append(f.dropped, name)
	return nil
}

func (f *fakeVectorStore) DescribeCollection(_ context.Context, name string) (*vectorstore.CollectionInfo, error) {
	if f.info != nil {
		return f.info, nil
	}
	return &vectorstore.CollectionInfo{Name: name}, nil
}

// fakeEmbedder is a canned embedding client.
type fakeEmbedder struct {
	model string
	dim   int
	calls int
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string  { return f.model }
func (f *fakeEmbedder) Dimension() int { return f.dim }

func testRouter(store vectorstore.Store) *EmbeddingRouter {
	r := NewEmbeddingRouter(store, RouterConfig{
		Credentials: embedding.Credentials{
			OpenAIAPIKey: "sk-test",
			VoyageAPIKey: "pa-test",
		},
		BaseCollection: "relaydesk_kb",
	})
	r.newClient = func(_ domain.EmbeddingProvider, model string, _ embedding.Credentials) (embedding.Client, error) {
		dim, _ := domain.ModelDimension(model)
		return &fakeEmbedder{model: model, dim: dim}, nil
	}
	return r
}

func TestEmbeddingRouter_SetProvider_ProvisionsCollection(t *testing.T) {
	store := &fakeVectorStore{}
	r := testRouter(store)

	err := r.SetProvider(context.Background(), "openai", "text-embedding-3-large")
	require.NoError(t, err)

	require.Equal(t, []string{"relaydesk_kb"}, store.ensureCalls)
	assert.Equal(t, []int{3072}, store.ensureDims)
	assert.Equal(t, []string{"relaydesk_kb/businessId", "relaydesk_kb/widgetId"}, store.indexCalls)

	binding, err := r.Binding()
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderOpenAI, binding.Provider)
	assert.Equal(t, "relaydesk_kb", binding.Collection)
}

func TestEmbeddingRouter_SetProvider_Idempotent(t *testing.T) {
	store := &fakeVectorStore{}
	r := testRouter(store)

	require.NoError(t, r.SetProvider(context.Background(), "openai", "text-embedding-3-large"))
	require.NoError(t, r.SetProvider(context.Background(), "openai", "text-embedding-3-large"))

	assert.Len(t, store.ensureCalls, 1, "re-selecting the active pair must not re-provision")
}

func TestEmbeddingRouter_SetProvider_SwitchRoutesToSuffixedCollection(t *testing.T) {
	store := &fakeVectorStore{}
	r := testRouter(store)

	require.NoError(t, r.SetProvider(context.Background(), "openai", "text-embedding-3-large"))
	require.NoError(t, r.SetProvider(context.Background(), "voyage", "voyage-3-large"))

	require.Equal(t, []string{"relaydesk_kb", "relaydesk_kb_voyage"}, store.ensureCalls)
	assert.Equal(t, []int{3072, 1024}, store.ensureDims)

	binding, err := r.Binding()
	require.NoError(t, err)
	assert.Equal(t, "relaydesk_kb_voyage", binding.Collection)
	assert.Equal(t, 1024, binding.Dimension)
}

func TestEmbeddingRouter_SetProvider_MissingCredentials(t *testing.T) {
	store := &fakeVectorStore{}
	r := NewEmbeddingRouter(store, RouterConfig{
		Credentials:    embedding.Credentials{OpenAIAPIKey: "sk-test"},
		BaseCollection: "relaydesk_kb",
	})

	err := r.SetProvider(context.Background(), "voyage", "voyage-3")
	assert.ErrorIs(t, err, domain.ErrProviderNotConfigured)
	assert.Empty(t, store.ensureCalls)
}

func TestEmbeddingRouter_SetProvider_UnknownProvider(t *testing.T) {
	r := testRouter(&fakeVectorStore{})

	err := r.SetProvider(context.Background(), "cohere", "")
	assert.ErrorIs(t, err, domain.ErrInvalidProvider)
}

func TestEmbeddingRouter_SetProvider_DimensionMismatchNonFatal(t *testing.T) {
	store := &fakeVectorStore{ensureErr: domain.ErrDimensionMismatch}
	r := testRouter(store)

	err := r.SetProvider(context.Background(), "openai", "text-embedding-3-small")
	require.NoError(t, err, "dimension mismatch is logged, not fatal")

	binding, err := r.Binding()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", binding.Model)
}

func TestEmbeddingRouter_SetProvider_DefaultModel(t *testing.T) {
	store := &fakeVectorStore{}
	r := testRouter(store)

	require.NoError(t, r.SetProvider(context.Background(), "voyage", ""))

	binding, err := r.Binding()
	require.NoError(t, err)
	assert.Equal(t, "voyage-3-large", binding.Model)
	assert.Equal(t, 1024, binding.Dimension)
}

func TestEmbeddingRouter_EmbedQuery_LazyClient(t *testing.T) {
	store := &fakeVectorStore{}
	r := testRouter(store)

	var built int
	r.newClient = func(_ domain.EmbeddingProvider, model string, _ embedding.Credentials) (embedding.Client, error) {
		built++
		dim, _ := domain.ModelDimension(model)
		return &fakeEmbedder{model: model, dim: dim}, nil
	}

	require.NoError(t, r.SetProvider(context.Background(), "openai", "text-embedding-3-small"))
	assert.Equal(t, 0, built, "client is not built until the first embed call")

	vec, err := r.EmbedQuery(context.Background(), "where is my order")
	require.NoError(t, err)
	assert.Len(t, vec, 1536)
	assert.Equal(t, 1, built)

	_, err = r.EmbedQuery(context.Background(), "second question")
	require.NoError(t, err)
	assert.Equal(t, 1, built, "client is reused across calls")
}

func TestEmbeddingRouter_EmbedQuery_NotConfigured(t *testing.T) {
	r := testRouter(&fakeVectorStore{})

	_, err := r.EmbedQuery(context.Background(), "hello")
	assert.ErrorIs(t, err, domain.ErrSearchBackendUnavailable)
}
