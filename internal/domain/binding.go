package domain

import "strings"

// EmbeddingProvider identifies a supported embedding backend.
type EmbeddingProvider string

const (
	ProviderOpenAI EmbeddingProvider = "openai"
	ProviderVoyage EmbeddingProvider = "voyage"
)

// ParseProvider normalizes a provider name into the closed enum.
func ParseProvider(name string) (EmbeddingProvider, error) {
	switch EmbeddingProvider(strings.ToLower(strings.TrimSpace(name))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderVoyage:
		return ProviderVoyage, nil
	}
	return "", ErrInvalidProvider
}

// modelDimensions maps each supported embedding model to its fixed vector
// dimension. A collection only ever accepts vectors of the dimension it
// was created with, so routing to a different model means routing to a
// different collection.
var modelDimensions = map[string]int{
	"text-embedding-3-large":   3072,
	"text-embedding-3-small":   1536,
	"text-embedding-ada-002":   1536,
	"voyage-3":                 1024,
	"voyage-3-large":           1024,
	"voyage-3-lite":            512,
	"voyage-code-3":            1024,
}

// ModelDimension returns the vector dimension for a known embedding model.
func ModelDimension(model string) (int, error) {
	dim, ok := modelDimensions[model]
	if !ok {
		return 0, ErrUnknownModel
	}
	return dim, nil
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider EmbeddingProvider) string {
	switch provider {
	case ProviderVoyage:
		return "voyage-3-large"
	default:
		return "text-embedding-3-large"
	}
}

// EmbeddingBinding is the (provider, model, dimension, collection) tuple a
// fragment's vector was generated under. Bindings are immutable values;
// the router swaps the whole binding when the provider or model changes.
type EmbeddingBinding struct {
	Provider   EmbeddingProvider
	Model      string
	Dimension  int
	Collection string
}

// ResolveBinding computes the binding for a provider/model pair against a
// base collection name. OpenAI keeps the base name; Voyage routes to a
// suffixed collection so the two layouts never mix dimensions.
func ResolveBinding(provider EmbeddingProvider, model, baseCollection string) (EmbeddingBinding, error) {
	if model == "" {
		model = DefaultModel(provider)
	}
	dim, err := ModelDimension(model)
	if err != nil {
		return EmbeddingBinding{}, err
	}

	collection := baseCollection
	if provider == ProviderVoyage {
		collection = baseCollection + "_voyage"
	}

	return EmbeddingBinding{
		Provider:   provider,
		Model:      model,
		Dimension:  dim,
		Collection: collection,
	}, nil
}
