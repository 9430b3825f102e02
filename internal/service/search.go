package service

import (
	"context"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
)

// ScopeFilter narrows a retrieval to one tenant. BusinessID is preferred
// when both are set; WidgetID is the fallback scope for legacy widgets
// that predate business accounts.
type ScopeFilter struct {
	BusinessID string
	WidgetID   string
}

func (s ScopeFilter) storeFilter() vectorstore.Filter {
	if s.BusinessID != "" {
		return vectorstore.Filter{BusinessID: s.BusinessID}
	}
	return vectorstore.Filter{WidgetID: s.WidgetID}
}

// SearchEngine runs scope-filtered nearest-neighbor retrieval with local
// score thresholding.
type SearchEngine struct {
	router     *EmbeddingRouter
	store      vectorstore.Store
	normalizer *QueryNormalizer
}

// NewSearchEngine creates a new SearchEngine instance
func NewSearchEngine(router *EmbeddingRouter, store vectorstore.Store) *SearchEngine {
	return &SearchEngine{
		router:     router,
		store:      store,
		normalizer: NewQueryNormalizer(),
	}
}

// Search retrieves the fragments most relevant to query within the scope.
// The backend is asked for three times the requested limit because
// backend-side score cutoffs behave differently across providers; the
// threshold is always applied here. Results keep the backend's relevance
// order. No matches is a normal outcome, not an error.
func (e *SearchEngine) Search(ctx context.Context, query string, scope ScopeFilter, limit int, scoreThreshold float64) ([]domain.RetrievalResult, error) {
	if e.store == nil {
		return nil, domain.ErrSearchBackendUnavailable
	}

	binding, err := e.router.Binding()
	if err != nil {
		return nil, err
	}

	normalized := e.normalizer.Normalize(query)

	vector, err := e.router.EmbedQuery(ctx, normalized)
	if err != nil {
		return nil, err
	}

	points, err := e.store.Search(ctx, binding.Collection, vector, scope.storeFilter(), limit*3)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, 0, limit)
	for _, p := range points {
		if float64(p.Score) < scoreThreshold {
			continue
		}
		results = append(results, domain.RetrievalResult{
			Fragment: p.Fragment,
			Score:    p.Score,
			Query:    normalized,
		})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}
