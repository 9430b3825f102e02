// Package vectorstore abstracts the vector search backend. Collections are
// named, dimension-typed containers of fragment vectors; the scores a
// backend returns are an opaque ordering signal (higher = more relevant).
package vectorstore

import (
	"context"

	"github.com/relaydesk/relaydesk/internal/domain"
)

// Point is one fragment plus its embedding, ready for upsert.
type Point struct {
	Fragment domain.KnowledgeFragment
	Vector   []float32
}

// ScoredPoint is one search hit: the stored fragment and its similarity score.
type ScoredPoint struct {
	Fragment domain.KnowledgeFragment
	Score    float32
}

// Filter restricts a search or delete to a tenant scope. Empty fields are
// not applied.
type Filter struct {
	BusinessID string
	WidgetID   string
	ItemID     string
}

// IsEmpty reports whether no conditions are set.
func (f Filter) IsEmpty() bool {
	return f.BusinessID == "" && f.WidgetID == "" && f.ItemID == ""
}

// CollectionInfo describes a collection's size and declared dimension.
type CollectionInfo struct {
	Name      string
	Count     int64
	Dimension int
}

// Store is the vector store backend contract.
type Store interface {
	// EnsureCollection creates the collection with the given dimension if
	// it does not exist. Returns domain.ErrDimensionMismatch when the
	// collection exists with a different dimension.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	// CreateFieldIndex creates a keyword index on a payload field for
	// filtered search. Idempotent.
	CreateFieldIndex(ctx context.Context, collection, field string) error

	// Search returns up to limit nearest neighbors of vector within the
	// filter scope, in the backend's native relevance order.
	Search(ctx context.Context, collection string, vector []float32, filter Filter, limit int) ([]ScoredPoint, error)

	// Upsert inserts or replaces points by fragment ID.
	Upsert(ctx context.Context, collection string, points []Point) error

	// DeleteByFilter removes all points matching the filter.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error

	// DeleteByIDs removes points by fragment ID.
	DeleteByIDs(ctx context.Context, collection string, ids []string) error

	// DescribeCollection reports the collection's point count and dimension.
	DescribeCollection(ctx context.Context, name string) (*CollectionInfo, error)

	// DropCollection removes the collection entirely. Destructive; used by
	// admin recreation only.
	DropCollection(ctx context.Context, name string) error
}
