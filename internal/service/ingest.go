package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/telemetry"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
)

// KnowledgeItem is one source document submitted for ingestion.
type KnowledgeItem struct {
	ID         string
	BusinessID string
	WidgetID   string
	Title      string
	DocType    string
	Content    string
	FileName   string
	FileSize   int64
	// Raw carries the original uploaded bytes, archived to object storage
	// when one is configured.
	Raw []byte
}

// StoreResult reports what an ingestion produced.
type StoreResult struct {
	ChunksCreated int      `json:"chunksCreated"`
	PointIDs      []string `json:"pointIds"`
	FileURL       string   `json:"fileUrl,omitempty"`
}

// ObjectStorage archives raw source documents. Optional.
type ObjectStorage interface {
	PutDocument(ctx context.Context, key string, body []byte, contentType string) (string, error)
	DeleteDocument(ctx context.Context, key string) error
}

// KnowledgeService handles ingestion and administration of knowledge
// fragments: chunking, embedding, upserting, deletion, and stats.
type KnowledgeService struct {
	router   *EmbeddingRouter
	store    vectorstore.Store
	objects  ObjectStorage
	chunkCfg ChunkConfig
}

// NewKnowledgeService creates a new KnowledgeService instance
func NewKnowledgeService(router *EmbeddingRouter, store vectorstore.Store, objects ObjectStorage) *KnowledgeService {
	return &KnowledgeService{
		router:   router,
		store:    store,
		objects:  objects,
		chunkCfg: DefaultChunkConfig(),
	}
}

// StoreItem chunks a document, embeds every chunk in one batch, and
// upserts the resulting fragments into the active collection.
func (s *KnowledgeService) StoreItem(ctx context.Context, item KnowledgeItem) (*StoreResult, error) {
	if item.ID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "item id is required")
	}
	if strings.TrimSpace(item.Content) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "item content is required")
	}
	if item.BusinessID == "" && item.WidgetID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "businessId or widgetId is required")
	}

	binding, err := s.router.Binding()
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.StoreItem", telemetry.SpanAttributes{
		BusinessID: item.BusinessID,
		WidgetID:   item.WidgetID,
		Collection: binding.Collection,
		Operation:  "store",
	})
	defer span.End()

	chunks := chunkText(item.Content, s.chunkCfg)
	if len(chunks) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "item content is empty after cleanup")
	}

	vectors, err := s.router.EmbedBatch(ctx, chunks)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewDomainError(domain.ErrCodeInternalError,
			fmt.Sprintf("embedding count %d does not match chunk count %d", len(vectors), len(chunks)))
	}

	points := make([]vectorstore.Point, 0, len(chunks))
	pointIDs := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		id := uuid.NewString()
		pointIDs = append(pointIDs, id)
		points = append(points, vectorstore.Point{
			Fragment: domain.KnowledgeFragment{
				ID:          id,
				BusinessID:  item.BusinessID,
				WidgetID:    item.WidgetID,
				ItemID:      item.ID,
				Title:       item.Title,
				DocType:     item.DocType,
				ChunkIndex:  i,
				TotalChunks: len(chunks),
				Content:     chunk,
				FileName:    item.FileName,
				FileSize:    item.FileSize,
			},
			Vector: vectors[i],
		})
	}

	if err := s.store.Upsert(ctx, binding.Collection, points); err != nil {
		span.SetError(err)
		return nil, err
	}

	result := &StoreResult{
		ChunksCreated: len(chunks),
		PointIDs:      pointIDs,
	}

	// Archiving the original upload is best-effort; the fragments are
	// already searchable.
	if s.objects != nil && len(item.Raw) > 0 {
		key := documentKey(item)
		url, err := s.objects.PutDocument(ctx, key, item.Raw, contentTypeFor(item.FileName))
		if err != nil {
			log.Printf("WARN: failed to archive source document %s: %v", key, err)
		} else {
			result.FileURL = url
		}
	}

	return result, nil
}

// DeleteItem removes every fragment belonging to one source document.
func (s *KnowledgeService) DeleteItem(ctx context.Context, itemID string) error {
	if itemID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "item id is required")
	}

	binding, err := s.router.Binding()
	if err != nil {
		return err
	}

	return s.store.DeleteByFilter(ctx, binding.Collection, vectorstore.Filter{ItemID: itemID})
}

// DeleteAll removes every fragment for a business, optionally narrowed to
// one widget. A widgetID of "all" or "" means the whole business.
func (s *KnowledgeService) DeleteAll(ctx context.Context, businessID, widgetID string) error {
	if businessID == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "business id is required")
	}

	binding, err := s.router.Binding()
	if err != nil {
		return err
	}

	filter := vectorstore.Filter{BusinessID: businessID}
	if widgetID != "" && widgetID != "all" {
		filter.WidgetID = widgetID
	}

	return s.store.DeleteByFilter(ctx, binding.Collection, filter)
}

// Stats reports the active collection's point count and dimension.
func (s *KnowledgeService) Stats(ctx context.Context) (*vectorstore.CollectionInfo, error) {
	binding, err := s.router.Binding()
	if err != nil {
		return nil, err
	}
	return s.store.DescribeCollection(ctx, binding.Collection)
}

// RecreateCollection drops and recreates the active collection. All
// stored fragments are lost; admin use only.
func (s *KnowledgeService) RecreateCollection(ctx context.Context) (*vectorstore.CollectionInfo, error) {
	binding, err := s.router.Binding()
	if err != nil {
		return nil, err
	}

	before, err := s.store.DescribeCollection(ctx, binding.Collection)
	if err != nil {
		return nil, err
	}

	if err := s.store.DropCollection(ctx, binding.Collection); err != nil {
		return nil, err
	}
	if err := s.store.EnsureCollection(ctx, binding.Collection, binding.Dimension); err != nil {
		return nil, err
	}
	for _, field := range []string{"businessId", "widgetId"} {
		if err := s.store.CreateFieldIndex(ctx, binding.Collection, field); err != nil {
			return nil, err
		}
	}

	return before, nil
}

func documentKey(item KnowledgeItem) string {
	name := item.FileName
	if name == "" {
		name = item.ID
	}
	return fmt.Sprintf("documents/%s/%s/%s", item.BusinessID, item.ID, name)
}

func contentTypeFor(fileName string) string {
	switch {
	case strings.HasSuffix(fileName, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(fileName, ".md"):
		return "text/markdown"
	case strings.HasSuffix(fileName, ".txt"):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
