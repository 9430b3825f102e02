package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/telemetry"
)

// genericErrorMessage is shown to the end user when the pipeline fails for
// a reason they cannot act on.
const genericErrorMessage = "I'm sorry, I encountered an error while processing your request. Please try again or contact support."

// SearchLogStore persists retrieval logs. Optional; a nil store disables
// logging.
type SearchLogStore interface {
	Insert(ctx context.Context, entry *domain.SearchLog) error
}

// ChatService is the turn boundary of the pipeline: one call in, one
// well-formed AIResponse out. Every failure inside the pipeline is caught
// here and converted; callers never see a raw error.
type ChatService struct {
	router     *EmbeddingRouter
	search     *SearchEngine
	generator  *GenerationOrchestrator
	searchLogs SearchLogStore
}

// NewChatService creates a new ChatService instance
func NewChatService(router *EmbeddingRouter, search *SearchEngine, generator *GenerationOrchestrator, searchLogs SearchLogStore) *ChatService {
	return &ChatService{
		router:     router,
		search:     search,
		generator:  generator,
		searchLogs: searchLogs,
	}
}

// GenerateResponse runs one full chat turn: normalize, embed, retrieve,
// assemble, generate, score, decide.
func (s *ChatService) GenerateResponse(ctx context.Context, message, widgetID, businessID string, cfg domain.AIConfig) *domain.AIResponse {
	ctx, span := telemetry.StartSpan(ctx, "ChatService.GenerateResponse", telemetry.SpanAttributes{
		BusinessID: businessID,
		WidgetID:   widgetID,
		Operation:  "chat",
	})
	defer span.End()

	if !cfg.Enabled {
		return domain.FailedResponse("AI is disabled for this widget", map[string]any{
			"reason": "AI disabled",
		})
	}

	if !cfg.RAGEnabled {
		return s.generateDirect(ctx, message, cfg)
	}

	if cfg.EmbeddingProvider != "" {
		if err := s.router.SetProvider(ctx, cfg.EmbeddingProvider, cfg.EmbeddingModel); err != nil {
			span.SetError(err)
			return domain.FailedResponse(genericErrorMessage, map[string]any{
				"error": err.Error(),
			})
		}
	}

	results, err := s.RetrieveContext(ctx, widgetID, businessID, message, cfg.MaxRetrievalDocs)
	if err != nil {
		span.SetError(err)
		return domain.FailedResponse(genericErrorMessage, map[string]any{
			"error": err.Error(),
		})
	}

	assembled := AssembleContext(results)

	genResp, err := s.generator.GenerateWithContext(ctx, message, assembled.ContextText, cfg)
	if err != nil {
		span.SetError(err)
		return domain.FailedResponse("AI service error: "+err.Error(), map[string]any{
			"error": err.Error(),
		})
	}

	confidence := ScoreConfidence(genResp.Content, assembled.Sources)
	fallback := ShouldFallback(confidence, len(assembled.Sources), cfg)

	return &domain.AIResponse{
		Success:               true,
		Response:              genResp.Content,
		Confidence:            confidence,
		Sources:               assembled.Sources,
		ShouldFallbackToHuman: fallback,
		Metadata: map[string]any{
			"mode":          "rag",
			"model":         cfg.Model,
			"sources_count": len(assembled.Sources),
			"widget_id":     widgetID,
		},
	}
}

// RetrieveContext fetches the fragments most relevant to query within the
// caller's scope. Exposed for diagnostic and search-only callers; no score
// cutoff is applied here so low-relevance hits still reach the confidence
// scorer.
func (s *ChatService) RetrieveContext(ctx context.Context, widgetID, businessID, query string, maxDocs int) ([]domain.RetrievalResult, error) {
	if maxDocs <= 0 {
		maxDocs = 5
	}

	ctx, span := telemetry.StartSpan(ctx, "ChatService.RetrieveContext", telemetry.SpanAttributes{
		BusinessID: businessID,
		WidgetID:   widgetID,
		Operation:  "retrieve",
	})
	defer span.End()

	scope := ScopeFilter{BusinessID: businessID, WidgetID: widgetID}
	results, err := s.search.Search(ctx, query, scope, maxDocs, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	s.recordSearch(ctx, widgetID, businessID, query, results)
	return results, nil
}

func (s *ChatService) generateDirect(ctx context.Context, message string, cfg domain.AIConfig) *domain.AIResponse {
	genResp, err := s.generator.GenerateDirect(ctx, message, cfg)
	if err != nil {
		return domain.FailedResponse("AI service error: "+err.Error(), map[string]any{
			"error": err.Error(),
		})
	}

	return &domain.AIResponse{
		Success:               true,
		Response:              genResp.Content,
		Confidence:            0.7,
		Sources:               []domain.SourceSummary{},
		ShouldFallbackToHuman: false,
		Metadata: map[string]any{
			"mode":  "direct",
			"model": cfg.Model,
		},
	}
}

// recordSearch is best-effort; a failed log write never fails the turn.
func (s *ChatService) recordSearch(ctx context.Context, widgetID, businessID, query string, results []domain.RetrievalResult) {
	if s.searchLogs == nil {
		return
	}

	entry := &domain.SearchLog{
		ID:          uuid.NewString(),
		BusinessID:  businessID,
		WidgetID:    widgetID,
		Query:       query,
		ResultCount: len(results),
		CreatedAt:   time.Now().UTC(),
	}
	if binding, err := s.router.Binding(); err == nil {
		entry.Collection = binding.Collection
	}
	if len(results) > 0 {
		entry.TopScore = results[0].Score
	}

	if err := s.searchLogs.Insert(ctx, entry); err != nil {
		log.Printf("WARN: failed to record search log: %v", err)
	}
}
