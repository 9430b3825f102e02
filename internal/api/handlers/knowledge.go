package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/relaydesk/relaydesk/internal/api"
	"github.com/relaydesk/relaydesk/internal/domain"
	"github.com/relaydesk/relaydesk/internal/service"
	"github.com/relaydesk/relaydesk/internal/vectorstore"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type KnowledgeService interface {
	StoreItem(ctx context.Context, item service.KnowledgeItem) (*service.StoreResult, error)
	DeleteItem(ctx context.Context, itemID string) error
	DeleteAll(ctx context.Context, businessID, widgetID string) error
	Stats(ctx context.Context) (*vectorstore.CollectionInfo, error)
}

type SearchService interface {
	Search(ctx context.Context, query string, scope service.ScopeFilter, limit int, scoreThreshold float64) ([]domain.RetrievalResult, error)
}

// IngestJobStore queues knowledge items for the background ingest worker.
// Optional; a nil store disables async ingestion.
type IngestJobStore interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
}

// SearchLogReader lists recent retrievals for relevance debugging.
// Optional; a nil reader disables the search-logs endpoint.
type SearchLogReader interface {
	RecentByBusiness(ctx context.Context, businessID string, limit int) ([]*domain.SearchLog, error)
}

type KnowledgeHandler struct {
	svc        KnowledgeService
	search     SearchService
	jobs       IngestJobStore
	searchLogs SearchLogReader
}

func NewKnowledgeHandler(svc KnowledgeService, search SearchService, jobs IngestJobStore, searchLogs SearchLogReader) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, search: search, jobs: jobs, searchLogs: searchLogs}
}

type StoreKnowledgeRequest struct {
	ID         string `json:"id"`
	BusinessID string `json:"businessId"`
	WidgetID   string `json:"widgetId"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Content    string `json:"content"`
	FileName   string `json:"fileName"`
	FileSize   int64  `json:"fileSize"`
	Async      bool   `json:"async"`
}

func (h *KnowledgeHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req StoreKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.Content == "" {
		api.Error(w, http.StatusBadRequest, "content is required")
		return
	}

	if req.Async {
		h.enqueue(w, r, req)
		return
	}

	item := service.KnowledgeItem{
		ID:         req.ID,
		BusinessID: req.BusinessID,
		WidgetID:   req.WidgetID,
		Title:      req.Title,
		DocType:    req.Type,
		Content:    req.Content,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
	}

	result, err := h.svc.StoreItem(r.Context(), item)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, result)
}

type EnqueueResult struct {
	JobID  string `json:"jobId"`
	ItemID string `json:"itemId"`
	Status string `json:"status"`
}

func (h *KnowledgeHandler) enqueue(w http.ResponseWriter, r *http.Request, req StoreKnowledgeRequest) {
	if h.jobs == nil {
		api.Error(w, http.StatusBadRequest, "async ingestion is not enabled")
		return
	}

	job := &domain.IngestJob{
		ID:         uuid.NewString(),
		ItemID:     req.ID,
		BusinessID: req.BusinessID,
		WidgetID:   req.WidgetID,
		Title:      req.Title,
		DocType:    req.Type,
		Content:    req.Content,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		Status:     domain.IngestJobStatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.jobs.Create(r.Context(), job); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, EnqueueResult{
		JobID:  job.ID,
		ItemID: job.ItemID,
		Status: string(job.Status),
	})
}

type IngestJobResponse struct {
	ID          string     `json:"id"`
	ItemID      string     `json:"itemId"`
	Status      string     `json:"status"`
	Retries     int32      `json:"retries"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func (h *KnowledgeHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		api.Error(w, http.StatusBadRequest, "async ingestion is not enabled")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, IngestJobResponse{
		ID:          job.ID,
		ItemID:      job.ItemID,
		Status:      string(job.Status),
		Retries:     job.Retries,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		ProcessedAt: job.ProcessedAt,
	})
}

type SearchKnowledgeRequest struct {
	Query          string  `json:"query"`
	BusinessID     string  `json:"businessId"`
	WidgetID       string  `json:"widgetId"`
	Limit          int     `json:"limit"`
	ScoreThreshold float64 `json:"scoreThreshold"`
}

type SearchKnowledgeResponse struct {
	Results []domain.SourceSummary `json:"results"`
	Count   int                    `json:"count"`
}

func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.BusinessID == "" && req.WidgetID == "" {
		api.Error(w, http.StatusBadRequest, "businessId or widgetId is required")
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	scope := service.ScopeFilter{BusinessID: req.BusinessID, WidgetID: req.WidgetID}
	results, err := h.search.Search(r.Context(), req.Query, scope, limit, req.ScoreThreshold)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	summaries := make([]domain.SourceSummary, len(results))
	for i, res := range results {
		summaries[i] = domain.SourceSummary{
			Content: res.Fragment.Content,
			Title:   res.Fragment.Title,
			Type:    res.Fragment.DocType,
			Score:   res.Score,
		}
	}

	api.Success(w, http.StatusOK, SearchKnowledgeResponse{Results: summaries, Count: len(summaries)})
}

type StatsResponse struct {
	Collection   string `json:"collection"`
	VectorsCount int64  `json:"vectorsCount"`
	Dimension    int    `json:"dimension"`
}

func (h *KnowledgeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatsResponse{
		Collection:   info.Name,
		VectorsCount: info.Count,
		Dimension:    info.Dimension,
	})
}

func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"deleted": id})
}

type SearchLogEntry struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	WidgetID    string    `json:"widgetId,omitempty"`
	Query       string    `json:"query"`
	Collection  string    `json:"collection"`
	ResultCount int       `json:"resultCount"`
	TopScore    float32   `json:"topScore"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *KnowledgeHandler) SearchLogs(w http.ResponseWriter, r *http.Request) {
	if h.searchLogs == nil {
		api.Error(w, http.StatusBadRequest, "search logging is not enabled")
		return
	}

	businessID := r.URL.Query().Get("businessId")
	if businessID == "" {
		api.Error(w, http.StatusBadRequest, "businessId is required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			api.Error(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	logs, err := h.searchLogs.RecentByBusiness(r.Context(), businessID, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	entries := make([]SearchLogEntry, len(logs))
	for i, l := range logs {
		entries[i] = SearchLogEntry{
			ID:          l.ID,
			BusinessID:  l.BusinessID,
			WidgetID:    l.WidgetID,
			Query:       l.Query,
			Collection:  l.Collection,
			ResultCount: l.ResultCount,
			TopScore:    l.TopScore,
			CreatedAt:   l.CreatedAt,
		}
	}

	api.Success(w, http.StatusOK, entries)
}

func (h *KnowledgeHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	businessID := r.URL.Query().Get("businessId")
	widgetID := r.URL.Query().Get("widgetId")

	if businessID == "" {
		api.Error(w, http.StatusBadRequest, "businessId is required")
		return
	}

	if err := h.svc.DeleteAll(r.Context(), businessID, widgetID); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}
