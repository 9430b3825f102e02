package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/relaydesk/relaydesk/internal/api"
	"github.com/relaydesk/relaydesk/internal/api/middleware"
	"github.com/relaydesk/relaydesk/internal/domain"
)

type ChatService interface {
	GenerateResponse(ctx context.Context, message, widgetID, businessID string, cfg domain.AIConfig) *domain.AIResponse
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message    string             `json:"message"`
	WidgetID   string             `json:"widgetId"`
	BusinessID string             `json:"businessId"`
	Config     *ChatConfigRequest `json:"config,omitempty"`
}

// ChatConfigRequest carries per-turn overrides of the widget defaults.
// Pointer fields distinguish "absent" from zero values.
type ChatConfigRequest struct {
	Enabled             *bool    `json:"enabled,omitempty"`
	Model               string   `json:"model,omitempty"`
	EmbeddingProvider   string   `json:"embeddingProvider,omitempty"`
	EmbeddingModel      string   `json:"embeddingModel,omitempty"`
	Temperature         *float32 `json:"temperature,omitempty"`
	MaxTokens           *int     `json:"maxTokens,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
	MaxRetrievalDocs    *int     `json:"maxRetrievalDocs,omitempty"`
	RAGEnabled          *bool    `json:"ragEnabled,omitempty"`
	FallbackToHuman     *bool    `json:"fallbackToHuman,omitempty"`
	SystemPrompt        string   `json:"systemPrompt,omitempty"`
	CustomSystemPrompt  string   `json:"customSystemPrompt,omitempty"`
}

func (c *ChatConfigRequest) apply(cfg domain.AIConfig) domain.AIConfig {
	if c == nil {
		return cfg
	}
	if c.Enabled != nil {
		cfg.Enabled = *c.Enabled
	}
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.EmbeddingProvider != "" {
		cfg.EmbeddingProvider = c.EmbeddingProvider
	}
	if c.EmbeddingModel != "" {
		cfg.EmbeddingModel = c.EmbeddingModel
	}
	if c.Temperature != nil {
		cfg.Temperature = *c.Temperature
	}
	if c.MaxTokens != nil {
		cfg.MaxTokens = *c.MaxTokens
	}
	if c.ConfidenceThreshold != nil {
		cfg.ConfidenceThreshold = *c.ConfidenceThreshold
	}
	if c.MaxRetrievalDocs != nil {
		cfg.MaxRetrievalDocs = *c.MaxRetrievalDocs
	}
	if c.RAGEnabled != nil {
		cfg.RAGEnabled = *c.RAGEnabled
	}
	if c.FallbackToHuman != nil {
		cfg.FallbackToHuman = *c.FallbackToHuman
	}
	if c.SystemPrompt != "" {
		cfg.SystemPrompt = c.SystemPrompt
	}
	if c.CustomSystemPrompt != "" {
		cfg.CustomSystemPrompt = c.CustomSystemPrompt
	}
	return cfg
}

// Generate handles POST /api/chat. The response body is the AIResponse
// contract the widget consumes, never an error envelope: pipeline failures
// are folded into a well-formed fallback response by the service.
func (h *ChatHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}

	// The authenticated identity wins over whatever the body claims.
	widgetID := middleware.GetWidgetID(r.Context())
	if widgetID == "" {
		widgetID = req.WidgetID
	}
	businessID := middleware.GetBusinessID(r.Context())
	if businessID == "" {
		businessID = req.BusinessID
	}

	if widgetID == "" && businessID == "" {
		api.Error(w, http.StatusBadRequest, "widgetId or businessId is required")
		return
	}

	cfg := req.Config.apply(domain.DefaultAIConfig())

	resp := h.svc.GenerateResponse(r.Context(), req.Message, widgetID, businessID, cfg)
	api.JSON(w, http.StatusOK, resp)
}
