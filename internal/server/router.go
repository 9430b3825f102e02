package server

import (
	"net/http"

	"github.com/relaydesk/relaydesk/internal/api"
	"github.com/relaydesk/relaydesk/internal/api/handlers"
	"github.com/relaydesk/relaydesk/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	// AuthValidator is optional. When nil the API runs open, which is the
	// local development mode when no widget keys are configured.
	AuthValidator    middleware.AuthValidator
	ChatHandler      *handlers.ChatHandler
	KnowledgeHandler *handlers.KnowledgeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if cfg.AuthValidator != nil {
			r.Use(middleware.WidgetKeyAuth(cfg.AuthValidator))
		}

		r.Post("/api/chat", cfg.ChatHandler.Generate)

		r.Route("/api/knowledge-base", func(r chi.Router) {
			r.Post("/store", cfg.KnowledgeHandler.Store)
			r.Post("/search", cfg.KnowledgeHandler.Search)
			r.Get("/stats", cfg.KnowledgeHandler.Stats)
			r.Delete("/delete/{id}", cfg.KnowledgeHandler.Delete)
			r.Delete("/delete-all", cfg.KnowledgeHandler.DeleteAll)
			r.Get("/jobs/{id}", cfg.KnowledgeHandler.JobStatus)
			r.Get("/search-logs", cfg.KnowledgeHandler.SearchLogs)
		})
	})

	return r
}
