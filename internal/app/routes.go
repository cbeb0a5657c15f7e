package app

import (
	"net/http"

	"github.com/ferdiebergado/ragchat/internal/auth"
	"github.com/ferdiebergado/ragchat/internal/chat"
	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/document"
	"github.com/ferdiebergado/ragchat/internal/middleware"
	"github.com/ferdiebergado/ragchat/internal/pkg/message"
	"github.com/ferdiebergado/ragchat/internal/pkg/web"
	"github.com/ferdiebergado/ragchat/internal/platform/metrics"
	"github.com/ferdiebergado/ragchat/internal/platform/router"
)

type rootResponse struct {
	Message string `json:"message"`
}

func mountRootRoutes(r router.Router, reg *metrics.Registry) {
	r.Get("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		web.JSON(w, http.StatusOK, &rootResponse{Message: message.APIRunning})
	})
	r.Get("/metrics", reg.Handler().ServeHTTP)
}

func mountSessionRoutes(r router.Router, handler *chat.Handler, p *Provider, cfg *config.Config) {
	owner := auth.RequireOwner(p.Signer, cfg.Auth.Required)
	maxBodySize := cfg.Server.MaxBodyBytes

	r.Post("/sessions/new", handler.CreateSession,
		owner,
		middleware.DecodePayload[chat.NewSessionRequest](maxBodySize),
		middleware.ValidateInput[chat.NewSessionRequest](p.Validator))
	r.Get("/sessions", handler.ListSessions, owner)
	r.Get("/sessions/grouped", handler.GroupedSessions, owner)
	r.Get("/sessions/{session_id}", handler.GetSession, owner)
	r.Delete("/sessions/{session_id}", handler.DeleteSession, owner)
}

func mountChatRoutes(r router.Router, handler *chat.Handler, p *Provider, cfg *config.Config, limiter *middleware.RateLimiter) {
	maxBodySize := cfg.Server.MaxBodyBytes

	r.Post("/chat", handler.Chat,
		limiter.Middleware,
		auth.RequireOwner(p.Signer, cfg.Auth.Required),
		middleware.DecodePayload[chat.ChatRequest](maxBodySize),
		middleware.ValidateInput[chat.ChatRequest](p.Validator))
}

func mountDocumentRoutes(r router.Router, handler *document.Handler, p *Provider, cfg *config.Config) {
	owner := auth.RequireOwner(p.Signer, cfg.Auth.Required)
	maxBodySize := cfg.Server.MaxBodyBytes

	r.Get("/documents", handler.List, owner)
	r.Post("/documents", handler.Ingest,
		owner,
		middleware.DecodePayload[document.IngestRequest](maxBodySize),
		middleware.ValidateInput[document.IngestRequest](p.Validator))
	r.Post("/documents/search", handler.Search,
		owner,
		middleware.DecodePayload[document.SearchRequest](maxBodySize),
		middleware.ValidateInput[document.SearchRequest](p.Validator))
	r.Delete("/documents/{document_id}", handler.Delete, owner)
}
