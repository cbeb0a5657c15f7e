package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ferdiebergado/ragchat/internal/chat"
	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/document"
	"github.com/ferdiebergado/ragchat/internal/middleware"
	"github.com/ferdiebergado/ragchat/internal/platform/db"
	"github.com/ferdiebergado/ragchat/internal/rag"
)

type App struct {
	server          *http.Server
	config          *config.Config
	middlewares     []func(http.Handler) http.Handler
	stop            context.CancelFunc
	shutdownTimeout time.Duration
	db              *sql.DB
	txManager       db.TxManager
	provider        *Provider
}

func (a *App) registerMiddlewares() {
	for _, mw := range a.middlewares {
		a.provider.Router.Use(mw)
	}
}

func (a *App) setupRoutes() {
	p := a.provider
	cfg := a.config

	engine := rag.NewEngine(p.Store, p.Embedder, p.LLM, cfg.RAG, p.Metrics.RetrievalResults)

	chatRepo := chat.NewRepository(a.db)
	chatRouter := chat.NewRouter(cfg.Router.Keywords, p.Metrics.ChatRoutes)
	chatService := chat.NewService(chatRepo, a.txManager, engine, chatRouter, cfg.Chat)
	chatHandler := chat.NewHandler(chatService)

	docService := document.NewService(p.Store, p.Embedder, cfg.Ingest, p.Metrics.IngestedChunks)
	docHandler := document.NewHandler(docService)

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.Server.BehindProxy)

	mountRootRoutes(p.Router, p.Metrics)
	mountSessionRoutes(p.Router, chatHandler, p, cfg)
	mountChatRoutes(p.Router, chatHandler, p, cfg, limiter)
	mountDocumentRoutes(p.Router, docHandler, p, cfg)
}

// Handler registers middlewares and routes and returns the root handler.
func (a *App) Handler() http.Handler {
	a.registerMiddlewares()
	a.setupRoutes()
	return a.provider.Router
}

func (a *App) Start(ctx context.Context) error {
	a.server.Handler = a.Handler()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening...", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		slog.Info("Server has stopped.")
		serverErr <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received.")
		return nil
	case err := <-serverErr:
		return err
	}
}

func (a *App) Shutdown() error {
	slog.Info("Shutting down server...")
	a.stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func New(cfg *config.Config, dbConn *sql.DB, provider *Provider, middlewares []func(http.Handler) http.Handler) *App {
	serverCtx, stop := context.WithCancel(context.Background())
	serverCfg := cfg.Server
	server := &http.Server{
		Addr: fmt.Sprintf(":%d", serverCfg.Port),
		BaseContext: func(_ net.Listener) context.Context {
			return serverCtx
		},
		ReadTimeout:  serverCfg.ReadTimeout.Duration,
		WriteTimeout: serverCfg.WriteTimeout.Duration,
		IdleTimeout:  serverCfg.IdleTimeout.Duration,
	}

	return &App{
		config:          cfg,
		db:              dbConn,
		txManager:       db.NewSQLTxManager(dbConn),
		provider:        provider,
		server:          server,
		middlewares:     middlewares,
		stop:            stop,
		shutdownTimeout: serverCfg.ShutdownTimeout.Duration,
	}
}
