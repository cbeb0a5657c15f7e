package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/cache"
	"github.com/ferdiebergado/ragchat/internal/platform/jwt"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/metrics"
	"github.com/ferdiebergado/ragchat/internal/platform/router"
	"github.com/ferdiebergado/ragchat/internal/platform/validation"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
)

// Provider holds the long-lived dependencies shared by the HTTP handlers.
type Provider struct {
	Signer    jwt.Signer
	Validator validation.Validator
	Router    router.Router
	Metrics   *metrics.Registry
	Store     vectorstore.Store
	Embedder  llm.Embedder
	LLM       llm.Client

	closers []io.Closer
}

// NewProvider opens the vector store and builds the model clients. The
// embedder is wrapped in a Redis cache when caching is enabled; an
// unreachable Redis only disables the cache.
func NewProvider(ctx context.Context, cfg *config.Config) (*Provider, error) {
	reg := metrics.New()

	store, err := vectorstore.Open(ctx, cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	p := &Provider{
		Signer:    jwt.NewGolangJWTSigner(cfg.JWT),
		Validator: validation.NewGoPlaygroundValidator(),
		Router:    router.NewGoexpressRouter(),
		Metrics:   reg,
		Store:     store,
		LLM:       llm.NewHTTPClient(cfg.LLM, reg.LLMDuration),
		closers:   []io.Closer{store},
	}

	var embedder llm.Embedder = llm.NewHTTPEmbedder(cfg.Embedding, reg.LLMDuration)
	if cfg.Cache.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			slog.Warn("Embedding cache disabled.", "reason", err)
		} else {
			cached := cache.NewCachedEmbedder(embedder, rdb, cfg.Cache, reg.EmbeddingCache)
			p.closers = append(p.closers, cached)
			embedder = cached
		}
	}
	p.Embedder = embedder

	return p, nil
}

// Close releases the vector store and cache connections.
func (p *Provider) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
