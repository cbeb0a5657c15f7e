package vectorstore

import (
	"context"
	"fmt"

	"github.com/ferdiebergado/ragchat/internal/config"
)

// Open returns the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.VectorStore) (Store, error) {
	metric, err := ParseMetric(cfg.DistanceMetric)
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case "sqlite":
		return OpenSQLite(ctx, cfg.PersistDirectory, cfg.Collection, metric)
	case "weaviate":
		return OpenWeaviate(ctx, cfg.Weaviate, cfg.Collection, metric)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
