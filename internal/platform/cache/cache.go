// Package cache keeps embeddings in Redis so unchanged text is never embedded twice.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/blake2b"
)

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// NewRedisClient connects to cfg.Addr and checks the connection.
func NewRedisClient(ctx context.Context, cfg *config.Cache) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	slog.Info("Redis cache connected.", "addr", cfg.Addr, "db", cfg.DB)
	return rdb, nil
}

// CachedEmbedder decorates an Embedder with a Redis lookaside cache.
type CachedEmbedder struct {
	next    llm.Embedder
	rdb     RedisClient
	prefix  string
	ttl     time.Duration
	lookups *prometheus.CounterVec
}

var _ llm.Embedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps next. lookups may be nil.
func NewCachedEmbedder(next llm.Embedder, rdb RedisClient, cfg *config.Cache, lookups *prometheus.CounterVec) *CachedEmbedder {
	return &CachedEmbedder{
		next:    next,
		rdb:     rdb,
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL.Duration,
		lookups: lookups,
	}
}

func (c *CachedEmbedder) Model() string {
	return c.next.Model()
}

// Embed returns cached vectors where present and embeds the rest in one call.
// Redis failures are treated as misses.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	var missing []int

	for i, text := range texts {
		vec, ok := c.get(ctx, c.Key(text))
		if !ok {
			missing = append(missing, i)
			continue
		}
		vectors[i] = vec
	}

	c.count("hit", len(texts)-len(missing))
	c.count("miss", len(missing))

	if len(missing) == 0 {
		return vectors, nil
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = texts[i]
	}

	embedded, err := c.next.Embed(ctx, pending)
	if err != nil {
		return nil, err
	}

	for j, i := range missing {
		vectors[i] = embedded[j]
		if err := c.rdb.Set(ctx, c.Key(texts[i]), encode(embedded[j]), c.ttl).Err(); err != nil {
			slog.Warn("Failed to cache embedding", "error", err)
		}
	}

	return vectors, nil
}

// Key is prefix + model + ":" + hex(blake2b-256(text)).
func (c *CachedEmbedder) Key(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return c.prefix + c.next.Model() + ":" + hex.EncodeToString(sum[:])
}

func (c *CachedEmbedder) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *CachedEmbedder) Close() error {
	return c.rdb.Close()
}

func (c *CachedEmbedder) get(ctx context.Context, key string) ([]float32, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("Failed to read cached embedding", "key", key, "error", err)
		}
		return nil, false
	}

	vec, ok := decode(b)
	if !ok {
		slog.Warn("Discarding malformed cached embedding", "key", key, "bytes", len(b))
	}
	return vec, ok
}

func (c *CachedEmbedder) count(result string, n int) {
	if c.lookups == nil || n == 0 {
		return
	}
	c.lookups.WithLabelValues(result).Add(float64(n))
}

func encode(vec []float32) []byte {
	b := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decode(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	vec := make([]float32, len(b)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return vec, true
}
