package cache_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ferdiebergado/ragchat/internal/config"
	timex "github.com/ferdiebergado/ragchat/internal/pkg/time"
	"github.com/ferdiebergado/ragchat/internal/platform/cache"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
)

var cacheCfg = &config.Cache{Prefix: "test:", TTL: timex.Of(time.Hour)}

func countingEmbedder(seen *[][]string) *llm.StubEmbedder {
	return &llm.StubEmbedder{
		ModelName: "minilm",
		EmbedFunc: func(_ context.Context, texts []string) ([][]float32, error) {
			*seen = append(*seen, texts)
			out := make([][]float32, len(texts))
			for i, text := range texts {
				out[i] = []float32{float32(len(text)), 0.5}
			}
			return out, nil
		},
	}
}

func TestCachedEmbedder_HitsSkipBackend(t *testing.T) {
	t.Parallel()

	var seen [][]string
	rdb := cache.NewMemoryRedis()
	embedder := cache.NewCachedEmbedder(countingEmbedder(&seen), rdb, cacheCfg, nil)
	ctx := context.Background()

	if _, err := embedder.Embed(ctx, []string{"alpha", "be"}); err != nil {
		t.Fatalf("first Embed() = %v, want: %v", err, nil)
	}

	vectors, err := embedder.Embed(ctx, []string{"be", "gamma", "alpha"})
	if err != nil {
		t.Fatalf("second Embed() = %v, want: %v", err, nil)
	}

	if len(seen) != 2 {
		t.Fatalf("backend calls = %d, want: %d", len(seen), 2)
	}
	if len(seen[1]) != 1 || seen[1][0] != "gamma" {
		t.Errorf("second backend call = %v, want: [gamma]", seen[1])
	}

	want := []float32{2, 5, 5}
	for i, w := range want {
		if vectors[i][0] != w || vectors[i][1] != 0.5 {
			t.Errorf("vectors[%d] = %v, want: [%v 0.5]", i, vectors[i], w)
		}
	}

	if rdb.Len() != 3 {
		t.Errorf("cached entries = %d, want: %d", rdb.Len(), 3)
	}
}

func TestCachedEmbedder_RedisDown(t *testing.T) {
	t.Parallel()

	var seen [][]string
	rdb := cache.NewMemoryRedis()
	rdb.GetErr = errors.New("connection refused")
	rdb.SetErr = errors.New("connection refused")
	embedder := cache.NewCachedEmbedder(countingEmbedder(&seen), rdb, cacheCfg, nil)

	vectors, err := embedder.Embed(context.Background(), []string{"alpha"})
	if err != nil {
		t.Fatalf("Embed() = %v, want: %v", err, nil)
	}
	if len(vectors) != 1 || vectors[0][0] != 5 {
		t.Errorf("vectors = %v, want: [[5 0.5]]", vectors)
	}
}

func TestCachedEmbedder_Key(t *testing.T) {
	t.Parallel()

	var seen [][]string
	embedder := cache.NewCachedEmbedder(countingEmbedder(&seen), cache.NewMemoryRedis(), cacheCfg, nil)

	key := embedder.Key("hello")
	if !strings.HasPrefix(key, "test:minilm:") {
		t.Errorf("key = %q, want prefix %q", key, "test:minilm:")
	}
	if got := len(strings.TrimPrefix(key, "test:minilm:")); got != 64 {
		t.Errorf("hash length = %d, want: %d", got, 64)
	}
	if embedder.Key("hello") != key {
		t.Error("Key is not deterministic")
	}
	if embedder.Key("hello!") == key {
		t.Error("different texts share a key")
	}
}
