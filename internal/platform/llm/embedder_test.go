package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ferdiebergado/ragchat/internal/config"
	timex "github.com/ferdiebergado/ragchat/internal/pkg/time"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
)

type embeddingItem struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// lengthEmbedder answers every input with [len(input)] in reverse order.
func lengthEmbedder(t *testing.T, calls *atomic.Int32) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		data := make([]embeddingItem, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, embeddingItem{Index: i, Embedding: []float32{float32(len(req.Input[i]))}})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func TestEmbed_BatchesAndOrders(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(lengthEmbedder(t, &calls))
	t.Cleanup(srv.Close)

	embedder := llm.NewHTTPEmbedder(&config.Embedding{
		BaseURL:   srv.URL,
		Model:     "minilm",
		BatchSize: 2,
		Timeout:   timex.Of(5 * time.Second),
	}, nil)

	texts := []string{"a", "bb", "ccc"}
	vectors, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("embedder.Embed() = %v, want: %v", err, nil)
	}

	if len(vectors) != len(texts) {
		t.Fatalf("len(vectors) = %d, want: %d", len(vectors), len(texts))
	}

	for i, text := range texts {
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vectors[%d] = %v, want: [%d]", i, vectors[i], len(text))
		}
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("calls = %d, want: %d", got, 2)
	}

	if embedder.Model() != "minilm" {
		t.Errorf("embedder.Model() = %q, want: %q", embedder.Model(), "minilm")
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}))
	t.Cleanup(srv.Close)

	embedder := llm.NewHTTPEmbedder(&config.Embedding{BaseURL: srv.URL, BatchSize: 8}, nil)

	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); !errors.Is(err, llm.ErrEmbeddingCount) {
		t.Errorf("embedder.Embed() = %v, want: %v", err, llm.ErrEmbeddingCount)
	}
}

func TestEmbed_Empty(t *testing.T) {
	t.Parallel()

	embedder := llm.NewHTTPEmbedder(&config.Embedding{BaseURL: "http://127.0.0.1:1", BatchSize: 8}, nil)

	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("embedder.Embed(nil) = %v, want: %v", err, nil)
	}
	if len(vectors) != 0 {
		t.Errorf("len(vectors) = %d, want: 0", len(vectors))
	}
}
