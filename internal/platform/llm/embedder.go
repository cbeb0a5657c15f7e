package llm

import (
	"context"
	"fmt"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

const embeddingsPath = "/v1/embeddings"

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type httpEmbedder struct {
	model     string
	batchSize int
	t         *transport
}

var _ Embedder = (*httpEmbedder)(nil)

// NewHTTPEmbedder returns an Embedder for the /v1/embeddings endpoint at cfg.BaseURL.
// duration may be nil.
func NewHTTPEmbedder(cfg *config.Embedding, duration prometheus.ObserverVec) Embedder {
	batch := cfg.BatchSize
	if batch < 1 {
		batch = 1
	}
	return &httpEmbedder{
		model:     cfg.Model,
		batchSize: batch,
		t:         newTransport("embedding", cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout.Duration, breakerSettings{}, duration),
	}
}

func (e *httpEmbedder) Model() string {
	return e.model
}

func (e *httpEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *httpEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var res embeddingResponse
	if err := e.t.post(ctx, "embed", embeddingsPath, &embeddingRequest{Model: e.model, Input: texts}, &res); err != nil {
		return nil, err
	}

	if len(res.Data) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d texts, got %d embeddings", ErrEmbeddingCount, len(texts), len(res.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range res.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("%w: unexpected index %d", ErrEmbeddingCount, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
