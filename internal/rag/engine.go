// Package rag answers questions from retrieved document chunks.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/telemetry"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

// Answer is a generated reply and the files its context came from.
type Answer struct {
	Text    string
	Sources []string
}

type Engine struct {
	store    vectorstore.Store
	embedder llm.Embedder
	client   llm.Client
	cfg      *config.RAG
	results  *prometheus.CounterVec
}

// NewEngine returns an Engine. results may be nil.
func NewEngine(store vectorstore.Store, embedder llm.Embedder, client llm.Client, cfg *config.RAG, results *prometheus.CounterVec) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		client:   client,
		cfg:      cfg,
		results:  results,
	}
}

// Query retrieves the closest chunks, keeps those strictly under the distance
// threshold and asks the model with them as context. Sources is empty when
// no chunk was kept.
func (e *Engine) Query(ctx context.Context, question string) (Answer, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "rag.Query")
	defer span.End()

	vectors, err := e.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Answer{}, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) != 1 {
		return Answer{}, fmt.Errorf("%w: expected 1 embedding, got %d", llm.ErrEmbeddingCount, len(vectors))
	}

	matches, err := vectorstore.DebugSearch(ctx, e.store, vectors[0], e.cfg.TopK)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieve context: %w", err)
	}

	slog.Info("Filtering retrieved chunks", "results", len(matches), "threshold", e.cfg.DistanceThreshold)

	var contexts, sources []string
	for i, m := range matches {
		if m.Distance >= e.cfg.DistanceThreshold {
			slog.Warn("Discarding result above threshold", "rank", i+1, "distance", m.Distance)
			e.count("discarded")
			continue
		}

		slog.Info("Accepting result", "rank", i+1, "distance", m.Distance)
		e.count("accepted")
		contexts = append(contexts, truncate(m.Content, e.cfg.MaxContextChars))
		sources = append(sources, SourceName(m.Metadata))
	}

	if len(contexts) == 0 {
		slog.Warn("No relevant context found, answering from general knowledge")
	}
	span.SetAttributes(
		attribute.Int("rag.retrieved", len(matches)),
		attribute.Int("rag.accepted", len(contexts)),
	)

	text, err := e.client.Complete(ctx, BuildPrompt(question, contexts, sources))
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	answer := Answer{Text: text, Sources: []string{}}
	if len(contexts) > 0 {
		answer.Sources = Unique(sources)
	}
	return answer, nil
}

// Direct answers from the model's general knowledge.
func (e *Engine) Direct(ctx context.Context, question string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "rag.Direct")
	defer span.End()

	text, err := e.client.Complete(ctx, BuildDirectPrompt(question))
	if err != nil {
		return "", fmt.Errorf("generate direct answer: %w", err)
	}
	return text, nil
}

func (e *Engine) count(decision string) {
	if e.results != nil {
		e.results.WithLabelValues(decision).Inc()
	}
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
