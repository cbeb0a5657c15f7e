// Package llm talks to OpenAI-compatible completion and embedding servers
// such as llama.cpp's llama-server, Ollama or vLLM.
package llm

import (
	"context"
	"errors"
)

var (
	ErrUnavailable     = errors.New("language model unavailable")
	ErrEmptyCompletion = errors.New("language model returned no choices")
	ErrEmbeddingCount  = errors.New("embedding count mismatch")
)

// Client generates text from a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string, opts ...CompleteOption) (string, error)
}

// Embedder turns texts into vectors. The returned slice is index-aligned with texts.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type completeOptions struct {
	maxTokens   int
	temperature float64
	stop        []string
}

type CompleteOption func(*completeOptions)

func WithMaxTokens(n int) CompleteOption {
	return func(o *completeOptions) { o.maxTokens = n }
}

func WithTemperature(t float64) CompleteOption {
	return func(o *completeOptions) { o.temperature = t }
}

func WithStop(stop ...string) CompleteOption {
	return func(o *completeOptions) { o.stop = stop }
}
