package llm

import (
	"context"
	"errors"
)

type StubClient struct {
	CompleteFunc func(ctx context.Context, prompt string, opts ...CompleteOption) (string, error)
}

var _ Client = (*StubClient)(nil)

func (s *StubClient) Complete(ctx context.Context, prompt string, opts ...CompleteOption) (string, error) {
	if s.CompleteFunc == nil {
		return "", errors.New("Complete() not implemented by stub")
	}
	return s.CompleteFunc(ctx, prompt, opts...)
}

type StubEmbedder struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	ModelName string
}

var _ Embedder = (*StubEmbedder)(nil)

func (s *StubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.EmbedFunc == nil {
		return nil, errors.New("Embed() not implemented by stub")
	}
	return s.EmbedFunc(ctx, texts)
}

func (s *StubEmbedder) Model() string {
	return s.ModelName
}
