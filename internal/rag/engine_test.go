package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/ferdiebergado/ragchat/internal/platform/llm"
	"github.com/ferdiebergado/ragchat/internal/platform/vectorstore"
	"github.com/ferdiebergado/ragchat/internal/rag"
)

var ragCfg = &config.RAG{TopK: 3, DistanceThreshold: 0.7, MaxContextChars: 10}

var oneEmbedder = &llm.StubEmbedder{
	EmbedFunc: func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	},
}

func storeWith(matches ...vectorstore.Match) *vectorstore.StubStore {
	return &vectorstore.StubStore{
		QueryFunc: func(_ context.Context, _ []float32, n int) ([]vectorstore.Match, error) {
			if n != 3 {
				return nil, errors.New("unexpected n")
			}
			return matches, nil
		},
	}
}

func match(id, content, filename string, distance float64) vectorstore.Match {
	return vectorstore.Match{
		Document: vectorstore.Document{ID: id, Content: content, Metadata: map[string]string{"filename": filename}},
		Distance: distance,
	}
}

func TestEngine_Query(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		matches     []vectorstore.Match
		wantSources []string
		wantInPrompt,
		notInPrompt string
	}{
		{
			name: "Filters by threshold and dedupes sources",
			matches: []vectorstore.Match{
				match("a-0", "alpha content that is long", "/x/a.pdf", 0.2),
				match("a-1", "alpha again", "/x/a.pdf", 0.5),
				match("b-0", "beta", "b.txt", 0.7),
			},
			wantSources:  []string{"a.pdf"},
			wantInPrompt: "Source: a.pdf\nContent: alpha cont\n\nSource: a.pdf\nContent: alpha agai",
			notInPrompt:  "beta",
		},
		{
			name:         "Nothing under threshold",
			matches:      []vectorstore.Match{match("b-0", "beta", "b.txt", 0.95)},
			wantSources:  []string{},
			wantInPrompt: "No relevant information found in the documents.",
			notInPrompt:  "Source:",
		},
		{
			name:         "Empty store",
			wantSources:  []string{},
			wantInPrompt: "No relevant information found in the documents.",
			notInPrompt:  "Source:",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var prompt string
			client := &llm.StubClient{
				CompleteFunc: func(_ context.Context, p string, _ ...llm.CompleteOption) (string, error) {
					prompt = p
					return "the answer", nil
				},
			}

			engine := rag.NewEngine(storeWith(tt.matches...), oneEmbedder, client, ragCfg, nil)

			answer, err := engine.Query(context.Background(), "question?")
			if err != nil {
				t.Fatalf("engine.Query() = %v, want: %v", err, nil)
			}

			if answer.Text != "the answer" {
				t.Errorf("answer.Text = %q, want: %q", answer.Text, "the answer")
			}
			if strings.Join(answer.Sources, ",") != strings.Join(tt.wantSources, ",") || answer.Sources == nil {
				t.Errorf("answer.Sources = %#v, want: %#v", answer.Sources, tt.wantSources)
			}
			if !strings.Contains(prompt, tt.wantInPrompt) {
				t.Errorf("prompt does not contain %q:\n%s", tt.wantInPrompt, prompt)
			}
			if strings.Contains(prompt, tt.notInPrompt) {
				t.Errorf("prompt contains %q:\n%s", tt.notInPrompt, prompt)
			}
		})
	}
}

func TestEngine_QueryErrors(t *testing.T) {
	t.Parallel()

	okClient := &llm.StubClient{
		CompleteFunc: func(context.Context, string, ...llm.CompleteOption) (string, error) { return "ok", nil },
	}
	downClient := &llm.StubClient{
		CompleteFunc: func(context.Context, string, ...llm.CompleteOption) (string, error) { return "", llm.ErrUnavailable },
	}
	closedStore := &vectorstore.StubStore{
		QueryFunc: func(context.Context, []float32, int) ([]vectorstore.Match, error) {
			return nil, vectorstore.ErrNotConnected
		},
	}

	tests := []struct {
		name    string
		store   vectorstore.Store
		client  llm.Client
		wantErr error
	}{
		{"Store closed", closedStore, okClient, vectorstore.ErrNotConnected},
		{"Model down", storeWith(), downClient, llm.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := rag.NewEngine(tt.store, oneEmbedder, tt.client, ragCfg, nil)
			if _, err := engine.Query(context.Background(), "q"); !errors.Is(err, tt.wantErr) {
				t.Errorf("engine.Query() = %v, want: %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngine_Direct(t *testing.T) {
	t.Parallel()

	client := &llm.StubClient{
		CompleteFunc: func(_ context.Context, p string, _ ...llm.CompleteOption) (string, error) {
			if !strings.Contains(p, "using your general knowledge.\n\nQuestion: hello") {
				t.Errorf("prompt = %q", p)
			}
			return "hi there", nil
		},
	}

	engine := rag.NewEngine(&vectorstore.StubStore{}, oneEmbedder, client, ragCfg, nil)

	got, err := engine.Direct(context.Background(), "hello")
	if err != nil {
		t.Fatalf("engine.Direct() = %v, want: %v", err, nil)
	}
	if got != "hi there" {
		t.Errorf("engine.Direct() = %q, want: %q", got, "hi there")
	}
}
