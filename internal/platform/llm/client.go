package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ferdiebergado/ragchat/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

const completionsPath = "/v1/completions"

type completionRequest struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   int      `json:"max_tokens"`
	Temperature float64  `json:"temperature"`
	Stop        []string `json:"stop,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type httpClient struct {
	cfg *config.LLM
	t   *transport
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient returns a Client for the /v1/completions endpoint at cfg.BaseURL.
// duration may be nil.
func NewHTTPClient(cfg *config.LLM, duration prometheus.ObserverVec) Client {
	bs := breakerSettings{failures: cfg.BreakerFailures, timeout: cfg.BreakerTimeout.Duration}
	return &httpClient{
		cfg: cfg,
		t:   newTransport("llm", cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout.Duration, bs, duration),
	}
}

func (c *httpClient) Complete(ctx context.Context, prompt string, opts ...CompleteOption) (string, error) {
	o := &completeOptions{
		maxTokens:   c.cfg.MaxTokens,
		temperature: c.cfg.Temperature,
		stop:        c.cfg.Stop,
	}
	for _, opt := range opts {
		opt(o)
	}

	req := &completionRequest{
		Model:       c.cfg.Model,
		Prompt:      prompt,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
		Stop:        o.stop,
	}

	var res completionResponse
	if err := c.t.post(ctx, "complete", completionsPath, req, &res); err != nil {
		return "", err
	}

	if len(res.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	text := strings.TrimSpace(res.Choices[0].Text)
	slog.Debug("Completion received", "prompt_chars", len(prompt), "answer_chars", len(text))
	return text, nil
}
