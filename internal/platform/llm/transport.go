package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ferdiebergado/ragchat/internal/pkg/errx"
	"github.com/ferdiebergado/ragchat/internal/platform/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	maxErrorBody           = 512
)

// transport posts JSON to one endpoint through a circuit breaker.
type transport struct {
	name     string
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	duration prometheus.ObserverVec
}

type breakerSettings struct {
	failures uint32
	timeout  time.Duration
}

func newTransport(name, baseURL, apiKey, model string, timeout time.Duration, bs breakerSettings, duration prometheus.ObserverVec) *transport {
	if bs.failures == 0 {
		bs.failures = defaultBreakerFailures
	}
	if bs.timeout == 0 {
		bs.timeout = defaultBreakerTimeout
	}

	t := &transport{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		duration: duration,
	}

	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: bs.timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errx.IsContextError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return t
}

func (t *transport) post(ctx context.Context, op, path string, in, out any) error {
	ctx, span := telemetry.Tracer().Start(ctx, "llm."+op, trace.WithAttributes(
		attribute.String("llm.endpoint", t.name),
		attribute.String("llm.model", t.model),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if t.duration != nil {
			t.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}
	}()

	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	_, err = t.breaker.Execute(func() (interface{}, error) {
		return nil, t.do(ctx, path, body, out)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, t.name, err)
		}
		return err
	}

	return nil
}

func (t *transport) do(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	res, err := t.client.Do(req)
	if err != nil {
		if errx.IsContextError(err) {
			return fmt.Errorf("post %s: %w", path, err)
		}
		return fmt.Errorf("%w: post %s: %v", ErrUnavailable, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("%w: %s returned status %d: %s", ErrUnavailable, path, res.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}

	return nil
}
