package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	reg := metrics.New()
	reg.ChatRoutes.WithLabelValues("rag").Inc()
	reg.ChatRoutes.WithLabelValues("rag").Inc()
	reg.ChatRoutes.WithLabelValues("direct").Inc()

	if got := testutil.ToFloat64(reg.ChatRoutes.WithLabelValues("rag")); got != 2 {
		t.Errorf("chat_routes_total{route=rag} = %v, want: %v", got, 2)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("res.StatusCode = %d, want: %d", res.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	want := `ragchat_chat_routes_total{route="direct"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("body does not contain %q", want)
	}
}

func TestNew_Isolated(t *testing.T) {
	t.Parallel()

	a, b := metrics.New(), metrics.New()
	a.IngestedChunks.Add(3)

	if got := testutil.ToFloat64(b.IngestedChunks); got != 0 {
		t.Errorf("second registry ingested_chunks_total = %v, want: %v", got, 0)
	}
}
