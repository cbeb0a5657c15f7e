package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ferdiebergado/ragchat/internal/middleware"
)

func TestSafeResponseWriter(t *testing.T) {
	t.Parallel()

	t.Run("Records status and bytes", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		w := middleware.NewSafeResponseWriter(context.Background(), rec)

		w.WriteHeader(http.StatusCreated)
		w.WriteHeader(http.StatusTeapot)
		if _, err := w.Write([]byte("hello")); err != nil {
			t.Fatal(err)
		}

		if w.Status() != http.StatusCreated || rec.Code != http.StatusCreated {
			t.Errorf("status = %d/%d, want: %d", w.Status(), rec.Code, http.StatusCreated)
		}
		if w.BytesWritten() != 5 {
			t.Errorf("w.BytesWritten() = %d, want: %d", w.BytesWritten(), 5)
		}
	})

	t.Run("Server errors keep their body", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		w := middleware.NewSafeResponseWriter(context.Background(), rec)

		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte(`{"message":"down"}`)); err != nil {
			t.Fatal(err)
		}
		if rec.Body.String() != `{"message":"down"}` {
			t.Errorf("rec.Body.String() = %q", rec.Body.String())
		}
	})

	t.Run("Cancelled request drops writes", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		rec := httptest.NewRecorder()
		w := middleware.NewSafeResponseWriter(ctx, rec)
		w.WriteHeader(http.StatusOK)
		n, err := w.Write([]byte("late"))

		if n != 0 || err != nil || rec.Body.Len() != 0 {
			t.Errorf("w.Write() = %d, %v; body %q", n, err, rec.Body.String())
		}
	})
}
