package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ferdiebergado/ragchat/internal/platform/metrics"
	"github.com/google/uuid"
)

// Metrics records request counts and latencies. Path segments that are
// UUIDs or hex document IDs are collapsed so each route has one label.
func Metrics(reg *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			route := RouteLabel(r.URL.Path)
			status, _ := statusOf(w)
			if status == 0 {
				status = defaultStatus
			}

			reg.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			reg.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// RouteLabel replaces identifier segments of path with "{id}".
func RouteLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if isIdentifier(s) {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

func isIdentifier(s string) bool {
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	if len(s) != 16 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}
