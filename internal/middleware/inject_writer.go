package middleware

import "net/http"

// InjectWriter wraps the response writer so later middlewares can read the
// status code and byte count. It must run before LogRequest and Metrics.
func InjectWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(*SafeResponseWriter); ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(NewSafeResponseWriter(r.Context(), w), r)
	})
}

// statusOf returns the status recorded by a SafeResponseWriter, or 0 when w
// was not wrapped.
func statusOf(w http.ResponseWriter) (status, bytes int) {
	writer, ok := w.(*SafeResponseWriter)
	if !ok {
		return 0, 0
	}
	return writer.Status(), writer.BytesWritten()
}
