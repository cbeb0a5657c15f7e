package middleware

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/ferdiebergado/ragchat/internal/pkg/message"
	"github.com/ferdiebergado/ragchat/internal/pkg/web"
)

// CheckContentType rejects request bodies that are not JSON. Bodiless
// requests pass through.
func CheckContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Info("Checking Content-Type...")
		contentType := r.Header.Get(web.HeaderContentType)

		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != web.MimeJSON {
			web.RespondUnsupportedMediaType(w, fmt.Errorf("invalid content-type: %s", contentType), message.InvalidInput, nil)
			return
		}

		slog.Info("Content-Type is valid.")
		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	default:
		return false
	}
}
