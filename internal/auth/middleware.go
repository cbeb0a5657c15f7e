package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ferdiebergado/ragchat/internal/pkg/message"
	"github.com/ferdiebergado/ragchat/internal/pkg/web"
	"github.com/ferdiebergado/ragchat/internal/platform/jwt"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// RequireOwner resolves the request owner from a bearer JWT. Without a token
// the owner is Anonymous unless required is set. A token that fails
// verification is always rejected.
func RequireOwner(signer jwt.Signer, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				if errors.Is(err, ErrMissingToken) && !required {
					next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), Anonymous)))
					return
				}
				web.RespondUnauthorized(w, err, message.InvalidToken, nil)
				return
			}

			claims, err := signer.Verify(token)
			if err != nil {
				web.RespondUnauthorized(w, errors.Join(ErrInvalidToken, err), message.InvalidToken, nil)
				return
			}

			slog.Debug("Request authenticated", "owner", claims.Subject)
			next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), claims.Subject)))
		})
	}
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing Bearer prefix")
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
