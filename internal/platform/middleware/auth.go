package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"fundmatch/internal/platform/tokens"
	"fundmatch/pkg/requestcontext"
)

// TokenValidator verifies bearer tokens and extracts the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*tokens.Claims, error)
}

// RequireAuth validates the Authorization header and places the caller
// identity in context. Every engine operation is capability-gated on the
// caller, so unauthenticated requests never reach a handler.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), claims.Caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
