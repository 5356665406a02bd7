package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/unabstore/shop/pkg/web"
)

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// RequireIdentity rejects requests without a valid bearer token with 401 and
// stores the resolved Identity in the request context otherwise.
func RequireIdentity(gateway Gateway, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				web.RespondError(w, logger, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			token, ok := bearerToken(authHeader)
			if !ok {
				web.RespondError(w, logger, http.StatusUnauthorized, "Bearer token is required")
				return
			}

			id, err := gateway.Identify(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected token", slog.Any("error", err))
				web.RespondError(w, logger, http.StatusUnauthorized, MsgUnauthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), *id)))
		})
	}
}

// AccessToken returns the bearer token of r, if any.
func AccessToken(r *http.Request) string {
	token, _ := bearerToken(r.Header.Get("Authorization"))
	return token
}
