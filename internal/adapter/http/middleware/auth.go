package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/smsledger/internal/domain"
	"github.com/iho/smsledger/internal/infrastructure/auth"
	"github.com/iho/smsledger/internal/infrastructure/metrics"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and attaches
// the token's actor to the request context.
func AuthMiddleware(verifier TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				authFailed(w, m, "missing_token", "missing or malformed authorization header")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				reason := "invalid_token"
				if errors.Is(err, domain.ErrExpiredToken) {
					reason = "expired_token"
				}
				authFailed(w, m, reason, err.Error())
				return
			}

			ctx := domain.ContextWithActor(r.Context(), claims.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission answers 403 unless allowed accepts the request actor's role.
// Without AuthMiddleware in front the actor is the system admin.
func RequirePermission(allowed func(domain.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := domain.ActorFromContext(r.Context())
			if !allowed(actor.Role) {
				writeJSONError(w, http.StatusForbidden, "forbidden", domain.ErrInsufficientRole.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func authFailed(w http.ResponseWriter, m *metrics.Metrics, reason, message string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", message)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"code":    code,
		"message": message,
	})
}
