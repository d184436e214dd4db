package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bioshop/utils"

	"github.com/gorilla/mux"
)

// Key type for context
type contextKey string

const (
	UserContextKey    = contextKey("user")
	sessionContextKey = contextKey("cart-session")
	requestIDKey      = contextKey("request-id")
)

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Auth verifies Bearer tokens and attaches the claims to the context
func Auth(tokens *utils.TokenIssuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*utils.Claims)
	return claims, ok
}

// PermissionChecker resolves whether a role grants a permission.
type PermissionChecker interface {
	HasPermission(ctx context.Context, role, perm string) (bool, error)
}

// RequirePermission ensures the authenticated user's role grants perm. It must
// run after Auth.
func RequirePermission(checker PermissionChecker, perm string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			allowed, err := checker.HasPermission(r.Context(), claims.Role, perm)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Could not check permissions")
				return
			}
			if !allowed {
				writeError(w, http.StatusForbidden, "Forbidden: missing permission "+perm)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
