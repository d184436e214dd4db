package middleware

import (
	"context"
	"net/http"
	"time"

	"bioshop/utils"

	"github.com/gorilla/mux"
)

// CartSession resolves the anonymous cart token, issuing one when the request
// has none, and refreshes the cookie on every response.
func CartSession(ttl time.Duration, secure bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := utils.SessionToken(r)
			if token == "" {
				token = utils.NewSessionToken()
			}
			utils.SetSessionCookie(w, token, ttl, secure)

			ctx := context.WithValue(r.Context(), sessionContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the cart token set by CartSession.
func SessionFromContext(ctx context.Context) string {
	token, _ := ctx.Value(sessionContextKey).(string)
	return token
}
