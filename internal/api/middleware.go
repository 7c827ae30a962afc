package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware returns middleware that checks the Bearer token of the
// request against token. An empty token disables the check.
func AuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const prefix = "Bearer "
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, prefix) {
				Unauthorized(w)
				return
			}
			if subtle.ConstantTimeCompare([]byte(authHeader[len(prefix):]), []byte(token)) != 1 {
				Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
