// Package authmw provides HTTP middleware protecting the ingest routes with
// a shared bearer token.
package authmw

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireToken returns middleware that validates the Authorization header
// carries the expected bearer token. With an empty token the middleware is a
// passthrough, so unconfigured deployments (local hackathon demos) stay
// open. Comparison is constant-time.
func RequireToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, `{"error":"missing or malformed authorization header"}`, http.StatusUnauthorized)
				return
			}

			got := []byte(strings.TrimPrefix(auth, "Bearer "))
			if subtle.ConstantTimeCompare(got, expected) != 1 {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
