package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/edvin/maildns/internal/api/response"
)

// Auth returns a middleware that compares the X-API-Key header against key.
func Auth(key string) func(http.Handler) http.Handler {
	want := sha256.Sum256([]byte(key))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if got == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			hash := sha256.Sum256([]byte(got))
			if subtle.ConstantTimeCompare(hash[:], want[:]) != 1 {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
