package router

import (
	"crypto/subtle"
	"net/http"
)

// HeaderAPIKey carries the client API key.
const HeaderAPIKey = "X-API-Key"

// middlewareAPIKey rejects requests outside publicEndpoints that do not carry
// one of keys. No keys means the check is disabled.
func middlewareAPIKey(keys []string, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[matchedRoutePath(r)]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			got := []byte(r.Header.Get(HeaderAPIKey))
			for _, key := range keys {
				if subtle.ConstantTimeCompare(got, []byte(key)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeJSON(w, errorResponse{Message: "Invalid or missing API key"}, http.StatusUnauthorized)
		})
	}
}
