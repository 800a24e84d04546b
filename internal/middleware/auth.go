package middleware

import (
	"crypto/subtle"
	"net/http"

	"loyalty-rewards-api/pkg/apierror"
)

// RequireKey returns a middleware that gates a route group behind a shared
// secret header. An empty configured key disables the route group entirely
// rather than leaving it open.
func RequireKey(header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				writeError(w, apierror.Forbidden("endpoint is not enabled"))
				return
			}

			provided := r.Header.Get(header)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				writeError(w, apierror.Unauthorized("Invalid or missing "+header+" header"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}
