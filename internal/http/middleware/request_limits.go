package middleware

import (
	"net/http"
)

// RequestSizeLimit caps the request body at maxBytes. Reads past the cap
// fail with *http.MaxBytesError, see httputil.ReadJSON.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
