package middleware

import (
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxBodyBytes fits any command payload the dashboard accepts
const DefaultMaxBodyBytes int64 = 4 << 10

// LimitAndDrainRequest caps the request body at maxBytes, so an oversized
// command payload fails to decode instead of being read in full. After the
// handler returns, the unread rest (at most maxBytes) is drained and the body closed.
func LimitAndDrainRequest(maxBytes int64) func(next http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)

			drained, _ := io.Copy(io.Discard, r.Body)
			if drained > 0 {
				log.Tracef("%s %s: drained %d unread body bytes", r.Method, r.URL.Path, drained)
			}
			_ = r.Body.Close()
		})
	}
}
