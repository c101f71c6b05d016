package middleware

import (
	"net/http"
	"time"

	"github.com/sakif/culinary-compass/internal/metrics"
)

// Metrics records request counts and latencies labelled by route pattern,
// never by raw path, so venue ids cannot blow up label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrap(w)

		next.ServeHTTP(wrapped, r)

		metrics.RecordAPIRequest(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
	})
}
