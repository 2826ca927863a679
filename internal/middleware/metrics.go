package middleware

import (
	"net/http"
	"strconv"

	"shopmall-be/internal/metrics"

	"github.com/go-chi/chi/v5"
)

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency labelled by chi route pattern,
// so path parameters such as order numbers do not explode cardinality.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timer := metrics.StartTimer()
			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}

			m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.statusCode)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(timer.Duration().Milliseconds()))
		})
	}
}
