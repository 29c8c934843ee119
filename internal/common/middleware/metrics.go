package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tansive/trackcatalog/internal/common/httpx"
)

// HTTPMetrics holds the request counters and latency histograms of a server.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var metricLabels = []string{"handler", "method", "path", "response_code"}

func NewHTTPMetrics(namespace string) *HTTPMetrics {
	return &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of HTTP requests served.",
		}, metricLabels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time taken to serve HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, metricLabels),
	}
}

func (m *HTTPMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.duration}
}

// Metrics records one observation per request, labelled by the matched
// route pattern so ids in the path do not create new series.
func (m *HTTPMetrics) Metrics(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := httpx.NewResponseWriter(w)
			defer func(start time.Time) {
				path := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					path = rctx.RoutePattern()
				}
				label := prometheus.Labels{
					"handler":       name,
					"method":        r.Method,
					"path":          path,
					"response_code": strconv.Itoa(rw.Status()),
				}
				m.duration.With(label).Observe(time.Since(start).Seconds())
				m.requests.With(label).Inc()
			}(time.Now())
			next.ServeHTTP(rw, r)
		})
	}
}
