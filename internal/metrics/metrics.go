// Package metrics provides Prometheus metrics for the backend API
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exploreinn",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exploreinn",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks current in-flight requests
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exploreinn",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

var (
	// MailboxAuthzDecisions counts authorization decisions by mailbox kind
	MailboxAuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exploreinn",
			Subsystem: "mailbox",
			Name:      "authz_decisions_total",
			Help:      "Total mailbox authorization decisions by mailbox kind and outcome",
		},
		[]string{"mailbox", "decision"},
	)

	// MailboxLoads counts completed mailbox view loads
	MailboxLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exploreinn",
			Subsystem: "mailbox",
			Name:      "loads_total",
			Help:      "Total completed mailbox view loads by mailbox kind",
		},
		[]string{"mailbox"},
	)

	// MailboxLoadDuration measures mailbox view load duration
	MailboxLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exploreinn",
			Subsystem: "mailbox",
			Name:      "load_duration_seconds",
			Help:      "Mailbox view load duration in seconds (authorize, fetch, enrich)",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"mailbox"},
	)

	// MailboxReadWrites counts persisted read-state transitions
	MailboxReadWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exploreinn",
			Subsystem: "mailbox",
			Name:      "read_writes_total",
			Help:      "Total mail read-state transitions written to the store",
		},
	)

	// MailboxDanglingReferences counts enrichment lookups that degraded to
	// a placeholder
	MailboxDanglingReferences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exploreinn",
			Subsystem: "mailbox",
			Name:      "dangling_references_total",
			Help:      "Total enrichment lookups that degraded to a placeholder summary",
		},
		[]string{"reference"},
	)

	// MailboxViewsLive tracks live mailbox view sessions
	MailboxViewsLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exploreinn",
			Subsystem: "mailbox",
			Name:      "views_live",
			Help:      "Current number of live mailbox view sessions",
		},
	)
)

var (
	// DBConnectionsOpen tracks open database connections
	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exploreinn",
			Subsystem: "db",
			Name:      "connections_open",
			Help:      "Number of open database connections",
		},
	)

	// DBConnectionsInUse tracks database connections currently in use
	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exploreinn",
			Subsystem: "db",
			Name:      "connections_in_use",
			Help:      "Number of database connections currently in use",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exploreinn",
			Subsystem: "db",
			Name:      "connections_idle",
			Help:      "Number of idle database connections",
		},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Middleware returns a chi middleware that records HTTP metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		path := getRoutePattern(r)

		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rw.statusCode)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// getRoutePattern returns the route pattern from chi context, falling back
// to the raw URL path when no pattern is available.
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
