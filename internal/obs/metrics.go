package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Event bus metrics
var (
	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_events_published_total",
			Help: "Domain events broadcast on the in-process bus.",
		},
		[]string{"kind"},
	)

	eventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_events_dropped_total",
			Help: "Envelopes shed from lagging subscriber cursors.",
		},
		[]string{"kind"},
	)
)

// Authorization metrics
var permissionChecksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authz_permission_checks_total",
		Help: "Permission existence checks by outcome (allowed, denied, error).",
	},
	[]string{"outcome"},
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		eventsPublishedTotal, eventsDroppedTotal,
		permissionChecksTotal,
	)
}

// EventPublished records a broadcast envelope.
func EventPublished(kind string) {
	eventsPublishedTotal.WithLabelValues(kind).Inc()
}

// EventDropped records an envelope shed from one subscriber's cursor.
func EventDropped(kind string) {
	eventsDroppedTotal.WithLabelValues(kind).Inc()
}

// PermissionCheck records the outcome of an authorization check.
func PermissionCheck(outcome string) {
	permissionChecksTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps a handler with RPS/latency/in-flight accounting.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.RequestURI())
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses identifier path segments so metric label
// cardinality stays bounded.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "api" && (parts[1] == "users" || parts[1] == "tenants"):
		return "/api/" + parts[1] + "/:id"
	case len(parts) == 6 && parts[0] == "api" && parts[1] == "permissions":
		return "/api/permissions/:subject/:action/:resource_id/:resource_kind"
	}
	return p
}

// statusWriter records the response code for metrics labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
