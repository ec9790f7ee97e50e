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
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sentrydesk",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sentrydesk",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Intake / classification metrics
	intakeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "intake",
			Name:      "records_total",
			Help:      "Total number of raw intake records processed",
		},
		[]string{"source", "severity"},
	)

	intakeFallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "intake",
			Name:      "fallback_total",
			Help:      "Intake records that classified to a generic fallback type",
		},
		[]string{"source"},
	)

	// Deduplication metrics
	dedupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "dedup",
			Name:      "results_total",
			Help:      "Dedup outcomes for candidate alerts",
		},
		[]string{"outcome"}, // created or merged
	)

	openAlerts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sentrydesk",
			Subsystem: "alert",
			Name:      "count",
			Help:      "Number of alerts by status",
		},
		[]string{"status"},
	)

	// Correlation metrics
	correlationClusters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sentrydesk",
			Subsystem: "correlation",
			Name:      "cluster_count",
			Help:      "Number of correlation clusters found by the last sweep",
		},
	)

	correlationSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sentrydesk",
			Subsystem: "correlation",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of the correlation sweep in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Escalation metrics
	escalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "escalation",
			Name:      "transitions_total",
			Help:      "State machine transitions by target state",
		},
		[]string{"to"},
	)

	// Assignment metrics
	assignmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "assign",
			Name:      "decisions_total",
			Help:      "Assignment decisions",
		},
		[]string{"outcome"}, // assigned or unassigned
	)

	// Connector metrics
	connectorPollTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sentrydesk",
			Subsystem: "connector",
			Name:      "polls_total",
			Help:      "Connector poll attempts by source and status",
		},
		[]string{"source", "status"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordIntake records a classified intake record
func RecordIntake(source, severity string) {
	intakeTotal.WithLabelValues(source, severity).Inc()
}

// RecordIntakeFallback records an intake that fell through to a generic type
func RecordIntakeFallback(source string) {
	intakeFallbackTotal.WithLabelValues(source).Inc()
}

// RecordDedup records a dedup outcome ("created" or "merged")
func RecordDedup(outcome string) {
	dedupTotal.WithLabelValues(outcome).Inc()
}

// SetOpenAlerts sets the alert count gauge for one status
func SetOpenAlerts(status string, count float64) {
	openAlerts.WithLabelValues(status).Set(count)
}

// RecordCorrelationSweep records the results of a correlation sweep
func RecordCorrelationSweep(clusters int, duration time.Duration) {
	correlationClusters.Set(float64(clusters))
	correlationSweepDuration.Observe(duration.Seconds())
}

// RecordTransition records a state machine transition
func RecordTransition(to string) {
	escalationsTotal.WithLabelValues(to).Inc()
}

// RecordAssignment records an assignment decision ("assigned" or "unassigned")
func RecordAssignment(outcome string) {
	assignmentsTotal.WithLabelValues(outcome).Inc()
}

// RecordConnectorPoll records a connector poll attempt
func RecordConnectorPoll(source, status string) {
	connectorPollTotal.WithLabelValues(source, status).Inc()
}
