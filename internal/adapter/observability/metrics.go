// Package observability provides logging, metrics, and tracing.
//
// It integrates with OpenTelemetry and Prometheus for system monitoring
// across the producer, worker, and dashboard processes.
package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts dashboard HTTP requests by route, method, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration records dashboard request durations by route and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// URLsDiscoveredTotal counts candidate URLs found by discovery source.
	URLsDiscoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_urls_total",
			Help: "Total candidate URLs discovered",
		},
		[]string{"source"},
	)
	// URLsDuplicateTotal counts candidate URLs rejected as already-seen.
	URLsDuplicateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discovery_duplicates_total",
			Help: "Total candidate URLs rejected as duplicates",
		},
		[]string{"source"},
	)

	// QueueLength is a gauge of the pending-task queue length.
	QueueLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_length",
			Help: "Number of tasks pending in the coordination queue",
		},
	)

	// TasksProcessedTotal counts processed tasks by outcome (ok, error, skipped).
	TasksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_processed_total",
			Help: "Total tasks processed by outcome",
		},
		[]string{"outcome"},
	)
	// TaskStageDuration records per-stage processing durations (download, extraction, nlp).
	TaskStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_stage_duration_seconds",
			Help:    "Task processing duration per stage",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	// SentimentClassificationTotal counts classified articles by sentiment label.
	SentimentClassificationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_classification_total",
			Help: "Total articles classified by sentiment label",
		},
		[]string{"classification"},
	)
	// RelevanceScoreHistogram is the distribution of economic-relevance scores [0,100].
	RelevanceScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relevance_score",
			Help:    "Distribution of economic keyword relevance scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// ActiveWorkers is a gauge of workers with a live heartbeat.
	ActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_workers",
			Help: "Number of workers with a live heartbeat",
		},
	)
	// AggregateThroughput is a gauge of the aggregate processing rate across
	// workers, in tasks per minute (the unit of the heartbeat rates it sums).
	AggregateThroughput = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aggregate_throughput_per_minute",
			Help: "Aggregate article processing rate across all workers, in tasks per minute",
		},
	)

	// CircuitBreakerStatus tracks circuit breaker state (0=closed, 1=open, 2=half-open).
	CircuitBreakerStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_status",
			Help: "Circuit breaker status (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service", "operation"},
	)
)

// InitMetrics registers all Prometheus metrics with the default registry.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(URLsDiscoveredTotal)
	prometheus.MustRegister(URLsDuplicateTotal)
	prometheus.MustRegister(QueueLength)
	prometheus.MustRegister(TasksProcessedTotal)
	prometheus.MustRegister(TaskStageDuration)
	prometheus.MustRegister(SentimentClassificationTotal)
	prometheus.MustRegister(RelevanceScoreHistogram)
	prometheus.MustRegister(ActiveWorkers)
	prometheus.MustRegister(AggregateThroughput)
	prometheus.MustRegister(CircuitBreakerStatus)
}

// HTTPMetricsMiddleware records Prometheus metrics for each dashboard request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// RecordDiscovery records a discovery pass result for one source.
func RecordDiscovery(source string, found, duplicates int) {
	URLsDiscoveredTotal.WithLabelValues(source).Add(float64(found))
	URLsDuplicateTotal.WithLabelValues(source).Add(float64(duplicates))
}

// RecordTaskOutcome increments the processed-task counter for one outcome.
func RecordTaskOutcome(outcome string) {
	TasksProcessedTotal.WithLabelValues(outcome).Inc()
}

// RecordStageDuration observes how long a pipeline stage took.
func RecordStageDuration(stage string, dur time.Duration) {
	TaskStageDuration.WithLabelValues(stage).Observe(dur.Seconds())
}

// RecordSentiment records the classification label and relevance score of one article.
func RecordSentiment(classification string, relevanceScore int) {
	SentimentClassificationTotal.WithLabelValues(classification).Inc()
	RelevanceScoreHistogram.Observe(float64(relevanceScore))
}

// RecordFleetStatus sets the active-worker and aggregate-throughput gauges.
func RecordFleetStatus(activeWorkers int, aggregateRate float64) {
	ActiveWorkers.Set(float64(activeWorkers))
	AggregateThroughput.Set(aggregateRate)
}

// RecordCircuitBreakerStatus records circuit breaker state.
func RecordCircuitBreakerStatus(service, operation string, status int) {
	CircuitBreakerStatus.WithLabelValues(service, operation).Set(float64(status))
}
