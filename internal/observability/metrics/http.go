package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	uploadsTotal      *prometheus.CounterVec
	tasksStartedTotal *prometheus.CounterVec
	confirmedChapters *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyreel",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storyreel",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storyreel",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyreel",
			Subsystem: "pipeline",
			Name:      "uploads_total",
			Help:      "Total project documents accepted for parsing.",
		},
		[]string{"service"},
	)
	tasksStartedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyreel",
			Subsystem: "pipeline",
			Name:      "tasks_started_total",
			Help:      "Total generation tasks enqueued by kind.",
		},
		[]string{"service", "kind"},
	)
	confirmedChapters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyreel",
			Subsystem: "pipeline",
			Name:      "chapters_confirmed_total",
			Help:      "Total chapters locked by confirmation.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadsTotal,
		tasksStartedTotal,
		confirmedChapters,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		uploadsTotal:      uploadsTotal,
		tasksStartedTotal: tasksStartedTotal,
		confirmedChapters: confirmedChapters,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request totals, duration and in-flight gauge. Path is the
// route pattern, not the raw URL, to keep cardinality bounded.
func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		recorder := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		m.requestTotal.WithLabelValues(service, r.Method, pattern, strconv.Itoa(recorder.statusCode)).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) ObserveUpload(service string) {
	m.uploadsTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) ObserveTaskStarted(service, kind string) {
	m.tasksStartedTotal.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) ObserveChapterConfirmed(service string) {
	m.confirmedChapters.WithLabelValues(service).Inc()
}

type metricsRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *metricsRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
