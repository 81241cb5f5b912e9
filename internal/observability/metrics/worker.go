package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	taskTotal    *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	taskInFlight prometheus.Gauge
	queueLag     *prometheus.HistogramVec
	assetsTotal  *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	taskTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyreel",
			Subsystem: "worker",
			Name:      "task_total",
			Help:      "Total executed generation tasks by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	taskDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storyreel",
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Generation task duration in seconds by kind and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind", "status"},
	)
	taskInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "storyreel",
			Subsystem: "worker",
			Name:      "task_in_flight",
			Help:      "Number of in-flight generation tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "storyreel",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between task creation and execution start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	assetsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storyreel",
			Subsystem: "worker",
			Name:      "assets_generated_total",
			Help:      "Total per-sentence assets produced by type.",
		},
		[]string{"service", "asset"},
	)

	registry.MustRegister(taskTotal, taskDuration, taskInFlight, queueLag, assetsTotal)

	return &WorkerMetrics{
		registry:     registry,
		taskTotal:    taskTotal,
		taskDuration: taskDuration,
		taskInFlight: taskInFlight,
		queueLag:     queueLag,
		assetsTotal:  assetsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.taskInFlight.Inc()
}

func (m *WorkerMetrics) FinishTask(service, kind string, duration time.Duration, err error) {
	m.taskInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.taskTotal.WithLabelValues(service, kind, status).Inc()
	m.taskDuration.WithLabelValues(service, kind, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveAsset(service, asset string) {
	m.assetsTotal.WithLabelValues(service, asset).Inc()
}
