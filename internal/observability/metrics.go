package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FaceLogsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facelog",
		Name:      "face_logs_inserted_total",
		Help:      "Total number of synthetic face logs written",
	}, []string{"kind"})

	GeneratorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "facelog",
		Name:      "generator_errors_total",
		Help:      "Generator failures by kind",
	}, []string{"kind"})

	InsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facelog",
		Name:      "insert_duration_seconds",
		Help:      "Duration of face log insert transactions",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	SleepSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "facelog",
		Name:      "sleep_seconds",
		Help:      "Random delay before each generated face log",
		Buckets:   prometheus.LinearBuckets(0, 1, 11),
	})

	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "facelog",
		Name:      "publish_failures_total",
		Help:      "Face logs that were stored but could not be published",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "facelog",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "facelog",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
