package service

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics
var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "driftwatch", Subsystem: "monitor", Name: "runs_total", Help: "Monitoring runs by terminal status."},
		[]string{"status"},
	)
	driftDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "driftwatch", Subsystem: "monitor", Name: "drift_detected_total", Help: "Drift detections by kind."},
		[]string{"kind"},
	)
	publishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "driftwatch", Subsystem: "monitor", Name: "publish_failures_total", Help: "Metric batches that failed to publish."},
	)
	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "driftwatch", Subsystem: "monitor", Name: "run_duration_seconds", Help: "Monitoring run wall time.", Buckets: prometheus.DefBuckets},
	)
)

func init() {
	_ = prometheus.Register(runsTotal)
	_ = prometheus.Register(driftDetected)
	_ = prometheus.Register(publishFailures)
	_ = prometheus.Register(runDuration)
}
