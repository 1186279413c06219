package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports service operations and store writes as
// Prometheus collectors.
type PrometheusMetricsRecorder struct {
	operations      *prometheus.CounterVec
	durations       *prometheus.HistogramVec
	persistFailures prometheus.Counter
	persistDuration prometheus.Histogram
}

// NewPrometheusMetricsRecorder creates the collectors and registers them with
// reg. A nil reg uses the default registerer.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tailorbook_operations_total",
			Help: "Service operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tailorbook_operation_duration_seconds",
			Help:    "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tailorbook_persist_failures_total",
			Help: "State writes that failed and left the state unsynced.",
		}),
		persistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tailorbook_persist_duration_seconds",
			Help:    "Latency of state writes.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.durations, r.persistFailures, r.persistDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, statusLabel(success)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObservePersist implements PersistObserver.
func (r *PrometheusMetricsRecorder) ObservePersist(_ context.Context, err error, duration time.Duration) {
	r.persistDuration.Observe(duration.Seconds())
	if err != nil {
		r.persistFailures.Inc()
	}
}

// MultiMetrics fans observations out to several recorders.
type MultiMetrics []MetricsRecorder

// Observe implements MetricsRecorder.
func (m MultiMetrics) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, r := range m {
		r.Observe(ctx, operation, success, duration)
	}
}

// ObservePersist forwards to every recorder that also observes persistence.
func (m MultiMetrics) ObservePersist(ctx context.Context, err error, duration time.Duration) {
	for _, r := range m {
		if p, ok := r.(PersistObserver); ok {
			p.ObservePersist(ctx, err, duration)
		}
	}
}
