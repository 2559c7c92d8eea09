package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ServiceMetrics is recorded by every service operation wrapper.
type ServiceMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// LedgerMetrics tracks point movement.
type LedgerMetrics interface {
	RecordPointsDelta(ctx context.Context, delta int)
}

// RealtimeMetrics tracks fan-out health.
type RealtimeMetrics interface {
	RecordBroadcastFailure(ctx context.Context, event string)
	RecordDroppedMessage(ctx context.Context)
	SetRealtimeSubscribers(n int)
}

// EnrichmentMetrics tracks the enrichment worker.
type EnrichmentMetrics interface {
	RecordEnrichment(ctx context.Context, outcome string)
}

// PrometheusMetrics implements every metrics interface in this package.
type PrometheusMetrics struct {
	attempts         *prometheus.CounterVec
	successes        *prometheus.CounterVec
	failures         *prometheus.CounterVec
	durations        *prometheus.HistogramVec
	pointsDelta      *prometheus.CounterVec
	broadcastFailure *prometheus.CounterVec
	dropped          prometheus.Counter
	subscribers      prometheus.Gauge
	enrichment       *prometheus.CounterVec
}

// NewPrometheusMetrics registers the collectors on reg.
func NewPrometheusMetrics(reg prometheus.Registerer, namespace string) *PrometheusMetrics {
	m := &PrometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_attempts_total",
			Help: "Service operations attempted.",
		}, []string{"service", "operation"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_success_total",
			Help: "Service operations that completed successfully.",
		}, []string{"service", "operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "operation_failure_total",
			Help: "Service operations that returned an error or failure result.",
		}, []string{"service", "operation"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "operation_duration_seconds",
			Help:    "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		pointsDelta: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "points_delta_total",
			Help: "Absolute point movement applied by the ledger.",
		}, []string{"direction"}),
		broadcastFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcast_failures_total",
			Help: "Realtime publications that failed and were dropped.",
		}, []string{"event"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "realtime_dropped_messages_total",
			Help: "Messages dropped because a subscriber buffer was full.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "realtime_subscribers",
			Help: "Connected realtime subscribers.",
		}),
		enrichment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "enrichment_items_total",
			Help: "Applications processed by the enrichment worker.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.attempts, m.successes, m.failures, m.durations,
			m.pointsDelta, m.broadcastFailure, m.dropped, m.subscribers, m.enrichment)
	}
	return m
}

func (m *PrometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(service, operation).Inc()
}

func (m *PrometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordPointsDelta(_ context.Context, delta int) {
	switch {
	case delta > 0:
		m.pointsDelta.WithLabelValues("awarded").Add(float64(delta))
	case delta < 0:
		m.pointsDelta.WithLabelValues("revoked").Add(float64(-delta))
	}
}

func (m *PrometheusMetrics) RecordBroadcastFailure(_ context.Context, event string) {
	m.broadcastFailure.WithLabelValues(event).Inc()
}

func (m *PrometheusMetrics) RecordDroppedMessage(_ context.Context) {
	m.dropped.Inc()
}

func (m *PrometheusMetrics) SetRealtimeSubscribers(n int) {
	m.subscribers.Set(float64(n))
}

func (m *PrometheusMetrics) RecordEnrichment(_ context.Context, outcome string) {
	m.enrichment.WithLabelValues(outcome).Inc()
}

// NoOpMetrics discards everything. Used in tests and when metrics are disabled.
type NoOpMetrics struct{}

func (NoOpMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoOpMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoOpMetrics) RecordPointsDelta(context.Context, int)                                 {}
func (NoOpMetrics) RecordBroadcastFailure(context.Context, string)                         {}
func (NoOpMetrics) RecordDroppedMessage(context.Context)                                   {}
func (NoOpMetrics) SetRealtimeSubscribers(int)                                             {}
func (NoOpMetrics) RecordEnrichment(context.Context, string)                               {}

var (
	_ ServiceMetrics    = (*PrometheusMetrics)(nil)
	_ LedgerMetrics     = (*PrometheusMetrics)(nil)
	_ RealtimeMetrics   = (*PrometheusMetrics)(nil)
	_ EnrichmentMetrics = (*PrometheusMetrics)(nil)
	_ ServiceMetrics    = NoOpMetrics{}
	_ LedgerMetrics     = NoOpMetrics{}
	_ RealtimeMetrics   = NoOpMetrics{}
	_ EnrichmentMetrics = NoOpMetrics{}
)
