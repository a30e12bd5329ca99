package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains platform-level metrics for the query path (not cache-specific;
// per-cache metrics are registered by the cache itself via the Registry).
type Metrics struct {
	// Query execution metrics
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
	ErrorsTotal   *prometheus.CounterVec

	// Connection metrics
	ConnectionsActive   prometheus.Gauge
	CircuitBreakerState *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inflowave",
				Subsystem: "query",
				Name:      "executions_total",
				Help:      "Total number of query executions by outcome (cached, executed, failed)",
			},
			[]string{"connection", "outcome"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "inflowave",
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Query execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"connection"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "inflowave",
				Subsystem: "query",
				Name:      "errors_total",
				Help:      "Total number of query errors by class",
			},
			[]string{"connection", "class"},
		),

		ConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "inflowave",
				Subsystem: "connection",
				Name:      "active",
				Help:      "Number of registered database connections",
			},
		),

		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "inflowave",
				Subsystem: "connection",
				Name:      "circuit_breaker",
				Help:      "Circuit breaker status per connection (0=closed, 1=open, 2=half-open)",
			},
			[]string{"connection"},
		),
	}
}

// RecordQuery increments the query execution counter
func (m *Metrics) RecordQuery(connection, outcome string) {
	m.QueriesTotal.WithLabelValues(connection, outcome).Inc()
}

// RecordQueryDuration records query execution time
func (m *Metrics) RecordQueryDuration(connection string, duration time.Duration) {
	m.QueryDuration.WithLabelValues(connection).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (m *Metrics) RecordError(connection, class string) {
	m.ErrorsTotal.WithLabelValues(connection, class).Inc()
}

// RecordConnectionCount updates the active connection gauge
func (m *Metrics) RecordConnectionCount(count int) {
	m.ConnectionsActive.Set(float64(count))
}

// RecordCircuitBreakerState updates circuit breaker status for a connection
func (m *Metrics) RecordCircuitBreakerState(connection string, state int) {
	m.CircuitBreakerState.WithLabelValues(connection).Set(float64(state))
}
