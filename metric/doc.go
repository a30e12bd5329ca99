// Package metric provides Prometheus metrics infrastructure for InfloWave.
//
// # Overview
//
// The package has three pieces:
//
//   - Metrics: core platform metrics for the query path (query counts and
//     durations, error classes, connection gauges), registered automatically.
//   - Registry: a wrapper around prometheus.Registry that namespaces
//     component-specific metrics by "component.metric" and rejects duplicate
//     registrations with a classified error instead of a panic.
//   - Server: a small HTTP server exposing /metrics and /health for the
//     operational and diagnostics surface.
//
// # Usage
//
//	registry := metric.NewRegistry()
//
//	// Component registers its own metrics
//	hits := prometheus.NewCounter(prometheus.CounterOpts{...})
//	if err := registry.RegisterCounter("querycache", "hits", hits); err != nil {
//	    return err
//	}
//
//	// Expose to Prometheus
//	server := metric.NewServer(9090, "/metrics", registry)
//	go server.Start()
//	defer server.Stop()
//
// The query-result cache exposes its hit/miss/eviction counters and its
// lookup-latency histogram through this registry when constructed with the
// querycache.WithMetrics option.
package metric
