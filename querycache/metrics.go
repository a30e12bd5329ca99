package querycache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chenqi92/inflowave-sub011/metric"
)

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter

	// Gauges tracking the live entry store
	entries prometheus.Gauge
	bytes   prometheus.Gauge

	// Lookup wall-clock latency, hit or miss
	lookupLatency prometheus.Histogram
}

// newCacheMetrics creates and registers cache metrics with the provided registry.
func newCacheMetrics(registry *metric.Registry, prefix string) (*cacheMetrics, error) {
	m := &cacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "hits_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of cache hits",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "misses_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of cache misses",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "evictions_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of LRU evictions",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "expirations_total",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Total number of TTL expiry removals",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "entries",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in cache",
		}),
		bytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "bytes",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current estimated total size of cached values in bytes",
		}),
		lookupLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "inflowave",
			Subsystem:   "cache",
			Name:        "lookup_duration_seconds",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Cache lookup latency in seconds, hits and misses alike",
			Buckets:     prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
	}

	// Register all metrics with the registry
	if err := registry.RegisterCounter(prefix, "cache_hits", m.hits); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_misses", m.misses); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_evictions", m.evictions); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter(prefix, "cache_expirations", m.expirations); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_entries", m.entries); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge(prefix, "cache_bytes", m.bytes); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogram(prefix, "cache_lookup_duration", m.lookupLatency); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	m.hits.Inc()
}

func (m *cacheMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *cacheMetrics) recordEviction() {
	m.evictions.Inc()
}

func (m *cacheMetrics) recordExpiration() {
	m.expirations.Inc()
}

func (m *cacheMetrics) observeLookup(seconds float64) {
	m.lookupLatency.Observe(seconds)
}

// updateStore sets the live entry-count and byte gauges.
func (m *cacheMetrics) updateStore(entries int, bytes int64) {
	m.entries.Set(float64(entries))
	m.bytes.Set(float64(bytes))
}
