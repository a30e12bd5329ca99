package querycache

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chenqi92/inflowave-sub011/errors"
)

// QueryCache is a bounded, time-aware cache for query results, keyed by
// connection, normalized query text, database, and parameters. It enforces a
// byte-size bound and an entry-count bound with expiry-first, then
// least-recently-used eviction, and keeps hit/miss/latency statistics.
//
// A QueryCache has exactly two lifecycle states: Active (janitor running,
// accepting calls) and Destroyed (after Close). The transition is one-way.
// Calls on a destroyed cache are silent no-ops: Get reports a miss without
// recording statistics, Set and the Clear/Configure methods do nothing.
//
// All callers share one instance, passed by reference to the query-execution
// component; there is no package-level singleton.
type QueryCache[V any] struct {
	mu        sync.Mutex
	cfg       Config
	entries   map[string]*Entry[V]
	totalSize int64
	destroyed bool

	stats   *Tracker
	metrics *cacheMetrics // Optional, if metrics enabled
	evictFn EvictCallback[V]
	logger  *slog.Logger

	// Janitor coordination. janitorMu serializes restart/stop so Configure
	// and Close never wait for the sweep goroutine while holding mu.
	janitorMu   sync.Mutex
	janitorStop chan struct{}
	janitorDone chan struct{}
}

// New creates an Active cache with the given configuration and starts its
// background janitor. Returns an error if the configuration is invalid or
// metrics registration fails.
func New[V any](cfg Config, options ...Option[V]) (*QueryCache[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "querycache", "New", "config validation")
	}

	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "querycache", "New", "metrics registration")
		}
	}

	c := &QueryCache[V]{
		cfg:     cfg,
		entries: make(map[string]*Entry[V]),
		stats:   NewTracker(),
		metrics: metrics,
		evictFn: opts.evictCallback,
		logger:  opts.logger,
	}

	c.startJanitor(cfg.JanitorInterval)

	return c, nil
}

// Get looks up the cached result for a query. A present-but-expired entry is
// deleted immediately and reported as a miss. On a hit the entry's access
// metadata is refreshed. Every call, hit or miss, records its wall-clock
// lookup latency.
func (c *QueryCache[V]) Get(connectionID, query, database string, params map[string]any) (V, bool) {
	var zero V
	start := time.Now()
	key := BuildKey(connectionID, query, database, params)

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return zero, false
	}

	entry, exists := c.entries[key]
	if !exists {
		c.mu.Unlock()
		c.recordMiss(start)
		return zero, false
	}

	now := time.Now()
	if entry.isExpired(now) {
		// Lazy expiry: the backstop to the janitor sweep
		delete(c.entries, key)
		c.totalSize -= entry.estimatedSize
		c.stats.RecordExpiration()
		if c.metrics != nil {
			c.metrics.recordExpiration()
		}
		c.updateStoreMetricsLocked()
		c.mu.Unlock()

		c.invokeEvictions([]*Entry[V]{entry})
		c.recordMiss(start)
		return zero, false
	}

	entry.touch(now)
	value := entry.value
	c.mu.Unlock()

	latency := time.Since(start)
	c.stats.RecordHit(latency)
	if c.metrics != nil {
		c.metrics.recordHit()
		c.metrics.observeLookup(latency.Seconds())
	}
	return value, true
}

// Set caches a query result. A ttl <= 0 means the configured DefaultTTL.
// Space for the new entry is made before insertion, so both bounds hold after
// it settles; an existing entry for the same key is replaced outright
// (last-writer-wins). Set never fails: a value that cannot be serialized for
// size estimation gets a best-effort estimate instead.
func (c *QueryCache[V]) Set(connectionID, query string, value V, database string, params map[string]any, ttl time.Duration) {
	key := BuildKey(connectionID, query, database, params)
	size := estimateSize(value)
	if ttl <= 0 {
		ttl = c.defaultTTL()
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}

	// Replace semantics: free the old entry's accounting before making space
	if old, exists := c.entries[key]; exists {
		delete(c.entries, key)
		c.totalSize -= old.estimatedSize
	}

	removed := c.ensureSpaceLocked(size, 1)

	now := time.Now()
	c.entries[key] = &Entry[V]{
		key:            key,
		connectionID:   connectionID,
		value:          value,
		createdAt:      now,
		lastAccessedAt: now,
		ttl:            ttl,
		accessCount:    1,
		estimatedSize:  size,
	}
	c.totalSize += size
	c.updateStoreMetricsLocked()
	c.mu.Unlock()

	c.invokeEvictions(removed)
}

// ClearAll drops every entry and resets statistics.
func (c *QueryCache[V]) ClearAll() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}

	removed := make([]*Entry[V], 0, len(c.entries))
	for _, entry := range c.entries {
		removed = append(removed, entry)
	}
	c.entries = make(map[string]*Entry[V])
	c.totalSize = 0
	c.updateStoreMetricsLocked()
	c.mu.Unlock()

	c.stats.Reset()
	c.invokeEvictions(removed)
}

// ClearByConnection drops only the entries cached for the given connection,
// leaving other connections' results and all statistics untouched. Invoked by
// the connection-lifecycle collaborator when a connection is removed or reset.
func (c *QueryCache[V]) ClearByConnection(connectionID string) {
	prefix := connectionID + ":"

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}

	var removed []*Entry[V]
	for key, entry := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			c.totalSize -= entry.estimatedSize
			removed = append(removed, entry)
		}
	}
	c.updateStoreMetricsLocked()
	c.mu.Unlock()

	c.invokeEvictions(removed)
}

// Stats returns a snapshot of counters plus the live entry count and total
// estimated size.
func (c *QueryCache[V]) Stats() Stats {
	c.mu.Lock()
	totalEntries := len(c.entries)
	totalSize := c.totalSize
	c.mu.Unlock()

	hitRate := c.stats.HitRate()
	return Stats{
		TotalEntries:      totalEntries,
		TotalSize:         totalSize,
		TotalHits:         c.stats.Hits(),
		TotalMisses:       c.stats.Misses(),
		HitRate:           hitRate,
		MissRate:          1.0 - hitRate,
		AverageAccessTime: c.stats.AverageAccessTime(),
		Evictions:         c.stats.Evictions(),
		Expirations:       c.stats.Expirations(),
	}
}

// Configure merges the non-nil fields of u into the live configuration.
// Tightened bounds are enforced immediately; a janitor-interval change
// restarts the sweep timer without losing any entries.
func (c *QueryCache[V]) Configure(u Update) {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}

	intervalChanged := u.apply(&c.cfg)
	interval := c.cfg.JanitorInterval

	// Apply tighter bounds right away rather than waiting for the next Set
	removed := c.ensureSpaceLocked(0, 0)
	c.mu.Unlock()

	c.invokeEvictions(removed)

	if intervalChanged {
		c.restartJanitor(interval)
	}
}

// Close transitions the cache to Destroyed: the janitor stops, the store is
// cleared, and subsequent calls become no-ops. Close is idempotent. A janitor
// that fails to stop in time is logged, never raised.
func (c *QueryCache[V]) Close() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.destroyed = true
	c.entries = make(map[string]*Entry[V])
	c.totalSize = 0
	c.updateStoreMetricsLocked()
	c.mu.Unlock()

	if err := c.stopJanitor(); err != nil {
		c.logger.Warn("janitor did not stop cleanly", "error", err)
	}
	return nil
}

// defaultTTL reads the configured default under the lock; Configure may
// change it concurrently.
func (c *QueryCache[V]) defaultTTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.DefaultTTL
}

// updateStoreMetricsLocked refreshes the entry-count and byte gauges.
// Must be called with the cache mutex held.
func (c *QueryCache[V]) updateStoreMetricsLocked() {
	if c.metrics != nil {
		c.metrics.updateStore(len(c.entries), c.totalSize)
	}
}

// recordMiss records a miss and its lookup latency in stats and metrics.
func (c *QueryCache[V]) recordMiss(start time.Time) {
	latency := time.Since(start)
	c.stats.RecordMiss(latency)
	if c.metrics != nil {
		c.metrics.recordMiss()
		c.metrics.observeLookup(latency.Seconds())
	}
}

// invokeEvictions runs the eviction callback for removed entries, outside the
// cache lock so callbacks may call back into the cache.
func (c *QueryCache[V]) invokeEvictions(removed []*Entry[V]) {
	if c.evictFn == nil {
		return
	}
	for _, entry := range removed {
		c.evictFn(entry.key, entry.value)
	}
}
