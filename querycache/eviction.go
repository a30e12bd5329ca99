package querycache

import "time"

// removeExpiredLocked deletes every entry whose age exceeds its TTL and
// returns the removed entries so callbacks can run outside the lock.
// Must be called with the cache mutex held.
func (c *QueryCache[V]) removeExpiredLocked(now time.Time) []*Entry[V] {
	var removed []*Entry[V]
	for key, entry := range c.entries {
		if entry.isExpired(now) {
			delete(c.entries, key)
			c.totalSize -= entry.estimatedSize
			c.stats.RecordExpiration()
			if c.metrics != nil {
				c.metrics.recordExpiration()
			}
			removed = append(removed, entry)
		}
	}
	if len(removed) > 0 {
		c.updateStoreMetricsLocked()
	}
	return removed
}

// ensureSpaceLocked makes room for incoming entries totalling requiredBytes
// so that both bounds hold after insertion: expired entries go first (removing
// stale data costs no recency trade-off), then least-recently-used entries one
// at a time, each removal re-checked against both bounds. Configure calls with
// (0, 0) to enforce tightened bounds on the existing store. If the store
// empties and requiredBytes alone exceeds the byte bound, the caller inserts
// anyway; the cache favors accepting the newest entry over refusing service.
// Must be called with the cache mutex held.
func (c *QueryCache[V]) ensureSpaceLocked(requiredBytes int64, incoming int) []*Entry[V] {
	removed := c.removeExpiredLocked(time.Now())

	for len(c.entries) > 0 && c.boundsViolatedLocked(requiredBytes, incoming) {
		victim := c.lruVictimLocked()
		delete(c.entries, victim.key)
		c.totalSize -= victim.estimatedSize
		c.stats.RecordEviction()
		if c.metrics != nil {
			c.metrics.recordEviction()
		}
		removed = append(removed, victim)
	}
	c.updateStoreMetricsLocked()

	return removed
}

// boundsViolatedLocked reports whether the store plus the prospective
// insertion would break the byte bound or the entry-count bound.
func (c *QueryCache[V]) boundsViolatedLocked(requiredBytes int64, incoming int) bool {
	return c.totalSize+requiredBytes > c.cfg.MaxTotalBytes ||
		len(c.entries)+incoming > c.cfg.MaxEntries
}

// lruVictimLocked scans the whole store for the entry with the smallest
// lastAccessedAt. Ties on equal timestamps (coarse clock resolution) are
// broken by smallest key in byte order, so the choice is deterministic.
// Must be called with the cache mutex held and a non-empty store.
func (c *QueryCache[V]) lruVictimLocked() *Entry[V] {
	var victim *Entry[V]
	for _, entry := range c.entries {
		if victim == nil {
			victim = entry
			continue
		}
		if entry.lastAccessedAt.Before(victim.lastAccessedAt) ||
			(entry.lastAccessedAt.Equal(victim.lastAccessedAt) && entry.key < victim.key) {
			victim = entry
		}
	}
	return victim
}
