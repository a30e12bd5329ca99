package querycache

import (
	"sync/atomic"
	"time"
)

// Tracker accumulates cache performance counters. All counters are atomics so
// they can be recorded from inside the cache's critical section without
// additional locking.
type Tracker struct {
	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	// Lookup latency accumulation for the average-access-time derivation
	totalAccessTime int64 // nanoseconds
	accessCount     int64
}

// NewTracker creates a new statistics tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordHit records a successful lookup and its latency.
func (t *Tracker) RecordHit(latency time.Duration) {
	atomic.AddInt64(&t.hits, 1)
	t.recordAccess(latency)
}

// RecordMiss records a failed lookup and its latency.
func (t *Tracker) RecordMiss(latency time.Duration) {
	atomic.AddInt64(&t.misses, 1)
	t.recordAccess(latency)
}

// RecordEviction records an LRU eviction.
func (t *Tracker) RecordEviction() {
	atomic.AddInt64(&t.evictions, 1)
}

// RecordExpiration records a TTL expiry removal, whether lazy or swept.
func (t *Tracker) RecordExpiration() {
	atomic.AddInt64(&t.expirations, 1)
}

func (t *Tracker) recordAccess(latency time.Duration) {
	atomic.AddInt64(&t.totalAccessTime, int64(latency))
	atomic.AddInt64(&t.accessCount, 1)
}

// Hits returns the total number of cache hits.
func (t *Tracker) Hits() int64 {
	return atomic.LoadInt64(&t.hits)
}

// Misses returns the total number of cache misses.
func (t *Tracker) Misses() int64 {
	return atomic.LoadInt64(&t.misses)
}

// Evictions returns the total number of LRU evictions.
func (t *Tracker) Evictions() int64 {
	return atomic.LoadInt64(&t.evictions)
}

// Expirations returns the total number of TTL expiry removals.
func (t *Tracker) Expirations() int64 {
	return atomic.LoadInt64(&t.expirations)
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (t *Tracker) HitRate() float64 {
	hits := t.Hits()
	total := hits + t.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// AverageAccessTime returns the mean lookup latency, or 0 before any lookup.
func (t *Tracker) AverageAccessTime() time.Duration {
	count := atomic.LoadInt64(&t.accessCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&t.totalAccessTime) / count)
}

// Reset zeroes all counters. The entry store is untouched; stats and data
// lifetimes are independent.
func (t *Tracker) Reset() {
	atomic.StoreInt64(&t.hits, 0)
	atomic.StoreInt64(&t.misses, 0)
	atomic.StoreInt64(&t.evictions, 0)
	atomic.StoreInt64(&t.expirations, 0)
	atomic.StoreInt64(&t.totalAccessTime, 0)
	atomic.StoreInt64(&t.accessCount, 0)
}

// Stats is a point-in-time snapshot of cache state and counters. TotalEntries
// and TotalSize are read live from the entry store at snapshot time; nothing
// owns a Stats value beyond the moment it is computed.
type Stats struct {
	TotalEntries      int           `json:"total_entries"`
	TotalSize         int64         `json:"total_size"`
	TotalHits         int64         `json:"total_hits"`
	TotalMisses       int64         `json:"total_misses"`
	HitRate           float64       `json:"hit_rate"`
	MissRate          float64       `json:"miss_rate"`
	AverageAccessTime time.Duration `json:"average_access_time"`
	Evictions         int64         `json:"evictions"`
	Expirations       int64         `json:"expirations"`
}
