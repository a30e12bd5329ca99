package querycache

import (
	"encoding/json"
	"fmt"
	"time"
)

// fallbackSizeFactor is the multiplier applied to the fmt rendering of a
// value when JSON serialization fails during size estimation.
const fallbackSizeFactor = 2

// Entry represents one cached query result with its bookkeeping metadata.
type Entry[V any] struct {
	key          string
	connectionID string
	value        V

	createdAt      time.Time
	lastAccessedAt time.Time
	ttl            time.Duration
	accessCount    int64
	estimatedSize  int64
}

// isExpired reports whether the entry's age exceeds its TTL at the given time.
// TTL is anchored at creation; reads do not extend it.
func (e *Entry[V]) isExpired(now time.Time) bool {
	return now.Sub(e.createdAt) > e.ttl
}

// touch records a successful lookup.
func (e *Entry[V]) touch(now time.Time) {
	e.lastAccessedAt = now
	e.accessCount++
}

// estimateSize approximates the byte footprint of a value by measuring its
// JSON serialization. Values that cannot be serialized get a rough estimate
// from their string rendering instead; size estimation must never fail,
// because caching is strictly best-effort on the caller's query path.
func estimateSize[V any](value V) int64 {
	if data, err := json.Marshal(value); err == nil {
		return int64(len(data))
	}
	return int64(len(fmt.Sprintf("%v", value)) * fallbackSizeFactor)
}
