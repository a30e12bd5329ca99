// Package querycache provides the bounded, time-aware result cache used by
// the query-execution path: repeated identical queries are served from memory
// instead of being re-executed against the remote time-series database.
//
// # Overview
//
// The cache is keyed by the identity of a query - connection, query text
// (trimmed and lower-cased), database, and parameter map - hashed into a
// deterministic key. Entries carry a TTL anchored at insertion time and
// least-recently-used metadata refreshed on every hit.
//
// Two independent bounds are enforced: total estimated byte size and entry
// count. Before each insertion the eviction controller first purges expired
// entries (stale data is free to drop), then evicts least-recently-used
// entries one at a time until both bounds hold. A single value larger than
// the byte bound is still accepted: the cache trades strict bound adherence
// for liveness rather than refusing service.
//
// A background janitor sweeps expired entries on a fixed interval so that
// stale results do not linger between lookups; lazy expiry on Get is the
// backstop, not the primary mechanism.
//
// # Usage
//
//	cache, err := querycache.New[QueryResult](querycache.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	// The caller composes cache and executor explicitly: check, execute, write back.
//	if result, ok := cache.Get(connID, flux, db, params); ok {
//	    return result, nil
//	}
//	result, err := executor.Execute(ctx, req)
//	if err != nil {
//	    return QueryResult{}, err
//	}
//	cache.Set(connID, flux, result, db, params, 0)
//
// # Statistics and metrics
//
// Hit, miss, eviction, and expiration counters plus lookup latency are always
// collected; Stats returns a point-in-time snapshot including the live entry
// count and total estimated size. Pass WithMetrics to additionally export the
// counters, store gauges, and a latency histogram as Prometheus metrics.
//
// # Concurrency
//
// All operations are safe for concurrent use. One mutex guards the entry
// store; Get mutates access metadata, so reads and writes take the same
// exclusive lock. No cache operation performs I/O and none is cancellable -
// every call is bounded by the cost of scanning the store.
//
// # Error handling
//
// A cache miss is not an error; it is reported through a boolean. Failures
// inside the cache degrade to "miss" or "approximate size" rather than ever
// failing the caller's query path. The only errors New returns come from
// config validation and metrics registration.
package querycache
