// Package query defines the query-execution contract and the cache-aware
// execution path.
//
// Executor is the backend-agnostic contract; the influx package implements it
// for InfluxDB. CachedExecutor wraps any Executor with the result cache using
// explicit call-site composition: check the cache, execute on a miss, write
// the result back. There is no hidden caching layer inside executors and no
// annotation-style interception; the flow is readable top to bottom in
// CachedExecutor.Execute.
package query
