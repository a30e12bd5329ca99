// Package inflowave is the query-execution core of a time-series database
// client: connection management, query execution against InfluxDB, and a
// bounded, time-aware result cache on the execution path.
//
// # Architecture
//
// The packages compose explicitly, with no hidden layers:
//
//   - connection: registry of configured connections; assigns IDs and tells
//     the cache when a connection's results can no longer be trusted.
//   - influx: query execution against InfluxDB, one Executor per connection,
//     each behind a circuit breaker.
//   - query: the backend-agnostic Executor contract and CachedExecutor, the
//     check-cache / execute / write-back composition every request flows
//     through.
//   - querycache: the result cache itself. Deterministic keys from connection,
//     normalized query, database, and parameters; TTL expiry with a background
//     janitor; byte and entry bounds enforced by expiry-first, then
//     least-recently-used eviction; always-on statistics.
//   - errors: classified errors (transient, invalid, fatal) shared by every
//     package.
//   - metric: Prometheus registry, core query-path metrics, and the optional
//     metrics HTTP endpoint.
//
// # Typical wiring
//
//	registry := metric.NewRegistry()
//	cache, err := querycache.New[query.Result](querycache.DefaultConfig(),
//	    querycache.WithMetrics[query.Result](registry, "query_results"))
//	if err != nil {
//	    return err
//	}
//	defer cache.Close()
//
//	exec := influx.NewExecutor(profile, influx.DefaultBreakerConfig(),
//	    influx.WithMetrics(registry.CoreMetrics()))
//	defer exec.Close()
//
//	cached := query.NewCachedExecutor(exec, cache,
//	    query.WithMetrics(registry.CoreMetrics()))
//
//	conns := connection.NewRegistry(
//	    connection.WithInvalidator(cached.InvalidateConnection),
//	    connection.WithMetrics(registry.CoreMetrics()))
//
// Every request then goes through cached.Execute; removing or editing a
// connection in the registry drops exactly that connection's cached results.
package inflowave
