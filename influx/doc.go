// Package influx implements query execution against InfluxDB. Each Executor
// serves one connection profile, wraps the server in a circuit breaker, and
// flattens streamed Flux tables into the tabular result the rest of the
// application works with.
package influx
