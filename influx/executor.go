package influx

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sony/gobreaker"

	"github.com/chenqi92/inflowave-sub011/connection"
	"github.com/chenqi92/inflowave-sub011/errors"
	"github.com/chenqi92/inflowave-sub011/metric"
	"github.com/chenqi92/inflowave-sub011/query"
)

// fluxQuerier is the slice of the InfluxDB query API the executor needs.
// api.QueryAPI satisfies it; tests substitute a fake.
type fluxQuerier interface {
	Query(ctx context.Context, flux string) (*api.QueryTableResult, error)
}

// Executor runs Flux queries against one InfluxDB connection and implements
// query.Executor. Each executor wraps its connection in a circuit breaker so
// a dead or flapping server fails fast instead of stalling every request.
type Executor struct {
	profile connection.Profile
	client  influxdb2.Client
	querier fluxQuerier
	breaker *gobreaker.CircuitBreaker
	metrics *metric.Metrics
	logger  *slog.Logger
}

// BreakerConfig controls the executor's circuit breaker.
type BreakerConfig struct {
	// MaxRequests allowed through in the half-open state.
	MaxRequests uint32 `json:"max_requests"`

	// Interval resets the failure counts in the closed state.
	Interval time.Duration `json:"interval"`

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `json:"timeout"`

	// ConsecutiveFailures trips the breaker when reached.
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
}

// DefaultBreakerConfig returns the default circuit breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:         5,
		Interval:            60 * time.Second,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMetrics records circuit breaker state transitions.
func WithMetrics(m *metric.Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor for the given connection profile. A profile
// without a token authenticates with "username:password", which the client
// also accepts against 1.8 compatibility endpoints.
func NewExecutor(profile connection.Profile, breakerCfg BreakerConfig, options ...ExecutorOption) *Executor {
	token := profile.Token
	if token == "" && profile.Username != "" {
		token = profile.Username + ":" + profile.Password
	}

	client := influxdb2.NewClient(profile.URL, token)

	e := &Executor{
		profile: profile,
		client:  client,
		querier: client.QueryAPI(profile.Org),
		logger:  slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	e.breaker = newBreaker(profile, breakerCfg, e.metrics, e.logger)
	return e
}

// Execute runs the request's query through the circuit breaker and converts
// the streamed Flux tables into a tabular result.
func (e *Executor) Execute(ctx context.Context, req query.Request) (query.Result, error) {
	start := time.Now()

	raw, err := e.breaker.Execute(func() (any, error) {
		return e.querier.Query(ctx, req.Query)
	})
	if err != nil {
		return query.Result{}, e.classifyFailure(err)
	}

	result, err := collectTables(raw.(*api.QueryTableResult))
	if err != nil {
		return query.Result{}, errors.WrapTransient(err,
			"Executor", "Execute", "result streaming")
	}

	result.ExecutionTime = time.Since(start)
	e.logger.Debug("query executed",
		"connection_id", e.profile.ID,
		"rows", result.RowCount,
		"duration", result.ExecutionTime)
	return result, nil
}

// Ping checks connectivity to the configured server.
func (e *Executor) Ping(ctx context.Context) error {
	ok, err := e.client.Ping(ctx)
	if err != nil {
		return errors.WrapTransient(err, "Executor", "Ping", "server ping")
	}
	if !ok {
		return errors.WrapTransient(errors.ErrNoConnection, "Executor", "Ping", "server ping")
	}
	return nil
}

// BreakerState returns the current circuit breaker state.
func (e *Executor) BreakerState() gobreaker.State {
	return e.breaker.State()
}

// Close releases the underlying HTTP client.
func (e *Executor) Close() {
	e.client.Close()
}

// classifyFailure maps breaker and transport failures onto the platform's
// error classes. Everything here is transient; the caller may retry once the
// server or the breaker recovers.
func (e *Executor) classifyFailure(err error) error {
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.WrapTransient(errors.ErrCircuitOpen,
			"Executor", "Execute", "circuit breaker check")
	}
	return errors.WrapTransient(err, "Executor", "Execute", "query execution")
}

// collectTables drains a Flux table stream into a columns-and-rows result.
// Column order is the sorted union of every record's fields, so rows from
// different tables line up even when their schemas differ.
func collectTables(tables *api.QueryTableResult) (query.Result, error) {
	columnSet := make(map[string]bool)
	var records []map[string]any

	for tables.Next() {
		values := tables.Record().Values()
		for column := range values {
			columnSet[column] = true
		}
		records = append(records, values)
	}
	if err := tables.Err(); err != nil {
		return query.Result{}, err
	}

	columns := make([]string, 0, len(columnSet))
	for column := range columnSet {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		row := make([]any, len(columns))
		for i, column := range columns {
			row[i] = record[column]
		}
		rows = append(rows, row)
	}

	return query.Result{
		Columns:  columns,
		Rows:     rows,
		RowCount: len(rows),
	}, nil
}
