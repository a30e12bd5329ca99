package query

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chenqi92/inflowave-sub011/errors"
	"github.com/chenqi92/inflowave-sub011/metric"
	"github.com/chenqi92/inflowave-sub011/querycache"
)

// Query execution outcomes recorded against the platform metrics.
const (
	outcomeCached   = "cached"
	outcomeExecuted = "executed"
	outcomeFailed   = "failed"
)

// CachedExecutor wraps an Executor with the query-result cache. The
// composition is explicit and visible: check the cache, execute on a miss,
// write the result back. The cache is consulted only here; the underlying
// executor knows nothing about caching.
//
// Cache failures never fail the request: a result that cannot be cached is
// still returned to the caller.
type CachedExecutor struct {
	exec    Executor
	cache   *querycache.QueryCache[Result]
	metrics *metric.Metrics
	logger  *slog.Logger
}

// CachedOption configures a CachedExecutor.
type CachedOption func(*CachedExecutor)

// WithMetrics records query outcomes and durations against the platform metrics.
func WithMetrics(m *metric.Metrics) CachedOption {
	return func(ce *CachedExecutor) {
		ce.metrics = m
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) CachedOption {
	return func(ce *CachedExecutor) {
		if logger != nil {
			ce.logger = logger
		}
	}
}

// NewCachedExecutor composes an executor with a result cache. A nil cache is
// allowed and turns the wrapper into a pass-through.
func NewCachedExecutor(exec Executor, cache *querycache.QueryCache[Result], options ...CachedOption) *CachedExecutor {
	ce := &CachedExecutor{
		exec:   exec,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(ce)
		}
	}
	return ce
}

// Execute serves the request from the cache when possible, otherwise runs it
// through the underlying executor and caches the result.
func (ce *CachedExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Result{}, errors.WrapInvalid(errors.ErrEmptyQuery,
			"CachedExecutor", "Execute", "request validation")
	}

	if ce.cache != nil && !req.NoCache {
		if result, ok := ce.cache.Get(req.ConnectionID, req.Query, req.Database, req.Params); ok {
			result.Cached = true
			ce.recordOutcome(req.ConnectionID, outcomeCached)
			ce.logger.Debug("query served from cache",
				"connection_id", req.ConnectionID,
				"database", req.Database)
			return result, nil
		}
	}

	start := time.Now()
	result, err := ce.exec.Execute(ctx, req)
	if err != nil {
		ce.recordOutcome(req.ConnectionID, outcomeFailed)
		if ce.metrics != nil {
			ce.metrics.RecordError(req.ConnectionID, errors.Classify(err).String())
		}
		return Result{}, err
	}

	result.Cached = false
	ce.recordOutcome(req.ConnectionID, outcomeExecuted)
	if ce.metrics != nil {
		ce.metrics.RecordQueryDuration(req.ConnectionID, time.Since(start))
	}

	if ce.cache != nil && !req.NoCache {
		ce.cache.Set(req.ConnectionID, req.Query, result, req.Database, req.Params, req.TTL)
	}

	return result, nil
}

// InvalidateConnection drops all cached results for one connection. Called by
// the connection registry when a connection is removed or its settings change.
func (ce *CachedExecutor) InvalidateConnection(connectionID string) {
	if ce.cache == nil {
		return
	}
	ce.cache.ClearByConnection(connectionID)
	ce.logger.Debug("cache invalidated for connection", "connection_id", connectionID)
}

// CacheStats returns the underlying cache's statistics snapshot, or the zero
// snapshot when running without a cache.
func (ce *CachedExecutor) CacheStats() querycache.Stats {
	if ce.cache == nil {
		return querycache.Stats{}
	}
	return ce.cache.Stats()
}

func (ce *CachedExecutor) recordOutcome(connectionID, outcome string) {
	if ce.metrics != nil {
		ce.metrics.RecordQuery(connectionID, outcome)
	}
}
