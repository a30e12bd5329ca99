package query

import (
	"context"
	"time"
)

// Request describes one query to execute against a registered connection.
type Request struct {
	// ConnectionID identifies the target connection in the registry.
	ConnectionID string `json:"connection_id"`

	// Query is the raw query text as typed by the user.
	Query string `json:"query"`

	// Database scopes the query; may be empty for queries that name their
	// own bucket or database inline.
	Database string `json:"database,omitempty"`

	// Params are bound query parameters, if any.
	Params map[string]any `json:"params,omitempty"`

	// TTL overrides the cache's default retention for this result.
	// Zero or negative means use the default.
	TTL time.Duration `json:"ttl,omitempty"`

	// NoCache forces execution and skips the result cache in both
	// directions for this request.
	NoCache bool `json:"no_cache,omitempty"`
}

// Result is one executed query's tabular outcome.
type Result struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`

	// RowCount duplicates len(Rows) for callers holding only the metadata.
	RowCount int `json:"row_count"`

	// ExecutionTime is how long the backend took for this query. For a
	// cached result it is the original execution time, not the lookup time.
	ExecutionTime time.Duration `json:"execution_time"`

	// Cached reports whether this result was served from the cache.
	Cached bool `json:"cached"`
}

// Executor executes queries against a backend. Implementations must be safe
// for concurrent use.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}
