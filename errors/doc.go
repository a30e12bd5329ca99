// Package errors provides standardized error handling patterns for InfloWave components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing). Classification lets the query path
// decide between retrying a flux query, rejecting a request, and shutting down
// without matching on error strings.
//
// Note that a cache miss is not an error anywhere in this module: lookups
// report misses through a boolean, and the only errors the cache layer itself
// produces come from construction and configuration validation.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if conn == nil {
//	    return errors.ErrNoConnection
//	}
//
// Wrap errors with component context:
//
//	if err := executor.Execute(ctx, req); err != nil {
//	    return errors.WrapTransient(err, "Executor", "Execute", "flux query")
//	}
//
// Check classification for retry logic:
//
//	if errors.IsTransient(err) {
//	    // retry with backoff
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// The Wrap family of functions applies this pattern while preserving error
// classification through the chain. All error types support errors.Is,
// errors.As, and Unwrap from the standard library:
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    log.Printf("component=%s class=%s", ce.Component, ce.Class)
//	}
package errors
