// Package connection tracks the database connections a user has configured.
// The Registry assigns connection IDs, stores profiles, and notifies an
// Invalidator when a connection is removed or its settings change so that
// cached query results scoped to it can be dropped.
package connection
