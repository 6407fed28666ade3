// Package store persists observations append-only in a local SQLite
// database.
//
// Rows are never updated or deleted; each poll cycle's batch commits in a
// single transaction or not at all. The connection pool is bounded so that
// operator statistics queries cannot pile up against the single writer.
package store
