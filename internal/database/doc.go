// Package database provides the connection pool for the change-feed source.
//
// The dashboard backend publishes row changes via Postgres NOTIFY; this pool
// backs the listener in internal/changefeed. Entity state itself is never
// read from or written to the database here.
package database
