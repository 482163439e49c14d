// Package history persists run and step outcomes to a relational store.
//
// Persistence is optional. When no DSN is configured the application uses
// the NopStore and flows execute exactly as before, just without a queryable
// record. SQLite, MySQL, and Postgres backends are selected by DSN scheme
// and share one bun-based implementation.
package history
