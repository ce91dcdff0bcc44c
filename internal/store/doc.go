// Package store manages the embedded SQLite database holding the core
// catalog tables and the widget cache. It owns schema migration, vacuuming,
// and row/page statistics. Concurrent invocations rely on SQLite's own
// locking; writes retry briefly on lock contention.
package store
