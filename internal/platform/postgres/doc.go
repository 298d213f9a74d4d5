// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces: the artifact cache table and the durable task queue.
//
// All stores accept a store.DBTX so they run equally inside or outside a
// transaction; transaction boundaries belong to the caller.
package postgres
