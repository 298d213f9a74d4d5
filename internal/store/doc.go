// Package store defines persistence interfaces and shared database plumbing:
// the DBTX abstraction over connections and transactions, the transaction
// helper, and the error sentinels store implementations translate into.
package store
