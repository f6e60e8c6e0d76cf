// Package store runs the adapter's statements against a borrowed database
// handle.
//
// The store owns one table (default casbin_rule) and nothing else:
//   - Schema: one CREATE TABLE IF NOT EXISTS per dialect, embedded from
//     schema/*.sql with the table name substituted in
//   - Writes: Exec compiles a queryir statement and runs it with bound params
//   - Reads: Query returns rule.Row values ordered by id
//   - Transactions: WithTx runs a sequence of statements all-or-nothing
//
// # Connection Ownership
//
// The *sql.DB or *sql.Conn passed to Open is borrowed. The store never closes
// it and never changes pool settings. Callers must not issue concurrent
// operations through one store; there is a single logical caller per handle.
//
// # Transactions
//
// WithTx is single depth. There are no savepoints, so transactional
// operations must not be composed into a larger transaction.
package store
