// Package casbinsql persists casbin policy rules in a single SQL table.
//
// The Adapter implements casbin's persist.Adapter, persist.ContextAdapter,
// persist.FilteredAdapter, persist.BatchAdapter and persist.UpdatableAdapter
// over a caller-supplied *sql.DB or *sql.Conn:
//
//	db, _ := sql.Open("sqlite3", "policy.db")
//	a, err := casbinsql.NewAdapter(db, casbinsql.WithTableName("casbin_rule"))
//	if err != nil {
//	    return err
//	}
//	e, err := casbin.NewEnforcer("model.conf", a)
//
// Each rule is one row: a ptype column and up to six value columns v0..v5.
// Trailing empty fields are trimmed when rows are read back, so a rule saved
// as ["alice", "data1", "read", ""] loads as ["alice", "data1", "read"].
//
// SavePolicy replaces the table contents: every stored row is deleted and the
// model's rules are inserted in the same transaction. After a filtered load
// this drops the rows outside the filter, so only the loaded subset remains.
//
// RemovePolicy and UpdatePolicy match a stored rule exactly. A shorter rule
// never matches a longer stored one, and trailing empty fields are ignored.
//
// Operations that touch more than one row (SavePolicy, RemovePolicies,
// RemoveFilteredPolicy, UpdatePolicies, UpdateFilteredPolicies) run in one
// transaction and either commit fully or roll back. The adapter never closes
// the handle it was given and is not safe for concurrent use.
package casbinsql
