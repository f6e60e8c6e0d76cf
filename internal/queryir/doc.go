// Package queryir describes the statements the adapter issues against the
// policy table, independent of SQL dialect.
//
// Statement and Predicate are sealed interfaces using the marker method
// pattern, so backends can switch over them exhaustively:
//
//	switch s := stmt.(type) {
//	case Insert, InsertBatch, Select, Delete, Update:
//	    ...
//	}
//
// Column names are never free text. Every Equals and every SET target must be
// one of Columns (ptype, v0..v5); Validate rejects anything else. Values are
// plain strings and are always bound as parameters by the backend.
package queryir
