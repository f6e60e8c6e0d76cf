// Package querysql compiles queryir statements into parameterized SQL for the
// policy table.
package querysql
