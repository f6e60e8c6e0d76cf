package store

import (
	"fmt"
	"strings"

	"github.com/roach88/casbinsql/internal/querysql"
)

// Dialect selects the schema template and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// Dialects lists the supported dialects.
var Dialects = []Dialect{DialectSQLite, DialectMySQL, DialectPostgres}

// ParseDialect parses a dialect name. Matching is case-insensitive.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown dialect %q: must be one of %v", name, Dialects)
	}
}

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return DialectSQLite, nil
	case "mysql":
		return DialectMySQL, nil
	case "pgx", "postgres":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("no dialect known for driver %q", driver)
	}
}

// Placeholder returns the bind parameter style of the dialect.
func (d Dialect) Placeholder() querysql.Placeholder {
	if d == DialectPostgres {
		return querysql.Dollar
	}
	return querysql.Question
}

func (d Dialect) schemaFile() string {
	return "schema/" + string(d) + ".sql"
}
