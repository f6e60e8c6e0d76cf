package casbinsql

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/casbinsql/internal/metrics"
	"github.com/roach88/casbinsql/internal/store"
)

// DefaultTableName is the policy table used when none is configured.
const DefaultTableName = store.DefaultTable

// Conn is the database handle the adapter borrows. *sql.DB and *sql.Conn
// satisfy it.
type Conn = store.Conn

// Dialect selects the CREATE TABLE template and placeholder style.
type Dialect = store.Dialect

// Supported dialects.
const (
	DialectSQLite   = store.DialectSQLite
	DialectMySQL    = store.DialectMySQL
	DialectPostgres = store.DialectPostgres
)

// ParseDialect parses a dialect name such as "sqlite", "mysql" or "postgres".
func ParseDialect(name string) (Dialect, error) {
	return store.ParseDialect(name)
}

// DialectForDriver maps a database/sql driver name to its dialect.
func DialectForDriver(driver string) (Dialect, error) {
	return store.DialectForDriver(driver)
}

// Option configures an Adapter.
type Option func(*options)

type options struct {
	table   string
	dialect Dialect
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// WithTableName sets the policy table. The name must be a plain identifier
// or schema.table.
func WithTableName(name string) Option {
	return func(o *options) {
		o.table = name
	}
}

// WithDialect sets the SQL dialect. Default: sqlite.
func WithDialect(d Dialect) Option {
	return func(o *options) {
		o.dialect = d
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics registers adapter metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.metrics = metrics.New(reg)
	}
}
