package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/casbinsql/internal/metrics"
	"github.com/roach88/casbinsql/internal/querysql"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// DefaultTable is the table used when none is configured.
const DefaultTable = "casbin_rule"

// tableNamePlaceholder is substituted in the schema templates.
const tableNamePlaceholder = "%table_name%"

// validTable accepts "table" or "schema.table" built from plain identifiers.
var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}(\.[A-Za-z_][A-Za-z0-9_]{0,62})?$`)

// Conn is the borrowed database handle. *sql.DB and *sql.Conn satisfy it.
type Conn interface {
	Querier
	PingContext(ctx context.Context) error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Querier runs statements. Conn and *sql.Tx satisfy it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Config configures a Store.
type Config struct {
	// Table is the policy table name. Default: casbin_rule
	Table string

	// Dialect selects schema and placeholders. Default: sqlite
	Dialect Dialect

	// Logger receives transaction and statement logs. Default: slog.Default()
	Logger *slog.Logger

	// Metrics records transactions and affected rows. Optional.
	Metrics *metrics.Metrics
}

// Store runs policy table statements over a borrowed connection.
type Store struct {
	conn     Conn
	table    string
	dialect  Dialect
	compiler *querysql.SQLCompiler
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Open validates the table name, verifies the connection and creates the
// table if it does not exist.
//
// This function is idempotent - safe to call on every adapter construction.
// Failures are not retried.
func Open(ctx context.Context, conn Conn, cfg Config) (*Store, error) {
	if conn == nil {
		return nil, newError(KindConnection, "nil connection")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DialectSQLite
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := ValidateTableName(cfg.Table); err != nil {
		return nil, &Error{Kind: KindTable, Err: err}
	}

	// Verify connection works
	if err := conn.PingContext(ctx); err != nil {
		return nil, newError(KindConnection, "failed to connect to database: %w", err)
	}

	s := &Store{
		conn:     conn,
		table:    cfg.Table,
		dialect:  cfg.Dialect,
		compiler: querysql.NewSQLCompiler(cfg.Table, cfg.Dialect.Placeholder()),
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}

	if err := s.applySchema(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// ValidateTableName checks that name can be safely written into SQL text.
func ValidateTableName(name string) error {
	if !validTable.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Table returns the policy table name.
func (s *Store) Table() string {
	return s.table
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Conn returns the borrowed handle as a Querier for non-transactional use.
func (s *Store) Conn() Querier {
	return s.conn
}

// applySchema creates the policy table if it doesn't exist.
func (s *Store) applySchema(ctx context.Context) error {
	ddl, err := SchemaSQL(s.dialect, s.table)
	if err != nil {
		return &Error{Kind: KindSchema, Err: err}
	}

	if _, err := s.conn.ExecContext(ctx, ddl); err != nil {
		return newError(KindSchema, "failed to create table %s: %w", s.table, err)
	}

	s.logger.Debug("policy table ready", "table", s.table, "dialect", string(s.dialect))
	return nil
}

// SchemaSQL renders the CREATE TABLE statement for a dialect and table.
func SchemaSQL(dialect Dialect, table string) (string, error) {
	tmpl, err := schemaFS.ReadFile(dialect.schemaFile())
	if err != nil {
		return "", fmt.Errorf("no schema for dialect %q: %w", dialect, err)
	}
	return strings.ReplaceAll(string(tmpl), tableNamePlaceholder, table), nil
}
