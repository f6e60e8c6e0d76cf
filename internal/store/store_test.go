package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casbinsql/internal/querysql"
)

func TestOpen_CreatesTable(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, DefaultTable, s.Table())
	assert.Equal(t, DialectSQLite, s.Dialect())
	assert.Equal(t, 0, countRows(t, s))
}

func TestOpen_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := Open(ctx, db, Config{Table: "rules"})
		require.NoError(t, err, "Open() iteration %d", i)
	}

	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", "rules").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "rules", name)
}

func TestOpen_InvalidTableName(t *testing.T) {
	db := openTestDB(t)

	for _, table := range []string{"1rules", "rules; DROP TABLE x", "a.b.c", "casbin-rule", "a b"} {
		_, err := Open(context.Background(), db, Config{Table: table})
		require.Error(t, err, table)
		assert.Equal(t, KindTable, KindOf(err), table)
	}
}

func TestOpen_NilConnection(t *testing.T) {
	_, err := Open(context.Background(), nil, Config{})
	require.Error(t, err)
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestOpen_ClosedConnection(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())

	_, err := Open(context.Background(), db, Config{})
	require.Error(t, err)
	assert.Equal(t, KindConnection, KindOf(err))
}

func TestOpen_SchemaFailure(t *testing.T) {
	db := openTestDB(t)

	// "missing" is not an attached database, so CREATE TABLE fails.
	_, err := Open(context.Background(), db, Config{Table: "missing.rules"})
	require.Error(t, err)
	assert.Equal(t, KindSchema, KindOf(err))
}

func TestSchemaSQL(t *testing.T) {
	for _, d := range Dialects {
		t.Run(string(d), func(t *testing.T) {
			ddl, err := SchemaSQL(d, "policy_rules")
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS policy_rules"))
			assert.NotContains(t, ddl, tableNamePlaceholder)
			for _, col := range []string{"id", "ptype", "v0", "v5"} {
				assert.Contains(t, ddl, col)
			}
		})
	}

	_, err := SchemaSQL(Dialect("oracle"), "t")
	assert.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	testCases := map[string]Dialect{
		"sqlite":     DialectSQLite,
		"SQLite3":    DialectSQLite,
		"mysql":      DialectMySQL,
		"mariadb":    DialectMySQL,
		"postgres":   DialectPostgres,
		"PostgreSQL": DialectPostgres,
	}
	for in, want := range testCases {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDialect("oracle")
	assert.Error(t, err)
}

func TestDialectForDriver(t *testing.T) {
	testCases := map[string]Dialect{
		"sqlite3":  DialectSQLite,
		"sqlite":   DialectSQLite,
		"mysql":    DialectMySQL,
		"pgx":      DialectPostgres,
		"postgres": DialectPostgres,
	}
	for driver, want := range testCases {
		got, err := DialectForDriver(driver)
		require.NoError(t, err, driver)
		assert.Equal(t, want, got)
	}

	_, err := DialectForDriver("oci8")
	assert.Error(t, err)
}

func TestDialect_Placeholder(t *testing.T) {
	assert.Equal(t, querysql.Question, DialectSQLite.Placeholder())
	assert.Equal(t, querysql.Question, DialectMySQL.Placeholder())
	assert.Equal(t, querysql.Dollar, DialectPostgres.Placeholder())
}
