package casbinsql

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// openTestDB opens a single-connection SQLite database in t.TempDir().
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "policy.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestAdapter opens an adapter on a fresh database with logs discarded.
func createTestAdapter(t *testing.T, opts ...Option) (*Adapter, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	a, err := NewAdapter(db, opts...)
	require.NoError(t, err)
	return a, db
}

// newTestModel returns an empty RBAC model.
func newTestModel(t *testing.T) model.Model {
	t.Helper()
	m, err := model.NewModelFromString(rbacModel)
	require.NoError(t, err)
	return m
}

// modelWith returns a model holding the given policy lines (ptype first).
func modelWith(t *testing.T, lines ...[]string) model.Model {
	t.Helper()
	m := newTestModel(t)
	for _, line := range lines {
		require.NoError(t, persist.LoadPolicyArray(line, m))
	}
	return m
}

// loadAll loads the whole table into a fresh model.
func loadAll(t *testing.T, a *Adapter) model.Model {
	t.Helper()
	m := newTestModel(t)
	require.NoError(t, a.LoadPolicy(m))
	return m
}

// policies returns the rules of one ptype held by m.
func policies(m model.Model, sec, ptype string) [][]string {
	ast, ok := m[sec][ptype]
	if !ok {
		return nil
	}
	return ast.Policy
}

// countRows returns the number of rows in the adapter's table.
func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
