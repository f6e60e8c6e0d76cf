package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// openTestDB opens a single-connection SQLite database in t.TempDir().
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestStore opens a store on a fresh database with logs discarded.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), openTestDB(t), Config{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return s
}

// countRows returns the number of rows in the store's table.
func countRows(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	if err := s.conn.(*sql.DB).QueryRow("SELECT COUNT(*) FROM " + s.table).Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}
