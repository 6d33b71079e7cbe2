package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// openTestDB opens a WAL-mode store in a temporary directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "transducers.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		path    func(dir string) string
		wantErr bool
	}{
		{
			name: "file in existing directory",
			path: func(dir string) string { return filepath.Join(dir, "transducers.db") },
		},
		{
			name: "nested directory is created",
			path: func(dir string) string { return filepath.Join(dir, "var", "lib", "transducerd", "transducers.db") },
		},
		{
			name:    "empty path",
			path:    func(string) string { return "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.path(t.TempDir())
			db, err := Open(Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer db.Close() //nolint:errcheck // Test cleanup

			if _, err := os.Stat(dbPath); err != nil {
				t.Errorf("database file not created: %v", err)
			}
			if db.Path() != dbPath {
				t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
			}
		})
	}
}

// TestOpen_Pragmas checks the connection settings the registry relies on:
// cascading deletes need foreign keys, and a single connection serialises
// writers.
func TestOpen_Pragmas(t *testing.T) {
	tests := []struct {
		name        string
		walMode     bool
		wantJournal string
	}{
		{name: "wal", walMode: true, wantJournal: "wal"},
		{name: "rollback journal", walMode: false, wantJournal: "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Open(Config{
				Path:        filepath.Join(t.TempDir(), "transducers.db"),
				WALMode:     tt.walMode,
				BusyTimeout: 2,
			})
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer db.Close() //nolint:errcheck // Test cleanup

			ctx := context.Background()

			var fk int
			if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
				t.Fatalf("PRAGMA foreign_keys error = %v", err)
			}
			if fk != 1 {
				t.Errorf("foreign_keys = %d, want 1", fk)
			}

			var journal string
			if err := db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal); err != nil {
				t.Fatalf("PRAGMA journal_mode error = %v", err)
			}
			if !strings.EqualFold(journal, tt.wantJournal) {
				t.Errorf("journal_mode = %q, want %q", journal, tt.wantJournal)
			}

			var busy int
			if err := db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy); err != nil {
				t.Fatalf("PRAGMA busy_timeout error = %v", err)
			}
			if busy != 2000 {
				t.Errorf("busy_timeout = %d ms, want 2000", busy)
			}

			if got := db.Stats().MaxOpenConnections; got != 1 {
				t.Errorf("MaxOpenConnections = %d, want 1", got)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after Close() should fail")
	}
}

func TestClose(t *testing.T) {
	db := openTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	db.DB = nil
	if err := db.Close(); err != nil {
		t.Errorf("Close() on nil DB error = %v", err)
	}
}

func TestExecContext_WrapsError(t *testing.T) {
	db := openTestDB(t)

	_, err := db.ExecContext(context.Background(), "INSERT INTO transducers (id) VALUES (?)", "t1")
	if err == nil {
		t.Fatal("ExecContext() on an unmigrated store should fail")
	}
	if !strings.Contains(err.Error(), "executing query") {
		t.Errorf("error = %v, want it wrapped with %q", err, "executing query")
	}
}
