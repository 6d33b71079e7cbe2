package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/database"
)

// writeDBConfig writes a config file pointing at a fresh database path.
func writeDBConfig(t *testing.T) (cfgPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "transducers.db")
	cfgPath = filepath.Join(dir, "config.yaml")
	body := "mqtt:\n  enabled: false\ndatabase:\n  path: \"" + dbPath + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath, dbPath
}

func tableCount(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := database.Open(database.Config{Path: dbPath, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	var n int
	err = db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('transducers', 'transducer_data')",
	).Scan(&n)
	if err != nil {
		t.Fatalf("counting tables: %v", err)
	}
	return n
}

func TestMigrate_UpStatusDown(t *testing.T) {
	t.Setenv("GRAYLOGIC_JWT_SECRET", "")
	t.Setenv("GRAYLOGIC_DATABASE_PATH", "")
	cfgPath, dbPath := writeDBConfig(t)
	t.Setenv("GRAYLOGIC_CONFIG", cfgPath)

	out, err := runApp(t, "migrate", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.Contains(out, "pending  20260301_120000  transducers") {
		t.Errorf("status before up = %q", out)
	}

	if out, err = runApp(t, "migrate", "up"); err != nil {
		t.Fatalf("up error = %v", err)
	}
	if out != "applied 1 migration(s)" {
		t.Errorf("up output = %q", out)
	}
	if n := tableCount(t, dbPath); n != 2 {
		t.Fatalf("tables after up = %d, want 2", n)
	}

	out, err = runApp(t, "migrate", "status")
	if err != nil {
		t.Fatalf("status error = %v", err)
	}
	if !strings.HasPrefix(out, "applied  20260301_120000") {
		t.Errorf("status after up = %q", out)
	}

	if _, err := runApp(t, "migrate", "down"); !errors.Is(err, errNotConfirmed) {
		t.Fatalf("down without --yes error = %v, want errNotConfirmed", err)
	}
	if n := tableCount(t, dbPath); n != 2 {
		t.Fatalf("unconfirmed down changed the schema: %d tables", n)
	}

	if out, err = runApp(t, "migrate", "down", "--yes"); err != nil {
		t.Fatalf("down error = %v", err)
	}
	if out != "rolled back 20260301_120000" {
		t.Errorf("down output = %q", out)
	}
	if n := tableCount(t, dbPath); n != 0 {
		t.Errorf("tables after down = %d, want 0", n)
	}

	if out, err = runApp(t, "migrate", "down", "--yes"); err != nil {
		t.Fatalf("second down error = %v", err)
	}
	if out != "nothing to roll back" {
		t.Errorf("second down output = %q", out)
	}
}
