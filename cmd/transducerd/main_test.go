package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestRun_InvalidConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with a missing explicit config file")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", writeConfig(t, `
site:
  id: test-site
database:
  path: ""
mqtt:
  enabled: false
`))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_StartupAndShutdown runs the daemon with MQTT and InfluxDB off
// and checks that it stops cleanly when the context ends.
func TestRun_StartupAndShutdown(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GRAYLOGIC_CONFIG", writeConfig(t, `
site:
  id: test-site
database:
  path: "`+filepath.Join(dir, "transducers.db")+`"
  wal_mode: true
  busy_timeout: 5
mqtt:
  enabled: false
influxdb:
  enabled: false
logging:
  level: error
  format: text
  output: stderr
api:
  host: "127.0.0.1"
  port: 18391
transducers:
  retention_days: 30
  prune_interval: 60
`))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "transducers.db")); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("GRAYLOGIC_CONFIG", "/custom/config.yaml")
	if got := getConfigPath(); got != "/custom/config.yaml" {
		t.Errorf("getConfigPath() = %q, want /custom/config.yaml", got)
	}
}

func TestLoadConfig_FallsBackToDefaults(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("os.Getwd() error = %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("os.Chdir() error = %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, source, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if source != "defaults" {
		t.Errorf("source = %q, want defaults", source)
	}
	if cfg.Database.Path == "" {
		t.Error("default database path is empty")
	}
}

type fakePruner struct {
	mu    sync.Mutex
	calls int
	n     int64
	err   error
}

func (p *fakePruner) PruneData(_ context.Context, olderThan time.Duration) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if olderThan != 48*time.Hour {
		return 0, errors.New("unexpected retention")
	}
	return p.n, p.err
}

func (p *fakePruner) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func TestRetentionWorker(t *testing.T) {
	p := &fakePruner{n: 3}
	var (
		mu       sync.Mutex
		observed int64
	)
	w := &retentionWorker{
		pruner:    p,
		retention: 48 * time.Hour,
		interval:  10 * time.Millisecond,
		logger:    nopLogger{},
		observe: func(n int64) {
			mu.Lock()
			observed += n
			mu.Unlock()
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if p.count() < 3 {
		t.Fatalf("PruneData called %d times, want at least 3", p.count())
	}
	mu.Lock()
	defer mu.Unlock()
	if observed < 9 {
		t.Errorf("observed = %d, want at least 9", observed)
	}
}

func TestRetentionWorker_ErrorIsNotObserved(t *testing.T) {
	p := &fakePruner{err: errors.New("locked")}
	called := false
	w := &retentionWorker{
		pruner:    p,
		retention: 48 * time.Hour,
		interval:  time.Hour,
		logger:    nopLogger{},
		observe:   func(int64) { called = true },
	}
	w.prune(context.Background())
	if called {
		t.Error("observe should not run when pruning fails")
	}
}
