package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/config"
)

// fakeServer answers the ping, write, and query endpoints of the InfluxDB v2 API.
type fakeServer struct {
	*httptest.Server
	mu      sync.Mutex
	bodies  []string
	status  int
	queries []string
	csv     string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{status: http.StatusNoContent}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			w.WriteHeader(http.StatusNoContent)
		case "/api/v2/query":
			body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
			fs.mu.Lock()
			fs.queries = append(fs.queries, string(body))
			csv := fs.csv
			fs.mu.Unlock()
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			_, _ = w.Write([]byte(csv)) //nolint:errcheck // test server
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
			fs.mu.Lock()
			fs.bodies = append(fs.bodies, string(body))
			status := fs.status
			fs.mu.Unlock()
			if status != http.StatusNoContent {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"code":"invalid","message":"bad point"}`)) //nolint:errcheck // test server
				return
			}
			w.WriteHeader(status)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) written() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return strings.Join(fs.bodies, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "graylogic",
		Bucket:        "transducers",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false
	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	if _, err := Connect(testConfig("http://127.0.0.1:1")); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClient_WriteAndFlush(t *testing.T) {
	srv := newFakeServer(t)
	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	if !client.IsConnected() || client.Bucket() != "transducers" {
		t.Fatalf("IsConnected() = %v, Bucket() = %q", client.IsConnected(), client.Bucket())
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client.WritePointWithTime("transducer_reading",
		map[string]string{"transducer_id": "t1", "name": "zone-1"},
		map[string]any{"value": 21.5},
		at)
	client.Flush()

	waitFor(t, func() bool { return strings.Contains(srv.written(), "transducer_reading") })
	line := srv.written()
	for _, want := range []string{"transducer_id=t1", "name=zone-1", "value=21.5", "1772366400000000000"} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
}

func TestClient_WriteErrorsReachCallback(t *testing.T) {
	srv := newFakeServer(t)
	srv.status = http.StatusBadRequest

	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	errCh := make(chan error, 4)
	client.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	client.WritePoint("transducer_reading", map[string]string{"transducer_id": "t1"}, map[string]any{"value": 1.0})
	client.Flush()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error not delivered")
	}
}

func TestClient_Close(t *testing.T) {
	srv := newFakeServer(t)
	client, err := Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close() error = %v", err)
	}

	// Writes and flushes after Close are dropped.
	client.WritePoint("x", nil, map[string]any{"v": 1})
	client.Flush()
}
