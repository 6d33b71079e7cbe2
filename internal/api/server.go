package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-transducers/internal/transducer"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is implemented by the database, MQTT, and InfluxDB clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HistoryQuerier reads stored time-series points. *influxdb.Client
// satisfies it.
type HistoryQuerier interface {
	QueryRange(ctx context.Context, q influxdb.RangeQuery) ([]influxdb.Point, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *transducer.Registry

	// Optional components reported by /health. Nil means not configured.
	Database HealthChecker
	MQTT     HealthChecker
	InfluxDB HealthChecker

	// History serves /transducers/{id}/history. Nil answers 503.
	History HistoryQuerier

	Version string
}

// Server is the HTTP API server. Create with New, then Start.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	secCfg   config.SecurityConfig
	logger   *logging.Logger
	registry *transducer.Registry
	checks   map[string]HealthChecker
	history  HistoryQuerier
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a server and its WebSocket hub. The hub is registered with
// the registry as a Sink, so live events flow once Start runs the hub.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("transducer registry is required")
	}

	s := &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		secCfg:   deps.Security,
		logger:   deps.Logger,
		registry: deps.Registry,
		checks:   make(map[string]HealthChecker),
		history:  deps.History,
		version:  deps.Version,
	}
	for name, hc := range map[string]HealthChecker{"database": deps.Database, "mqtt": deps.MQTT, "influxdb": deps.InfluxDB} {
		if hc != nil {
			s.checks[name] = hc
		}
	}

	s.hub = NewHub(deps.WS, deps.Logger)
	deps.Registry.AddSink(s.hub)
	if deps.Config.Metrics.Enabled {
		deps.Registry.AddSink(MetricsSink{})
	}
	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the fully wired router. Start uses it; tests call it
// directly with httptest.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start runs the hub and begins listening in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close stops the hub and shuts the listener down gracefully.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("api health check: %w", err)
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
