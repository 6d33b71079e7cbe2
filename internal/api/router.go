package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-transducers/internal/auth"
)

// healthCheckTimeout bounds each dependency check in /health.
const healthCheckTimeout = 2 * time.Second

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.cfg.Metrics.Enabled {
		r.Use(metricsMiddleware)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		if s.cfg.Metrics.Enabled {
			r.Get("/metrics", s.handleMetrics)
		}

		r.Route("/transducers", func(r chi.Router) {
			r.Get("/", s.handleListTransducers)
			r.With(s.requirePermission(auth.PermTransducerManage)).Post("/", s.handleCreateTransducer)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetTransducer)

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermTransducerManage))
					r.Patch("/", s.handleUpdateTransducer)
					r.Delete("/", s.handleDeleteTransducer)
				})

				r.Group(func(r chi.Router) {
					r.Use(s.requirePermission(auth.PermTransducerOperate))
					r.Put("/setpoint", s.handleSetSetPoint)
					r.Put("/metadata/{key}", s.handleSetMetadata)
					r.Delete("/metadata/{key}", s.handleDeleteMetadata)
					r.Post("/data", s.handleRecordData)
					r.Delete("/data/{recordID}", s.handleDeleteData)
				})

				r.Get("/data", s.handleListData)
				r.Get("/history", s.handleHistory)
			})
		})

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// handleHealth checks every configured dependency. Any failure turns the
// overall status to "degraded" with a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	components := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := s.checks[name].HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			continue
		}
		components[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	body := map[string]any{
		"status":      status,
		"version":     s.version,
		"transducers": s.registry.Count(),
		"ws_clients":  s.hub.ClientCount(),
		"components":  components,
	}
	if n, ok := s.storedRecords(r.Context()); ok {
		body["records"] = n
	}
	writeJSON(w, code, body)
}

// rowCounter is implemented by *database.DB.
type rowCounter interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

// storedRecords counts persisted readings and trigger events when the
// database checker can count rows.
func (s *Server) storedRecords(ctx context.Context) (int64, bool) {
	counter, ok := s.checks["database"].(rowCounter)
	if !ok {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	n, err := counter.CountRows(ctx, "transducer_data")
	if err != nil {
		s.logger.Warn("counting stored records failed", "error", err)
		return 0, false
	}
	return n, true
}

func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}
