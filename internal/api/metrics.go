package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
	"github.com/nerrad567/gray-logic-transducers/internal/transducer"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transducerd_http_requests_total",
		Help: "HTTP requests by method, route pattern, and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transducerd_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	ingestMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transducerd_ingest_messages_total",
		Help: "MQTT data messages by outcome.",
	}, []string{"outcome"})

	recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "transducerd_records_total",
		Help: "Records persisted, by kind.",
	}, []string{"kind"})

	setPointChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transducerd_set_point_changes_total",
		Help: "Set point changes applied.",
	})

	pruneDeletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transducerd_retention_pruned_records_total",
		Help: "Records removed by the retention worker.",
	})

	transducersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transducerd_transducers",
		Help: "Transducers in the registry.",
	})

	wsClientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "transducerd_websocket_clients",
		Help: "Connected WebSocket clients.",
	})

	registerOnce sync.Once
)

// InitMetrics registers the collectors with the default Prometheus registry.
// Safe to call repeatedly.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			ingestMessagesTotal,
			recordsTotal,
			setPointChangesTotal,
			pruneDeletedTotal,
			transducersGauge,
			wsClientsGauge,
		)
	})
}

// ObserveIngest counts one MQTT data message. Wire it with
// Ingest.SetObserver.
func ObserveIngest(outcome string) {
	InitMetrics()
	ingestMessagesTotal.WithLabelValues(outcome).Inc()
}

// ObservePrune counts records removed by a retention run.
func ObservePrune(n int64) {
	InitMetrics()
	if n > 0 {
		pruneDeletedTotal.Add(float64(n))
	}
}

// MetricsSink counts registry events.
type MetricsSink struct{}

// DataRecorded counts records by kind.
func (MetricsSink) DataRecorded(_ context.Context, _ *transducer.Transducer, records []measure.Record) {
	InitMetrics()
	for _, r := range records {
		recordsTotal.WithLabelValues(string(r.Kind())).Inc()
	}
}

// SetPointChanged counts set point changes.
func (MetricsSink) SetPointChanged(context.Context, *transducer.Transducer) {
	InitMetrics()
	setPointChangesTotal.Inc()
}

// handleMetrics refreshes the point-in-time gauges and serves the
// Prometheus exposition.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	InitMetrics()
	transducersGauge.Set(float64(s.registry.Count()))
	wsClientsGauge.Set(float64(s.hub.ClientCount()))
	promhttp.Handler().ServeHTTP(w, r)
}

// metricsMiddleware records request counts and latency labelled by chi
// route pattern, keeping label cardinality independent of IDs.
func metricsMiddleware(next http.Handler) http.Handler {
	InitMetrics()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
