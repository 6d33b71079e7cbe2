package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-transducers/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-transducers/internal/transducer"
)

const defaultHistoryWindow = 24 * time.Hour

var historyMeasurements = map[string]string{
	"reading":   transducer.MeasurementReading,
	"trigger":   transducer.MeasurementTrigger,
	"set_point": transducer.MeasurementSetPoint,
}

// handleHistory returns points mirrored to InfluxDB for one transducer.
//
// Query parameters:
//   - kind: reading (default), trigger, or set_point
//   - start, end: RFC3339 bounds (default the last 24 hours)
//   - limit: maximum points per series (default 1000, capped at 10000)
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history store not configured")
		return
	}

	t, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	query := r.URL.Query()
	kind := query.Get("kind")
	if kind == "" {
		kind = "reading"
	}
	measurement, ok := historyMeasurements[kind]
	if !ok {
		writeBadRequest(w, "kind must be reading, trigger, or set_point")
		return
	}

	end := time.Now().UTC()
	if v := query.Get("end"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			writeBadRequest(w, "end must be RFC3339")
			return
		}
	}
	start := end.Add(-defaultHistoryWindow)
	if v := query.Get("start"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			writeBadRequest(w, "start must be RFC3339")
			return
		}
	}
	limit := 0
	if v := query.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
	}

	points, err := s.history.QueryRange(r.Context(), influxdb.RangeQuery{
		Measurement: measurement,
		Tags:        map[string]string{"transducer_id": t.ID()},
		Start:       start,
		End:         end,
		Limit:       limit,
	})
	if err != nil {
		if errors.Is(err, influxdb.ErrInvalidQuery) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("history query failed", "id", t.ID(), "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "history query failed")
		return
	}
	if points == nil {
		points = []influxdb.Point{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transducer_id": t.ID(),
		"measurement":   measurement,
		"start":         start,
		"end":           end,
		"points":        points,
		"count":         len(points),
	})
}
