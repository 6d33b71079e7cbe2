package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
	"github.com/nerrad567/gray-logic-transducers/internal/transducer"
)

type createTransducerRequest struct {
	Name       string `json:"name"`
	RegistryID string `json:"registry_id"`
}

type updateTransducerRequest struct {
	Name       *string `json:"name"`
	RegistryID *string `json:"registry_id"`
}

// setPointRequest carries a set point change. A null or absent value
// clears the set point.
type setPointRequest struct {
	Value        *float64 `json:"value"`
	Unit         string   `json:"unit"`
	ExpectedUnit string   `json:"expected_unit"`
}

type metadataRequest struct {
	Value json.RawMessage `json:"value"`
}

// handleListTransducers returns every transducer ordered by name.
func (s *Server) handleListTransducers(w http.ResponseWriter, r *http.Request) {
	list, err := s.registry.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	out := make([]transducer.Snapshot, 0, len(list))
	for _, t := range list {
		out = append(out, t.Snapshot())
	}
	writeJSON(w, http.StatusOK, map[string]any{"transducers": out, "count": len(out)})
}

func (s *Server) handleGetTransducer(w http.ResponseWriter, r *http.Request) {
	t, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleCreateTransducer(w http.ResponseWriter, r *http.Request) {
	var req createTransducerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	t, err := s.registry.Create(r.Context(), req.Name, req.RegistryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logAction(r, "transducer created", t.ID())
	writeJSON(w, http.StatusCreated, t.Snapshot())
}

// handleUpdateTransducer renames a transducer and/or replaces its
// registry ID. Omitted fields are left as they are; both changes are
// applied together or not at all.
func (s *Server) handleUpdateTransducer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateTransducerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Name == nil && req.RegistryID == nil {
		writeBadRequest(w, "name or registry_id is required")
		return
	}

	t, err := s.registry.Update(r.Context(), id, req.Name, req.RegistryID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logAction(r, "transducer updated", id)
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleDeleteTransducer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.logAction(r, "transducer deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleSetSetPoint assigns or clears the set point. When expected_unit is
// given, a value in any other unit is rejected with 422.
func (s *Server) handleSetSetPoint(w http.ResponseWriter, r *http.Request) {
	var req setPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var (
		value    *measure.Measure
		expected measure.Unit
	)
	if req.Value != nil {
		unit, err := measure.ParseUnit(req.Unit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		if value, err = measure.NewMeasure(*req.Value, unit); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}
	if req.ExpectedUnit != "" {
		unit, err := measure.ParseUnit(req.ExpectedUnit)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		expected = unit
	}

	t, err := s.registry.SetSetPoint(r.Context(), chi.URLParam(r, "id"), value, expected)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleSetMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Value) == 0 {
		writeBadRequest(w, "value is required")
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		writeBadRequest(w, "invalid metadata value")
		return
	}

	t, err := s.registry.AddMetadata(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "key"), value)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (s *Server) handleDeleteMetadata(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	removed, err := s.registry.RemoveMetadata(r.Context(), chi.URLParam(r, "id"), key)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !removed {
		writeNotFound(w, "metadata key "+strconv.Quote(key)+" not set")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRecordData appends one record envelope or an array of them, the
// same payload shape accepted over MQTT.
func (s *Server) handleRecordData(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	records, err := measure.ParseRecords(body)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	if err := s.registry.RecordData(r.Context(), chi.URLParam(r, "id"), records); err != nil {
		s.writeDomainError(w, err)
		return
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.RecordID())
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recorded": len(records), "ids": ids})
}

func (s *Server) handleDeleteData(w http.ResponseWriter, r *http.Request) {
	removed, err := s.registry.RemoveData(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "recordID"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !removed {
		writeNotFound(w, "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListData returns recent records, newest first.
//
// Query parameters:
//   - limit: maximum records to return (default 50, capped at 200)
func (s *Server) handleListData(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.registry.ListData(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	envelopes, err := measure.EncodeRecords(records)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": envelopes, "count": len(envelopes)})
}

// logAction records a management change with the caller's subject when
// the route is authenticated.
func (s *Server) logAction(r *http.Request, msg, id string) {
	subject := "anonymous"
	if claims := claimsFromContext(r.Context()); claims != nil {
		subject = claims.Subject
	}
	s.logger.Info(msg, "id", id, "subject", subject, "request_id", requestIDFromContext(r.Context()))
}
