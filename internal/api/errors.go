package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
	"github.com/nerrad567/gray-logic-transducers/internal/transducer"
)

// Error is the body of every error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeNotFound      = "not_found"
	ErrCodeUnauthorized  = "unauthorised"
	ErrCodeForbidden     = "forbidden"
	ErrCodeConflict      = "conflict"
	ErrCodeUnprocessable = "unit_mismatch"
	ErrCodeInternal      = "internal_error"
	ErrCodeValidation    = "validation_error"
	ErrCodeUnavailable   = "history_unavailable"
	ErrCodeUpstream      = "history_failed"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, ErrCodeForbidden, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps registry and measure errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var mismatch *transducer.UnitMismatchError
	switch {
	case errors.Is(err, transducer.ErrTransducerNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, transducer.ErrTransducerExists):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.As(err, &mismatch):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnprocessable, mismatch.Error())
	case errors.Is(err, transducer.ErrUnitNotAllowed):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnprocessable, err.Error())
	case errors.Is(err, transducer.ErrValidation),
		errors.Is(err, measure.ErrInvalidUnit),
		errors.Is(err, measure.ErrInvalidRecord),
		errors.Is(err, measure.ErrInvalidTrigger):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeInternalError(w, "internal server error")
	}
}
