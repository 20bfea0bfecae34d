package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"csa/internal/csa"
	"csa/internal/domain"
	"csa/internal/query"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondQueryError maps planner errors onto HTTP statuses.
func respondQueryError(w http.ResponseWriter, err error) {
	status, kind := classify(err)
	respondJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, query.ErrInvalidTimetable):
		return http.StatusInternalServerError, "invalid_timetable"
	case errors.Is(err, domain.ErrMalformedTime):
		return http.StatusBadRequest, "malformed_time"
	case errors.Is(err, csa.ErrUnknownStation):
		return http.StatusNotFound, "unknown_station"
	case errors.Is(err, csa.ErrBrokenPredecessorChain):
		return http.StatusUnprocessableEntity, "broken_chain"
	case errors.Is(err, errNotLoaded):
		return http.StatusServiceUnavailable, "not_loaded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
