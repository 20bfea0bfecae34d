package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"csa/internal/store"
)

type ReadinessChecker interface {
	IsReady() bool
}

type HealthHandler struct {
	ingestor ReadinessChecker
	store    *store.TimetableStore
}

func NewHealthHandler(ing ReadinessChecker, s *store.TimetableStore) *HealthHandler {
	return &HealthHandler{
		ingestor: ing,
		store:    s,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready       bool      `json:"ready"`
	Connections int       `json:"connections"`
	ServerTime  time.Time `json:"server_time"`
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.ingestor.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:       ready,
		Connections: h.store.GetStats().Connections,
		ServerTime:  time.Now(),
	})
}
