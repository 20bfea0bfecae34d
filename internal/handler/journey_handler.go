package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"csa/internal/cache"
	"csa/internal/csa"
	"csa/internal/domain"
	"csa/internal/query"
	"csa/internal/store"
)

var errNotLoaded = errors.New("timetable not loaded yet")

type JourneyHandler struct {
	runner *query.Runner
	store  *store.TimetableStore
	cache  *cache.JourneyCache
	logger *slog.Logger
}

// NewJourneyHandler wires the planner endpoints. journeyCache may be nil.
func NewJourneyHandler(runner *query.Runner, s *store.TimetableStore, journeyCache *cache.JourneyCache, logger *slog.Logger) *JourneyHandler {
	return &JourneyHandler{
		runner: runner,
		store:  s,
		cache:  journeyCache,
		logger: logger.With("handler", "journey"),
	}
}

// Plan answers q, consulting the journey cache first when one is set.
// Cache failures are logged and otherwise ignored.
func (h *JourneyHandler) Plan(ctx context.Context, q query.Query) (*domain.Journey, error) {
	fingerprint := h.store.Fingerprint()
	if fingerprint == "" {
		return nil, errNotLoaded
	}

	key, cacheable := "", false
	if h.cache != nil {
		key, cacheable = cache.KeyForQuery(fingerprint, q)
	}
	if cacheable {
		if j, err := h.cache.GetJourney(ctx, key); err != nil {
			h.logger.Warn("journey cache read failed", "key", key, "error", err)
		} else if j != nil {
			ServerStats.IncCacheHits()
			return j, nil
		}
		ServerStats.IncCacheMisses()
	}

	j, err := h.runner.Run(ctx, q)
	if err != nil {
		return nil, err
	}
	ServerStats.IncJourneys()

	if cacheable {
		if err := h.cache.SetJourney(ctx, key, j); err != nil {
			h.logger.Warn("journey cache write failed", "key", key, "error", err)
		}
	}
	return j, nil
}

type JourneyResponse struct {
	*domain.Journey
	ServerTime time.Time `json:"server_time"`
}

// GetJourney serves GET /v1/journeys?from=&to=&departure=.
func (h *JourneyHandler) GetJourney(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params := r.URL.Query()
	q := query.Query{
		Origin:      params.Get("from"),
		Destination: params.Get("to"),
		Departure:   params.Get("departure"),
	}

	h.logger.Debug("GetJourney request",
		"from", q.Origin,
		"to", q.Destination,
		"departure", q.Departure,
		"request_id", RequestIDFromContext(r.Context()),
	)

	if q.Origin == "" || q.Destination == "" || q.Departure == "" {
		respondError(w, http.StatusBadRequest, "from, to and departure are required")
		return
	}

	j, err := h.Plan(r.Context(), q)
	if err != nil {
		switch {
		case query.IsInputError(err):
		case errors.Is(err, csa.ErrBrokenPredecessorChain):
			h.logger.Warn("GetJourney: route cannot be traced back", "from", q.Origin, "to", q.Destination, "error", err)
		default:
			h.logger.Error("GetJourney failed", "error", err)
		}
		respondQueryError(w, err)
		return
	}

	h.logger.Debug("GetJourney response",
		"status", j.Status,
		"arrival", j.Arrival,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, JourneyResponse{Journey: j, ServerTime: time.Now()})
}

type StationsResponse struct {
	Stations   []store.StationInfo `json:"stations"`
	Count      int                 `json:"count"`
	ServerTime time.Time           `json:"server_time"`
}

func (h *JourneyHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	stations := h.store.Stations()
	respondJSON(w, http.StatusOK, StationsResponse{
		Stations:   stations,
		Count:      len(stations),
		ServerTime: time.Now(),
	})
}

func (h *JourneyHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.GetStats())
}
