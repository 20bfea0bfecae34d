package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"csa/internal/domain"
	"csa/internal/query"
)

type JourneyPlanner interface {
	Run(ctx context.Context, q query.Query) (*domain.Journey, error)
}

// JourneyWarmer pre-plans a fixed set of popular queries into the cache
// after every timetable load.
type JourneyWarmer struct {
	cache   *JourneyCache
	planner JourneyPlanner
	queries []query.Query
	logger  *slog.Logger
}

func NewJourneyWarmer(cache *JourneyCache, planner JourneyPlanner, queries []query.Query, logger *slog.Logger) *JourneyWarmer {
	return &JourneyWarmer{
		cache:   cache,
		planner: planner,
		queries: queries,
		logger:  logger.With("component", "cache_warmer"),
	}
}

// Warm plans every configured query and stores the answers under
// fingerprint. Queries that fail are logged and skipped.
func (w *JourneyWarmer) Warm(ctx context.Context, fingerprint string) int {
	if len(w.queries) == 0 {
		return 0
	}

	start := time.Now()
	w.logger.Info("starting cache warming", "queries", len(w.queries))

	warmed := 0
	for _, q := range w.queries {
		if ctx.Err() != nil {
			break
		}

		j, err := w.planner.Run(ctx, q)
		if err != nil {
			w.logger.Warn("failed to plan warm query", "from", q.Origin, "to", q.Destination, "departure", q.Departure, "error", err)
			continue
		}

		key, ok := KeyForQuery(fingerprint, q)
		if !ok {
			continue
		}
		if err := w.cache.SetJourney(ctx, key, j); err != nil {
			w.logger.Debug("failed to cache warm query", "key", key, "error", err)
			continue
		}
		warmed++
	}

	w.logger.Info("cache warming completed",
		"warmed", warmed,
		"total", len(w.queries),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return warmed
}

// ParseWarmQueries reads "FROM>TO@HH:MM" entries. Labels may contain
// '>' or '@' as long as the separators used are the last ones.
func ParseWarmQueries(entries []string) ([]query.Query, error) {
	queries := make([]query.Query, 0, len(entries))
	for _, e := range entries {
		at := strings.LastIndex(e, "@")
		if at < 0 {
			return nil, fmt.Errorf("warm query %q: missing @departure", e)
		}
		route, departure := e[:at], strings.TrimSpace(e[at+1:])

		gt := strings.LastIndex(route, ">")
		if gt < 0 {
			return nil, fmt.Errorf("warm query %q: missing >destination", e)
		}
		q := query.Query{
			Origin:      strings.TrimSpace(route[:gt]),
			Destination: strings.TrimSpace(route[gt+1:]),
			Departure:   departure,
		}
		if q.Origin == "" || q.Destination == "" || q.Departure == "" {
			return nil, fmt.Errorf("warm query %q: empty field", e)
		}
		queries = append(queries, q)
	}
	return queries, nil
}
