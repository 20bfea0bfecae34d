package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"csa/internal/csa"
	"csa/internal/domain"
	"csa/internal/network"
)

var ErrInvalidTimetable = errors.New("invalid timetable")

// RecordSource hands out the timetable rows a query is planned on.
// Implementations must not mutate a returned slice afterwards.
type RecordSource interface {
	Records() []domain.Record
}

// StaticRecords is a fixed in-memory timetable.
type StaticRecords []domain.Record

func (s StaticRecords) Records() []domain.Record {
	return s
}

type Query struct {
	Origin      string `json:"from"`
	Destination string `json:"to"`
	Departure   string `json:"departure"`
}

// Runner plans earliest-arrival journeys. Every query builds its own
// network and scan state, so a Runner may be shared between goroutines.
type Runner struct {
	source RecordSource
	logger *slog.Logger
}

func NewRunner(source RecordSource, logger *slog.Logger) *Runner {
	return &Runner{
		source: source,
		logger: logger.With("component", "query_runner"),
	}
}

// Run answers q. An unreachable destination is not an error: the journey
// comes back with status no_path and the unreachable arrival marker.
// Malformed times and unknown stations are returned as errors.
func (r *Runner) Run(ctx context.Context, q Query) (*domain.Journey, error) {
	start := time.Now()

	departure, err := domain.ParseTime(q.Departure)
	if err != nil {
		return nil, fmt.Errorf("query departure: %w", err)
	}
	if !departure.Reached() {
		return nil, fmt.Errorf("query departure: %w: %q is not a clock time", domain.ErrMalformedTime, q.Departure)
	}

	net, err := network.New(r.source.Records(), departure)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTimetable, err)
	}

	origin, destination := domain.Station(q.Origin), domain.Station(q.Destination)
	res, err := csa.ScanContext(ctx, net, origin, destination, departure)
	if err != nil {
		return nil, err
	}

	journey := &domain.Journey{
		Status:      domain.JourneyNoPath,
		Origin:      origin,
		Destination: destination,
		Departure:   domain.FormatTime(departure),
		Arrival:     domain.FormatTime(res.Arrival(destination)),
	}

	if res.Reached(destination) {
		journey.Path, err = res.Path(destination)
		if err != nil {
			return nil, err
		}
		journey.Legs, err = res.Legs(destination)
		if err != nil {
			return nil, err
		}
		journey.Status = domain.JourneyFound
	}

	r.logger.Debug("query answered",
		"from", q.Origin,
		"to", q.Destination,
		"departure", journey.Departure,
		"arrival", journey.Arrival,
		"status", journey.Status,
		"connections_scanned", net.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return journey, nil
}

// IsInputError reports whether err was caused by the query itself rather
// than by the timetable or the runtime.
func IsInputError(err error) bool {
	if errors.Is(err, ErrInvalidTimetable) {
		return false
	}
	return errors.Is(err, domain.ErrMalformedTime) || errors.Is(err, csa.ErrUnknownStation)
}
