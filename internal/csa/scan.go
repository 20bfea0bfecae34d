package csa

import (
	"context"
	"errors"
	"fmt"

	"csa/internal/domain"
	"csa/internal/network"
)

var ErrUnknownStation = errors.New("unknown station")

// Result holds the per-station state of one finished scan.
type Result struct {
	origin      domain.Station
	departure   domain.Time
	arrival     map[domain.Station]domain.Time
	predecessor map[domain.Station]domain.Connection
	stations    int
}

// Scan runs the connection scan from origin at departure.
// Both origin and destination must belong to the network.
func Scan(net *network.Network, origin, destination domain.Station, departure domain.Time) (*Result, error) {
	return ScanContext(context.Background(), net, origin, destination, departure)
}

// ScanContext is Scan with an early exit for an already cancelled ctx.
// The pass itself is not interruptible.
func ScanContext(ctx context.Context, net *network.Network, origin, destination domain.Station, departure domain.Time) (*Result, error) {
	if !net.HasStation(origin) {
		return nil, fmt.Errorf("%w: origin %q", ErrUnknownStation, origin)
	}
	if !net.HasStation(destination) {
		return nil, fmt.Errorf("%w: destination %q", ErrUnknownStation, destination)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		origin:      origin,
		departure:   departure,
		arrival:     make(map[domain.Station]domain.Time, net.StationCount()),
		predecessor: make(map[domain.Station]domain.Connection),
		stations:    net.StationCount(),
	}
	res.arrival[origin] = departure

	// Connections arrive sorted by departure, so by the time c is seen every
	// connection that could have reached c.Origin earlier has been applied.
	for c := range net.All() {
		if !res.arrival[c.Origin].Reached() {
			continue
		}
		// The origin is pinned at the departure time.
		if c.Destination == origin {
			continue
		}
		if res.arrival[c.Destination].After(c.Arrival) {
			res.arrival[c.Destination] = c.Arrival
			res.predecessor[c.Destination] = c
		}
	}

	return res, nil
}

func (r *Result) Origin() domain.Station {
	return r.origin
}

func (r *Result) Departure() domain.Time {
	return r.departure
}

// Arrival is the earliest arrival at s, or domain.Unreachable.
func (r *Result) Arrival(s domain.Station) domain.Time {
	return r.arrival[s]
}

func (r *Result) Reached(s domain.Station) bool {
	return r.arrival[s].Reached()
}

// Predecessor is the station the earliest journey to s last departed from.
func (r *Result) Predecessor(s domain.Station) (domain.Station, bool) {
	c, ok := r.predecessor[s]
	if !ok {
		return "", false
	}
	return c.Origin, true
}
