package csa

import (
	"errors"
	"fmt"
	"slices"

	"csa/internal/domain"
)

var (
	ErrNoPathFound            = errors.New("no path found")
	ErrBrokenPredecessorChain = errors.New("broken predecessor chain")
)

// Path returns the stations from the origin to destination inclusive.
func (r *Result) Path(destination domain.Station) ([]domain.Station, error) {
	legs, err := r.walk(destination)
	if err != nil {
		return nil, err
	}

	path := make([]domain.Station, 0, len(legs)+1)
	path = append(path, r.origin)
	for _, c := range legs {
		path = append(path, c.Destination)
	}
	return path, nil
}

// Legs returns the connections ridden from the origin to destination.
// It is empty when destination is the origin.
func (r *Result) Legs(destination domain.Station) ([]domain.Leg, error) {
	conns, err := r.walk(destination)
	if err != nil {
		return nil, err
	}

	legs := make([]domain.Leg, len(conns))
	for i, c := range conns {
		legs[i] = domain.Leg{
			From:      c.Origin,
			To:        c.Destination,
			Departure: domain.FormatTime(c.Departure),
			Arrival:   domain.FormatTime(c.Arrival),
			TripID:    c.TripID,
			Route:     c.Route,
		}
	}
	return legs, nil
}

// walk follows predecessors back from destination and returns the
// connections in travel order.
func (r *Result) walk(destination domain.Station) ([]domain.Connection, error) {
	if !r.Reached(destination) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoPathFound, r.origin, destination)
	}

	var conns []domain.Connection
	current := destination
	for current != r.origin {
		c, ok := r.predecessor[current]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no predecessor", ErrBrokenPredecessorChain, current)
		}
		if len(conns) >= r.stations {
			return nil, fmt.Errorf("%w: cycle through %s", ErrBrokenPredecessorChain, current)
		}
		conns = append(conns, c)
		current = c.Origin
	}

	slices.Reverse(conns)
	return conns, nil
}
