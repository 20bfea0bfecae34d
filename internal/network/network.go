package network

import (
	"fmt"
	"iter"
	"slices"
	"sort"

	"csa/internal/domain"
)

// Network is the read-only station set and time-ordered connection list
// used by a single query.
type Network struct {
	stations    map[domain.Station]struct{}
	connections []domain.Connection
}

// New builds a network from records, keeping only connections departing
// at or after threshold.
func New(records []domain.Record, threshold domain.Time) (*Network, error) {
	conns, err := BuildConnections(records, threshold)
	if err != nil {
		return nil, err
	}
	return &Network{
		stations:    BuildStations(records),
		connections: conns,
	}, nil
}

// BuildStations returns the union of every origin and destination label.
func BuildStations(records []domain.Record) map[domain.Station]struct{} {
	stations := make(map[domain.Station]struct{}, len(records))
	for _, r := range records {
		stations[domain.Station(r.Origin)] = struct{}{}
		stations[domain.Station(r.Destination)] = struct{}{}
	}
	return stations
}

// BuildConnections parses records, drops those departing before threshold
// and stable-sorts the rest by departure. Equal departures keep input order.
func BuildConnections(records []domain.Record, threshold domain.Time) ([]domain.Connection, error) {
	conns := make([]domain.Connection, 0, len(records))
	for i, r := range records {
		c, err := domain.NewConnection(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if c.Departure.Before(threshold) {
			continue
		}
		conns = append(conns, c)
	}

	sort.SliceStable(conns, func(i, j int) bool {
		return conns[i].Departure.Before(conns[j].Departure)
	})

	return conns, nil
}

func (n *Network) HasStation(s domain.Station) bool {
	_, ok := n.stations[s]
	return ok
}

// Stations returns the station labels in lexical order.
func (n *Network) Stations() []domain.Station {
	result := make([]domain.Station, 0, len(n.stations))
	for s := range n.stations {
		result = append(result, s)
	}
	slices.Sort(result)
	return result
}

// Connections returns a copy of the ordered connection list.
func (n *Network) Connections() []domain.Connection {
	return slices.Clone(n.connections)
}

// Len is the number of connections kept after filtering.
func (n *Network) Len() int {
	return len(n.connections)
}

// StationCount is the number of distinct stations.
func (n *Network) StationCount() int {
	return len(n.stations)
}

// All yields the connections in scan order without copying the list.
func (n *Network) All() iter.Seq[domain.Connection] {
	return slices.Values(n.connections)
}
