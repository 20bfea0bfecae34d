package domain

import "fmt"

// Station is an opaque station label taken from the timetable.
type Station string

// Record is one raw timetable row as handed over by a loader.
type Record struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Departure   string `json:"departure"`
	Arrival     string `json:"arrival"`

	// Informational, carried through to journey legs.
	TripID string `json:"trip_id,omitempty"`
	Route  string `json:"route,omitempty"`
}

// Connection is a single scheduled hop between two stations.
// Arrival is not required to be at or after Departure.
type Connection struct {
	Origin      Station
	Destination Station
	Departure   Time
	Arrival     Time
	TripID      string
	Route       string
}

// NewConnection parses the times of r.
func NewConnection(r Record) (Connection, error) {
	dep, err := ParseTime(r.Departure)
	if err != nil {
		return Connection{}, fmt.Errorf("departure of %s->%s: %w", r.Origin, r.Destination, err)
	}
	arr, err := ParseTime(r.Arrival)
	if err != nil {
		return Connection{}, fmt.Errorf("arrival of %s->%s: %w", r.Origin, r.Destination, err)
	}

	return Connection{
		Origin:      Station(r.Origin),
		Destination: Station(r.Destination),
		Departure:   dep,
		Arrival:     arr,
		TripID:      r.TripID,
		Route:       r.Route,
	}, nil
}

// Inverted reports whether the connection arrives before it departs.
func (c Connection) Inverted() bool {
	return c.Arrival.Before(c.Departure)
}

func (c Connection) String() string {
	return fmt.Sprintf("(%s,%s) -> (%s,%s)", c.Origin, c.Departure, c.Destination, c.Arrival)
}

// Leg is one ridden connection of a journey.
type Leg struct {
	From      Station `json:"from"`
	To        Station `json:"to"`
	Departure string  `json:"departure"`
	Arrival   string  `json:"arrival"`
	TripID    string  `json:"trip_id,omitempty"`
	Route     string  `json:"route,omitempty"`
}

// JourneyStatus tells a found journey from an unreachable destination.
type JourneyStatus string

const (
	JourneyFound  JourneyStatus = "found"
	JourneyNoPath JourneyStatus = "no_path"
)

// Journey is the answer to one earliest-arrival query.
type Journey struct {
	Status      JourneyStatus `json:"status"`
	Origin      Station       `json:"origin"`
	Destination Station       `json:"destination"`
	Departure   string        `json:"departure"`
	Arrival     string        `json:"arrival"`
	Path        []Station     `json:"path,omitempty"`
	Legs        []Leg         `json:"legs,omitempty"`
}

func (j *Journey) Found() bool {
	return j.Status == JourneyFound
}
