package query

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"csa/internal/domain"
)

// Fixture is one expected answer of the reference timetable.
type Fixture struct {
	Origin          string
	Destination     string
	Departure       string
	ExpectedArrival string
}

// ReferenceFixtures returns the known-good cases of the reference
// connections dataset. Callers own the returned slice.
func ReferenceFixtures() []Fixture {
	return []Fixture{
		{Origin: "A", Destination: "D", Departure: "06:00", ExpectedArrival: "08:01"},
		{Origin: "B", Destination: "F", Departure: "07:30", ExpectedArrival: "08:47"},
		{Origin: "C", Destination: "H", Departure: "08:15", ExpectedArrival: domain.UnreachableMarker},
		{Origin: "E", Destination: "J", Departure: "09:00", ExpectedArrival: "10:34"},
		{Origin: "G", Destination: "I", Departure: "10:00", ExpectedArrival: domain.UnreachableMarker},
	}
}

// LoadFixtures reads origin,destination,departure_time,expected_arrival_time rows.
func LoadFixtures(rd io.Reader) ([]Fixture, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read fixtures header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	cols := []string{"origin", "destination", "departure_time", "expected_arrival_time"}
	for _, col := range cols {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("fixtures: missing column %q", col)
		}
	}

	var fixtures []Fixture
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(name string) string {
			if i := idx[name]; i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		fixtures = append(fixtures, Fixture{
			Origin:          field("origin"),
			Destination:     field("destination"),
			Departure:       field("departure_time"),
			ExpectedArrival: field("expected_arrival_time"),
		})
	}
	return fixtures, nil
}

// Outcome compares one fixture against the runner's answer.
type Outcome struct {
	Fixture Fixture
	Journey *domain.Journey
	Actual  string
	Err     error
	Passed  bool
}

type Report struct {
	Outcomes []Outcome
	Passed   int
	Failed   int
}

func (r Report) OK() bool {
	return r.Failed == 0
}

// Verify runs every fixture and records whether the arrival matched.
// A query error counts as a failure; remaining fixtures still run.
func Verify(ctx context.Context, runner *Runner, fixtures []Fixture) Report {
	report := Report{Outcomes: make([]Outcome, 0, len(fixtures))}

	for _, f := range fixtures {
		out := Outcome{Fixture: f}
		j, err := runner.Run(ctx, Query{Origin: f.Origin, Destination: f.Destination, Departure: f.Departure})
		if err != nil {
			out.Err = err
		} else {
			out.Journey = j
			out.Actual = j.Arrival
			out.Passed = j.Arrival == f.ExpectedArrival
		}

		if out.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	return report
}
