package timetable

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"csa/internal/domain"
)

// Column names of the plain connections CSV.
const (
	ColDepartureStation = "departure_station"
	ColArrivalStation   = "arrival_station"
	ColDepartureTime    = "departure_time"
	ColArrivalTime      = "arrival_time"
	ColTripID           = "trip_id"
	ColRoute            = "route"
)

type ParseResult struct {
	Records   []domain.Record
	StopNames map[string]string // stop_id -> stop_name, GTFS only
	Trips     int
}

type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With("component", "timetable_parser"),
	}
}

// Parse detects the format of data: a zip archive is read as GTFS,
// anything else as a connections CSV.
func (p *Parser) Parse(data []byte) (*ParseResult, error) {
	if isZip(data) {
		reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("open zip: %w", err)
		}
		return p.ParseGTFS(reader)
	}

	start := time.Now()
	records, err := ParseConnectionsCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse connections csv: %w", err)
	}
	p.logger.Info("parsed connections csv",
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &ParseResult{Records: records}, nil
}

func isZip(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

// ParseConnectionsCSV reads rows of
// departure_station,arrival_station,departure_time,arrival_time.
// Columns are located by header name; trip_id and route are optional.
func ParseConnectionsCSV(rd io.Reader) ([]domain.Record, error) {
	r := csv.NewReader(rd)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := makeIndex(header)

	for _, col := range []string{ColDepartureStation, ColArrivalStation, ColDepartureTime, ColArrivalTime} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var records []domain.Record
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		records = append(records, domain.Record{
			Origin:      getField(record, idx, ColDepartureStation),
			Destination: getField(record, idx, ColArrivalStation),
			Departure:   getField(record, idx, ColDepartureTime),
			Arrival:     getField(record, idx, ColArrivalTime),
			TripID:      getField(record, idx, ColTripID),
			Route:       getField(record, idx, ColRoute),
		})
	}

	return records, nil
}

type stopTime struct {
	stopID    string
	sequence  int
	arrival   string
	departure string
}

// ParseGTFS turns every pair of consecutive stops of a trip into a record.
func (p *Parser) ParseGTFS(reader *zip.Reader) (*ParseResult, error) {
	totalStart := time.Now()
	p.logger.Info("starting GTFS parsing")

	fileMap := make(map[string]*zip.File)
	for _, file := range reader.File {
		fileMap[file.Name] = file
		p.logger.Debug("found file in archive",
			"name", file.Name,
			"uncompressed_size", file.UncompressedSize64,
		)
	}

	stopTimesFile, ok := fileMap["stop_times.txt"]
	if !ok {
		return nil, fmt.Errorf("gtfs archive has no stop_times.txt")
	}

	routeNames := make(map[string]string)
	if file, ok := fileMap["routes.txt"]; ok {
		err := eachRow(file, func(row func(string) string) {
			name := row("route_short_name")
			if name == "" {
				name = row("route_long_name")
			}
			routeNames[row("route_id")] = name
		})
		if err != nil {
			return nil, fmt.Errorf("parse routes: %w", err)
		}
	}

	tripRoutes := make(map[string]string)
	if file, ok := fileMap["trips.txt"]; ok {
		err := eachRow(file, func(row func(string) string) {
			tripRoutes[row("trip_id")] = routeNames[row("route_id")]
		})
		if err != nil {
			return nil, fmt.Errorf("parse trips: %w", err)
		}
	}

	stopNames := make(map[string]string)
	if file, ok := fileMap["stops.txt"]; ok {
		err := eachRow(file, func(row func(string) string) {
			stopNames[row("stop_id")] = row("stop_name")
		})
		if err != nil {
			return nil, fmt.Errorf("parse stops: %w", err)
		}
	}

	start := time.Now()
	p.logger.Debug("parsing stop_times.txt (this may take a while)")
	trips := make(map[string][]stopTime)
	var tripOrder []string
	err := eachRow(stopTimesFile, func(row func(string) string) {
		tripID := row("trip_id")
		seq, _ := strconv.Atoi(row("stop_sequence"))
		if _, seen := trips[tripID]; !seen {
			tripOrder = append(tripOrder, tripID)
		}
		trips[tripID] = append(trips[tripID], stopTime{
			stopID:    row("stop_id"),
			sequence:  seq,
			arrival:   row("arrival_time"),
			departure: row("departure_time"),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("parse stop_times: %w", err)
	}
	p.logger.Info("parsed stop_times.txt",
		"trips", len(trips),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	result := &ParseResult{
		StopNames: stopNames,
		Trips:     len(trips),
	}

	skipped := 0
	for _, tripID := range tripOrder {
		sts := trips[tripID]
		sort.SliceStable(sts, func(i, j int) bool {
			return sts[i].sequence < sts[j].sequence
		})

		for i := 0; i+1 < len(sts); i++ {
			from, to := sts[i], sts[i+1]
			dep, depOK := clockMinutes(from.departure)
			arr, arrOK := clockMinutes(to.arrival)
			if !depOK || !arrOK {
				skipped++
				continue
			}
			result.Records = append(result.Records, domain.Record{
				Origin:      from.stopID,
				Destination: to.stopID,
				Departure:   dep,
				Arrival:     arr,
				TripID:      tripID,
				Route:       tripRoutes[tripID],
			})
		}
	}

	p.logger.Info("GTFS parsing completed",
		"total_duration_ms", time.Since(totalStart).Milliseconds(),
		"records", len(result.Records),
		"stops", len(stopNames),
		"trips", result.Trips,
		"skipped_pairs", skipped,
	)

	return result, nil
}

// clockMinutes cuts a GTFS "H:MM:SS" time down to "HH:MM".
// Empty times (untimed stops) report false.
func clockMinutes(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", false
	}
	if len(parts[0]) == 1 {
		parts[0] = "0" + parts[0]
	}
	return parts[0] + ":" + parts[1], true
}

func eachRow(file *zip.File, fn func(row func(string) string)) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	header, err := r.Read()
	if err != nil {
		return err
	}
	// Strip a UTF-8 BOM some feeds put in front of the first column.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := makeIndex(header)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		fn(func(field string) string {
			return getField(record, idx, field)
		})
	}

	return nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
