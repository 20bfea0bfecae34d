package store

import (
	"slices"
	"sync"
	"time"

	"csa/internal/domain"
	"csa/internal/network"
)

// TimetableStore holds the current timetable snapshot. Snapshots are
// replaced whole and never mutated, so readers may keep using a slice
// returned by Records after a later update.
type TimetableStore struct {
	mu          sync.RWMutex
	records     []domain.Record
	stopNames   map[string]string
	fingerprint string
	inverted    int

	lastUpdate time.Time
}

func NewTimetableStore() *TimetableStore {
	return &TimetableStore{
		stopNames: make(map[string]string),
	}
}

func (s *TimetableStore) UpdateAll(records []domain.Record, stopNames map[string]string, fingerprint string, inverted int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stopNames == nil {
		stopNames = make(map[string]string)
	}

	s.records = records
	s.stopNames = stopNames
	s.fingerprint = fingerprint
	s.inverted = inverted
	s.lastUpdate = time.Now()
}

// Records returns the current snapshot.
func (s *TimetableStore) Records() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// Fingerprint identifies the loaded timetable data.
func (s *TimetableStore) Fingerprint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint
}

type StationInfo struct {
	ID   domain.Station `json:"id"`
	Name string         `json:"name,omitempty"`
}

// Stations lists every station of the snapshot in label order.
func (s *TimetableStore) Stations() []StationInfo {
	s.mu.RLock()
	records, names := s.records, s.stopNames
	s.mu.RUnlock()

	labels := make([]domain.Station, 0)
	for st := range network.BuildStations(records) {
		labels = append(labels, st)
	}
	slices.Sort(labels)

	result := make([]StationInfo, len(labels))
	for i, st := range labels {
		result[i] = StationInfo{ID: st, Name: names[string(st)]}
	}
	return result
}

type TimetableStats struct {
	Connections int       `json:"connections"`
	Inverted    int       `json:"inverted_connections"`
	StopNames   int       `json:"named_stops"`
	Fingerprint string    `json:"fingerprint"`
	LastUpdate  time.Time `json:"last_update"`
	IsLoaded    bool      `json:"is_loaded"`
}

func (s *TimetableStore) GetStats() TimetableStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return TimetableStats{
		Connections: len(s.records),
		Inverted:    s.inverted,
		StopNames:   len(s.stopNames),
		Fingerprint: s.fingerprint,
		LastUpdate:  s.lastUpdate,
		IsLoaded:    !s.lastUpdate.IsZero(),
	}
}
