package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csa/internal/domain"
)

func rec(from, to, dep, arr string) domain.Record {
	return domain.Record{Origin: from, Destination: to, Departure: dep, Arrival: arr}
}

func TestBuildStations(t *testing.T) {
	stations := BuildStations([]domain.Record{
		rec("A", "B", "06:00", "06:10"),
		rec("B", "C", "06:20", "06:30"),
		rec("A", "C", "07:00", "07:30"),
	})

	assert.Len(t, stations, 3)
	for _, s := range []domain.Station{"A", "B", "C"} {
		assert.Contains(t, stations, s)
	}
}

func TestBuildConnectionsFiltersAndSorts(t *testing.T) {
	records := []domain.Record{
		rec("C", "D", "09:00", "09:30"),
		rec("A", "B", "06:00", "06:10"),
		rec("B", "C", "08:00", "08:20"),
		rec("X", "Y", "07:59", "08:30"),
	}
	original := append([]domain.Record(nil), records...)

	conns, err := BuildConnections(records, domain.At(8*60))
	require.NoError(t, err)

	require.Len(t, conns, 2)
	assert.Equal(t, domain.Station("B"), conns[0].Origin)
	assert.Equal(t, domain.Station("C"), conns[1].Origin)
	assert.Equal(t, original, records, "input must not be mutated")
}

func TestBuildConnectionsStableOnTies(t *testing.T) {
	records := []domain.Record{
		rec("P", "Y", "08:00", "08:30"),
		rec("A", "B", "07:00", "07:10"),
		rec("Q", "Y", "08:00", "08:30"),
		rec("R", "Y", "08:00", "08:25"),
	}

	conns, err := BuildConnections(records, domain.At(0))
	require.NoError(t, err)

	got := make([]domain.Station, len(conns))
	for i, c := range conns {
		got[i] = c.Origin
	}
	assert.Equal(t, []domain.Station{"A", "P", "Q", "R"}, got)
}

func TestBuildConnectionsUnreachableDepartureSortsLast(t *testing.T) {
	conns, err := BuildConnections([]domain.Record{
		rec("A", "B", "inf", "inf"),
		rec("B", "C", "23:00", "23:30"),
	}, domain.At(600))
	require.NoError(t, err)

	require.Len(t, conns, 2)
	assert.Equal(t, domain.Station("B"), conns[0].Origin)
	assert.False(t, conns[1].Departure.Reached())
}

func TestBuildConnectionsMalformed(t *testing.T) {
	_, err := BuildConnections([]domain.Record{
		rec("A", "B", "06:00", "06:10"),
		rec("B", "C", "6.20", "06:30"),
	}, domain.At(0))
	assert.ErrorIs(t, err, domain.ErrMalformedTime)
	assert.Contains(t, err.Error(), "record 1")
}

func TestNetwork(t *testing.T) {
	n, err := New([]domain.Record{
		rec("B", "C", "06:20", "06:30"),
		rec("A", "B", "06:00", "06:10"),
		rec("C", "D", "05:00", "05:30"),
	}, domain.At(6*60))
	require.NoError(t, err)

	assert.True(t, n.HasStation("A"))
	assert.True(t, n.HasStation("D"), "stations include filtered-out connections")
	assert.False(t, n.HasStation("Z"))
	assert.Equal(t, []domain.Station{"A", "B", "C", "D"}, n.Stations())
	assert.Equal(t, 4, n.StationCount())
	assert.Equal(t, 2, n.Len())

	var order []domain.Station
	for c := range n.All() {
		order = append(order, c.Origin)
	}
	assert.Equal(t, []domain.Station{"A", "B"}, order)

	conns := n.Connections()
	conns[0].Origin = "mutated"
	assert.Equal(t, domain.Station("A"), n.Connections()[0].Origin)
}
