package csa

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csa/internal/domain"
	"csa/internal/network"
	"csa/pkg/timetable"
)

func rec(from, to, dep, arr string) domain.Record {
	return domain.Record{Origin: from, Destination: to, Departure: dep, Arrival: arr}
}

func referenceRecords(t *testing.T) []domain.Record {
	t.Helper()
	f, err := os.Open("../../testdata/connections.csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := timetable.ParseConnectionsCSV(f)
	require.NoError(t, err)
	return records
}

func mustTime(t *testing.T, s string) domain.Time {
	t.Helper()
	tm, err := domain.ParseTime(s)
	require.NoError(t, err)
	return tm
}

func scan(t *testing.T, records []domain.Record, from, to, dep string) *Result {
	t.Helper()
	departure := mustTime(t, dep)
	net, err := network.New(records, departure)
	require.NoError(t, err)
	res, err := Scan(net, domain.Station(from), domain.Station(to), departure)
	require.NoError(t, err)
	return res
}

func TestScanReferenceCases(t *testing.T) {
	records := referenceRecords(t)

	for _, tc := range []struct {
		from, to, dep, want string
	}{
		{"A", "D", "06:00", "08:01"},
		{"B", "F", "07:30", "08:47"},
		{"C", "H", "08:15", "inf"},
		{"E", "J", "09:00", "10:34"},
		{"G", "I", "10:00", "inf"},
	} {
		res := scan(t, records, tc.from, tc.to, tc.dep)
		assert.Equal(t, tc.want, domain.FormatTime(res.Arrival(domain.Station(tc.to))), "%s -> %s at %s", tc.from, tc.to, tc.dep)
	}
}

func TestScanDirectSuccessPath(t *testing.T) {
	res := scan(t, referenceRecords(t), "A", "D", "06:00")

	path, err := res.Path("D")
	require.NoError(t, err)
	assert.Equal(t, []domain.Station{"A", "B", "C", "D"}, path)

	legs, err := res.Legs("D")
	require.NoError(t, err)
	require.Len(t, legs, 3)
	assert.Equal(t, domain.Leg{From: "A", To: "B", Departure: "06:10", Arrival: "06:40"}, legs[0])
	assert.Equal(t, domain.Leg{From: "C", To: "D", Departure: "07:30", Arrival: "08:01"}, legs[2])
}

func TestScanUnreachablePair(t *testing.T) {
	res := scan(t, referenceRecords(t), "C", "H", "08:15")

	assert.False(t, res.Reached("H"))
	_, err := res.Path("H")
	assert.ErrorIs(t, err, ErrNoPathFound)
	_, err = res.Legs("H")
	assert.ErrorIs(t, err, ErrNoPathFound)
}

func TestScanUnknownStation(t *testing.T) {
	net, err := network.New(referenceRecords(t), domain.At(0))
	require.NoError(t, err)

	_, err = Scan(net, "Z", "D", domain.At(360))
	assert.ErrorIs(t, err, ErrUnknownStation)
	assert.Contains(t, err.Error(), "origin")

	_, err = Scan(net, "A", "Z", domain.At(360))
	assert.ErrorIs(t, err, ErrUnknownStation)
	assert.Contains(t, err.Error(), "destination")
}

func TestScanCancelledContext(t *testing.T) {
	net, err := network.New(referenceRecords(t), domain.At(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ScanContext(ctx, net, "A", "D", domain.At(360))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanOriginIsDestination(t *testing.T) {
	res := scan(t, referenceRecords(t), "A", "A", "06:00")

	assert.Equal(t, domain.At(360), res.Arrival("A"))
	path, err := res.Path("A")
	require.NoError(t, err)
	assert.Equal(t, []domain.Station{"A"}, path)

	legs, err := res.Legs("A")
	require.NoError(t, err)
	assert.Empty(t, legs)
}

func TestScanDeterministic(t *testing.T) {
	records := referenceRecords(t)
	first := scan(t, records, "A", "D", "06:00")
	firstPath, err := first.Path("D")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		res := scan(t, records, "A", "D", "06:00")
		path, err := res.Path("D")
		require.NoError(t, err)
		assert.Equal(t, first.Arrival("D"), res.Arrival("D"))
		assert.Equal(t, firstPath, path)
	}
}

func TestScanMonotonic(t *testing.T) {
	records := referenceRecords(t)
	stations := network.BuildStations(records)

	for s := range stations {
		prev := domain.Unreachable
		for n := 1; n <= len(records); n++ {
			subset := records[:n]
			if _, ok := network.BuildStations(subset)[s]; !ok {
				continue
			}
			if _, ok := network.BuildStations(subset)["A"]; !ok {
				continue
			}
			got := scan(t, subset, "A", string(s), "06:00").Arrival(s)
			assert.False(t, got.After(prev), "arrival at %s got worse after adding record %d", s, n-1)
			prev = got
		}
	}
}

func TestScanReachabilityConsistency(t *testing.T) {
	records := referenceRecords(t)
	for _, origin := range []string{"A", "B", "E"} {
		res := scan(t, records, origin, "D", "06:00")
		for s := range network.BuildStations(records) {
			_, hasPred := res.Predecessor(s)
			wantNone := s == domain.Station(origin) || !res.Reached(s)
			assert.Equal(t, wantNone, !hasPred, "origin %s station %s", origin, s)
		}
	}
}

func TestScanPathValidity(t *testing.T) {
	records := referenceRecords(t)
	conns, err := network.BuildConnections(records, domain.At(0))
	require.NoError(t, err)

	type hop struct{ from, to domain.Station }
	exists := make(map[hop]bool)
	for _, c := range conns {
		exists[hop{c.Origin, c.Destination}] = true
	}

	for _, origin := range []string{"A", "B", "E"} {
		res := scan(t, records, origin, "A", "06:00")
		for s := range network.BuildStations(records) {
			if !res.Reached(s) {
				continue
			}
			path, err := res.Path(s)
			require.NoError(t, err)
			assert.Equal(t, domain.Station(origin), path[0])
			assert.Equal(t, s, path[len(path)-1])

			for i := 0; i+1 < len(path); i++ {
				assert.True(t, exists[hop{path[i], path[i+1]}], "no connection %s -> %s", path[i], path[i+1])
			}

			legs, err := res.Legs(s)
			require.NoError(t, err)
			prev := res.Departure()
			for _, leg := range legs {
				arr := mustTime(t, leg.Arrival)
				assert.False(t, arr.Before(prev), "arrivals decrease along %v", path)
				prev = arr
			}
		}
	}
}

func TestScanStableTieBreakPredecessor(t *testing.T) {
	base := []domain.Record{
		rec("O", "P", "07:00", "07:10"),
		rec("O", "Q", "07:00", "07:10"),
	}
	viaP := rec("P", "Y", "08:00", "08:30")
	viaQ := rec("Q", "Y", "08:00", "08:30")

	res := scan(t, append(append([]domain.Record{}, base...), viaP, viaQ), "O", "Y", "06:00")
	pred, ok := res.Predecessor("Y")
	require.True(t, ok)
	assert.Equal(t, domain.Station("P"), pred)

	res = scan(t, append(append([]domain.Record{}, base...), viaQ, viaP), "O", "Y", "06:00")
	pred, ok = res.Predecessor("Y")
	require.True(t, ok)
	assert.Equal(t, domain.Station("Q"), pred)
}

func TestScanStableTieBreakReachability(t *testing.T) {
	xy := rec("X", "Y", "08:00", "08:00")
	yz := rec("Y", "Z", "08:00", "08:05")

	res := scan(t, []domain.Record{xy, yz}, "X", "Z", "08:00")
	assert.Equal(t, "08:05", domain.FormatTime(res.Arrival("Z")))

	res = scan(t, []domain.Record{yz, xy}, "X", "Z", "08:00")
	assert.False(t, res.Reached("Z"))
}

func TestScanOriginKeepsNoPredecessor(t *testing.T) {
	// The second record arrives at the origin before its own departure.
	res := scan(t, []domain.Record{
		rec("A", "B", "06:00", "06:10"),
		rec("B", "A", "06:20", "05:00"),
	}, "A", "B", "06:00")

	_, ok := res.Predecessor("A")
	assert.False(t, ok)
	assert.Equal(t, domain.At(360), res.Arrival("A"))

	path, err := res.Path("B")
	require.NoError(t, err)
	assert.Equal(t, []domain.Station{"A", "B"}, path)
}

func TestScanSkipsUnreachableArrival(t *testing.T) {
	res := scan(t, []domain.Record{
		rec("A", "B", "06:00", "inf"),
	}, "A", "B", "06:00")
	assert.False(t, res.Reached("B"))
}

func TestScanBoardsAnyReachedOrigin(t *testing.T) {
	// Boarding only requires the origin to have been reached at all,
	// not reached by the connection's departure.
	res := scan(t, []domain.Record{
		rec("A", "B", "06:00", "07:00"),
		rec("B", "C", "06:30", "06:45"),
	}, "A", "C", "06:00")

	assert.Equal(t, "06:45", domain.FormatTime(res.Arrival("C")))
	pred, ok := res.Predecessor("C")
	require.True(t, ok)
	assert.Equal(t, domain.Station("B"), pred)
}

func TestPathReparentedStationBreaksChain(t *testing.T) {
	// C is reached from B, then B is improved by a hop from C, so each
	// is the other's predecessor. Every row departs before it arrives.
	res := scan(t, []domain.Record{
		rec("A", "B", "06:00", "07:00"),
		rec("B", "C", "06:10", "06:50"),
		rec("C", "B", "06:20", "06:30"),
	}, "A", "C", "06:00")

	assert.True(t, res.Reached("C"))
	assert.Equal(t, "06:50", domain.FormatTime(res.Arrival("C")))
	assert.Equal(t, "06:30", domain.FormatTime(res.Arrival("B")))

	_, err := res.Path("C")
	assert.ErrorIs(t, err, ErrBrokenPredecessorChain)
	_, err = res.Legs("C")
	assert.ErrorIs(t, err, ErrBrokenPredecessorChain)

	path, err := res.Path("A")
	require.NoError(t, err)
	assert.Equal(t, []domain.Station{"A"}, path)
}
