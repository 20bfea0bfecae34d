package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csa/internal/domain"
	"csa/internal/query"
)

// memoryRedis implements the few commands JourneyCache uses.
type memoryRedis struct {
	redis.UniversalClient
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	v, ok := m.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *memoryRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	b, ok := value.([]byte)
	if !ok {
		cmd.SetErr(errors.New("unexpected value type"))
		return cmd
	}
	m.data[key] = string(b)
	m.ttls[key] = expiration
	cmd.SetVal("OK")
	return cmd
}

func (m *memoryRedis) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJourneyCacheRoundTrip(t *testing.T) {
	mem := newMemoryRedis()
	c := newJourneyCache(mem, time.Hour, discardLogger())
	ctx := context.Background()

	j, err := c.GetJourney(ctx, "journey:x:A:D:06:00")
	require.NoError(t, err)
	assert.Nil(t, j)

	want := &domain.Journey{
		Status:      domain.JourneyFound,
		Origin:      "A",
		Destination: "D",
		Departure:   "06:00",
		Arrival:     "08:01",
		Path:        []domain.Station{"A", "B", "C", "D"},
	}
	require.NoError(t, c.SetJourney(ctx, "journey:x:A:D:06:00", want))
	assert.Equal(t, time.Hour, mem.ttls["csa:journey:x:A:D:06:00"])

	got, err := c.GetJourney(ctx, "journey:x:A:D:06:00")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJourneyCacheCorruptEntry(t *testing.T) {
	mem := newMemoryRedis()
	mem.data["csa:bad"] = "plain text"
	c := newJourneyCache(mem, time.Hour, discardLogger())

	_, err := c.GetJourney(context.Background(), "bad")
	assert.ErrorContains(t, err, "decompress")
}

type plannerFunc func(ctx context.Context, q query.Query) (*domain.Journey, error)

func (f plannerFunc) Run(ctx context.Context, q query.Query) (*domain.Journey, error) {
	return f(ctx, q)
}

func TestJourneyWarmer(t *testing.T) {
	mem := newMemoryRedis()
	c := newJourneyCache(mem, time.Hour, discardLogger())

	planner := plannerFunc(func(ctx context.Context, q query.Query) (*domain.Journey, error) {
		if q.Origin == "Z" {
			return nil, errors.New("unknown station")
		}
		return &domain.Journey{Status: domain.JourneyFound, Origin: domain.Station(q.Origin), Arrival: "08:01"}, nil
	})
	queries := []query.Query{
		{Origin: "A", Destination: "D", Departure: "6:00"},
		{Origin: "Z", Destination: "D", Departure: "06:00"},
	}

	w := NewJourneyWarmer(c, planner, queries, discardLogger())
	assert.Equal(t, 1, w.Warm(context.Background(), "fp"))

	j, err := c.GetJourney(context.Background(), KeyJourney("fp", "A", "D", "06:00"))
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, "08:01", j.Arrival)
}

func TestParseWarmQueries(t *testing.T) {
	queries, err := ParseWarmQueries([]string{"A>D@06:00", " Main>St > Airport @ 07:45"})
	require.NoError(t, err)
	assert.Equal(t, []query.Query{
		{Origin: "A", Destination: "D", Departure: "06:00"},
		{Origin: "Main>St", Destination: "Airport", Departure: "07:45"},
	}, queries)

	for _, bad := range []string{"A>D", "AD@06:00", ">D@06:00", "A>D@"} {
		_, err := ParseWarmQueries([]string{bad})
		assert.Error(t, err, bad)
	}
}
