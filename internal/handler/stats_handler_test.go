package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedBlocks int64

func (f fixedBlocks) Blocked() int64 { return int64(f) }

func TestStatsHandler(t *testing.T) {
	s := loadedStore(t)
	before := ServerStats.journeyCount.Load()

	getJourney(newTestJourneyHandler(s), "/v1/journeys?from=A&to=D&departure=06:00")

	rec := httptest.NewRecorder()
	NewStatsHandler(s, fixedBlocks(3)).GetStats(rec, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	var resp StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.GreaterOrEqual(t, resp.Server.JourneyCount, before+1)
	assert.Equal(t, int64(3), resp.Server.RateLimited)
	assert.Equal(t, 14, resp.Timetable.Connections)
	assert.NotEmpty(t, resp.Go.GoVersion)
}
