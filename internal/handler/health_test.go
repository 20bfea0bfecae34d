package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csa/internal/store"
)

type readyFlag bool

func (r readyFlag) IsReady() bool { return bool(r) }

func TestHealthz(t *testing.T) {
	h := NewHealthHandler(readyFlag(false), store.NewTimetableStore())

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(readyFlag(false), store.NewTimetableStore()).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(readyFlag(true), loadedStore(t)).Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Ready)
	assert.Equal(t, 14, resp.Connections)
}
