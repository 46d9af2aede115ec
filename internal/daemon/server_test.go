package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

// seededService returns a service whose cache holds a short history for
// #2PP: two wins and two losses at 10:00-10:15 on day0, 7000 trophies.
func seededService(t *testing.T) *Service {
	t.Helper()
	fetcher := &stubFetcher{}
	fetcher.set(7000,
		result(at(10, 15), false),
		result(at(10, 10), false),
		result(at(10, 5), true),
		result(at(10, 0), true),
	)
	s := newTestService(t, fetcher, &clock{now: at(12, 0)})
	s.PollOnce(context.Background())
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	rec := get(t, New(Config{Log: zerolog.Nop()}).Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandler_RequestIDPropagates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	New(Config{}).Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestHandler_StatusAndEvents(t *testing.T) {
	h := seededService(t).Handler()

	rec := get(t, h, "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, []string{"#2PP"}, status.Tags)
	assert.Equal(t, 4, status.Players["#2PP"].TodayBattles)

	rec = get(t, h, "/v1/events?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)

	rec = get(t, h, "/v1/events?limit=soon")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_PlayerRoutes(t *testing.T) {
	h := seededService(t).Handler()

	t.Run("daily", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/daily")
		require.Equal(t, http.StatusOK, rec.Code)
		var daily model.DailySummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &daily))
		assert.Equal(t, 4, daily.Battles)
		assert.Equal(t, 2, daily.Wins)
		assert.Equal(t, 0, daily.TrophyDelta)
		assert.Equal(t, 50, daily.WinRate)
		assert.Len(t, daily.Sessions, 1)
	})

	t.Run("encoded tag", func(t *testing.T) {
		rec := get(t, h, "/v1/players/%232pp/tilt")
		require.Equal(t, http.StatusOK, rec.Code)
		var tilt model.TiltState
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tilt))
		assert.Equal(t, 4, tilt.WindowSize)
		require.NotNil(t, tilt.HoursSinceLastBattle)
	})

	t.Run("progression anchors to trophies", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/progression")
		require.Equal(t, http.StatusOK, rec.Code)
		var points []model.ProgressionPoint
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &points))
		require.Len(t, points, 1)
		assert.Equal(t, 7000, points[0].Trophies)
	})

	t.Run("battles with limit", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/battles?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)
		var battles []model.Battle
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &battles))
		require.Len(t, battles, 2)
		assert.Equal(t, "20240115T101500.000Z", battles[0].BattleTime)
	})

	t.Run("sessions pushes", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/sessions?range=today&pushes=true")
		require.Equal(t, http.StatusOK, rec.Code)
		var sessions []model.Session
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
		require.Len(t, sessions, 1)
		assert.Equal(t, 4, sessions[0].BattleCount)
	})

	t.Run("summary", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/summary?range=week")
		require.Equal(t, http.StatusOK, rec.Code)
		var sum model.RangeSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
		assert.Equal(t, "week", sum.Range)
		assert.Equal(t, 4, sum.Battles)
		assert.Equal(t, 2, sum.LongestLossStreak)
	})

	t.Run("chart", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/chart")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
		assert.Contains(t, rec.Body.String(), "S1")
	})

	t.Run("bad range", func(t *testing.T) {
		rec := get(t, h, "/v1/players/2PP/sessions?range=decade")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Message, "decade")
	})

	t.Run("unknown player", func(t *testing.T) {
		rec := get(t, h, "/v1/players/9YQ/daily")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_PlayerRoutesWithoutCache(t *testing.T) {
	rec := get(t, New(Config{}).Handler(), "/v1/players/2PP/daily")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandler_CORSPreflight(t *testing.T) {
	h := New(Config{AllowedOrigins: []string{"http://localhost:3000"}}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteSSE(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSSE(rec, Event{ID: 4, Type: EventTiltAlert, Tag: "#2PP"})

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: 4\nevent: tilt_alert\ndata: {"))
	assert.True(t, strings.HasSuffix(body, "}\n\n"))
}

func TestRangeDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rg, ok := rangeParam(rec, req, pipeline.RangeSeason)
	assert.True(t, ok)
	assert.Equal(t, pipeline.RangeSeason, rg)
}
