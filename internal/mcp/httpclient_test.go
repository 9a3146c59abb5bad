package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/rates"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.EscapedPath()]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.EscapedPath())
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// TestHeatmapParams verifies day windows take precedence over dates and the
// heatmap JSON decodes.
func TestHeatmapParams(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/heatmap": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "group", q.Get("mode"))
			if q.Get("days") != "" {
				assert.Equal(t, "14", q.Get("days"))
				assert.Empty(t, q.Get("start"))
			} else {
				assert.Equal(t, "2026-01-01T00:00:00Z", q.Get("start"))
				assert.Empty(t, q.Get("end"))
			}
			writeTestJSON(t, w, volume.Heatmap{Mode: volume.ModeGroup, Volumes: map[string]float64{"Chest": 6}, MaxVolume: 6})
		},
	})
	client := NewHTTPClient(ts.URL + "/")

	h, err := client.Heatmap(context.Background(), 1, HeatmapQuery{Days: 14, Mode: volume.ModeGroup, Start: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 6.0, h.Volumes["Chest"])

	_, err = client.Heatmap(context.Background(), 1, HeatmapQuery{Mode: volume.ModeGroup, Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
}

// TestRateEndpoints verifies weekly rate and delta requests carry the window and selection.
func TestRateEndpoints(t *testing.T) {
	check := func(t *testing.T, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "28", q.Get("days"))
		assert.Equal(t, "muscle", q.Get("mode"))
		assert.Equal(t, "chest-left,lats", q.Get("muscles"))
	}
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/rates/weekly": func(w http.ResponseWriter, r *http.Request) {
			check(t, r)
			writeTestJSON(t, w, analytics.WeeklyRateView{WindowDays: 28, SetsPerWeek: 9.5})
		},
		"/api/v1/rates/delta": func(w http.ResponseWriter, r *http.Request) {
			check(t, r)
			writeTestJSON(t, w, analytics.DeltaView{WindowDays: 28, Delta: &rates.Delta{Current: 10, Previous: 8, DeltaPercent: 25, Direction: rates.DirectionUp}})
		},
	})
	client := NewHTTPClient(ts.URL)
	sel := []string{"chest-left", "lats"}

	rate, err := client.WeeklyRate(context.Background(), 1, 28, volume.ModeMuscle, sel)
	require.NoError(t, err)
	assert.Equal(t, 9.5, rate.SetsPerWeek)

	delta, err := client.Delta(context.Background(), 1, 28, volume.ModeMuscle, sel)
	require.NoError(t, err)
	require.NotNil(t, delta.Delta)
	assert.Equal(t, rates.DirectionUp, delta.Delta.Direction)
}

// TestExerciseEndpoints verifies exercise names are path-escaped and a 404
// history means no history.
func TestExerciseEndpoints(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises/Bench%20Press/trend": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "reactive", r.URL.Query().Get("mode"))
			writeTestJSON(t, w, models.TrendResult{Exercise: "Bench Press", Status: models.TrendOverload})
		},
		"/api/v1/exercises/Bench%20Press/history": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.HistoryEntry{{WeightKg: 100, Reps: 5}})
		},
		"/api/v1/exercises/Deadlift/history": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"no working sets logged for Deadlift"}`))
		},
	})
	client := NewHTTPClient(ts.URL)

	res, err := client.ExerciseTrend(context.Background(), 1, "Bench Press", trend.ModeReactive)
	require.NoError(t, err)
	assert.Equal(t, models.TrendOverload, res.Status)

	history, err := client.ExerciseHistory(context.Background(), 1, "Bench Press")
	require.NoError(t, err)
	require.Len(t, history, 1)

	history, err = client.ExerciseHistory(context.Background(), 1, "Deadlift")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestTrendsAndMuscles verifies the map responses decode.
func TestTrendsAndMuscles(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/trends": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string]models.TrendResult{"Squat": {Status: models.TrendStagnant}})
		},
		"/api/v1/muscles": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, map[string][]string{"Chest": {"chest-left", "chest-right"}})
		},
	})
	client := NewHTTPClient(ts.URL)

	trends, err := client.Trends(context.Background(), 1, trend.ModeStable)
	require.NoError(t, err)
	assert.Equal(t, models.TrendStagnant, trends["Squat"].Status)

	groups, err := client.MuscleGroups(context.Background())
	require.NoError(t, err)
	assert.Len(t, groups["Chest"], 2)
}

// TestHTTPClientErrorStatus verifies non-200 responses are surfaced as StatusError.
func TestHTTPClientErrorStatus(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/trends": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"boom"}`))
		},
	})
	client := NewHTTPClient(ts.URL)

	_, err := client.Trends(context.Background(), 1, trend.ModeStable)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Contains(t, err.Error(), "boom")
}
