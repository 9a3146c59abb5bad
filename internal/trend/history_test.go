package trend

import (
	"testing"

	"github.com/claude/liftmap/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOneRepMax verifies the Epley estimate and its edge cases.
func TestOneRepMax(t *testing.T) {
	assert.Equal(t, 100.0, OneRepMax(100, 1))
	assert.InDelta(t, 116.67, OneRepMax(100, 5), 0.01)
	assert.Zero(t, OneRepMax(100, 0))
	assert.Zero(t, OneRepMax(0, 12))
}

// TestBuildHistoryBestSetPerSession verifies one entry per session, oldest first,
// holding the best working set.
func TestBuildHistoryBestSetPerSession(t *testing.T) {
	later := session("Bench Press", 3, 80, 5)
	warm := session("Bench Press", 0, 120, 5)
	warm.Kind = models.SetWarmup
	first := session("Bench Press", 0, 60, 8)
	second := session("bench press", 0, 70, 6)
	second.SetIndex = 1
	second.IsPR = true
	undated := models.LoggedSet{ExerciseName: "Bench Press", WeightKg: 200, Reps: 1}
	other := session("Squat", 0, 150, 5)

	h := BuildHistory([]models.LoggedSet{later, warm, first, second, undated, other}, "BENCH PRESS")
	require.Len(t, h, 2)

	assert.Equal(t, *first.Date, h[0].Date)
	assert.Equal(t, 70.0, h[0].WeightKg)
	assert.Equal(t, 6, h[0].Reps)
	assert.Equal(t, 420.0, h[0].Volume)
	assert.True(t, h[0].IsPR)

	assert.Equal(t, 80.0, h[1].WeightKg)
	assert.False(t, h[1].IsPR)

	rev := NewestFirst(h)
	assert.Equal(t, h[1], rev[0])
	assert.Equal(t, h[0], rev[1])
}

// TestBuildHistoryTieBreaksBySetIndex verifies equal maxes keep the earliest set
// by set index, then by input position.
func TestBuildHistoryTieBreaksBySetIndex(t *testing.T) {
	a := session("Row", 0, 50, 10)
	a.SetIndex = 2
	a.Kind = models.SetLeft
	b := session("Row", 0, 50, 10)
	b.SetIndex = 1
	b.Kind = models.SetRight

	h := BuildHistory([]models.LoggedSet{a, b}, "Row")
	require.Len(t, h, 1)
	assert.Equal(t, models.SideRight, h[0].Side)
}

// TestMarkPersonalRecords verifies running-best PR marking per exercise.
func TestMarkPersonalRecords(t *testing.T) {
	sets := []models.LoggedSet{
		session("Bench Press", 2, 65, 5),
		session("Bench Press", 0, 60, 5),
		session("Bench Press", 1, 55, 5),
		session("Squat", 1, 100, 5),
		session("Bench Press", 3, 65, 5),
	}
	sets[2].IsPR = true

	out := MarkPersonalRecords(sets)
	assert.False(t, out[1].IsPR, "first bench set has nothing to beat")
	assert.True(t, out[2].IsPR, "existing flag kept")
	assert.True(t, out[0].IsPR, "new best")
	assert.False(t, out[3].IsPR, "first squat set has nothing to beat")
	assert.False(t, out[4].IsPR, "equal is not a record")

	assert.False(t, sets[0].IsPR, "input untouched")
}
