package setclass

import (
	"testing"
	"time"

	"github.com/claude/liftmap/internal/models"
	"github.com/stretchr/testify/assert"
)

// TestPredicates verifies warm-up, unilateral and working classification per set kind.
func TestPredicates(t *testing.T) {
	tests := []struct {
		kind       models.SetKind
		warmup     bool
		unilateral bool
		increment  float64
	}{
		{models.SetNormal, false, false, 1.0},
		{models.SetWarmup, true, false, 1.0},
		{models.SetLeft, false, true, 0.5},
		{models.SetRight, false, true, 0.5},
		{models.SetDropset, false, false, 1.0},
		{models.SetFailure, false, false, 1.0},
		{"", false, false, 1.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := models.LoggedSet{Kind: tt.kind}
			assert.Equal(t, tt.warmup, IsWarmup(s))
			assert.Equal(t, !tt.warmup, IsWorking(s))
			assert.Equal(t, tt.unilateral, IsUnilateral(s))
			assert.Equal(t, tt.increment, Increment(s))
		})
	}
}

// TestWorkingDropsWarmups verifies warm-ups are filtered and order is kept.
func TestWorkingDropsWarmups(t *testing.T) {
	sets := []models.LoggedSet{
		{ExerciseName: "a", Kind: models.SetWarmup},
		{ExerciseName: "b", Kind: models.SetNormal},
		{ExerciseName: "c", Kind: models.SetLeft},
	}
	got := Working(sets)
	assert.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ExerciseName)
	assert.Equal(t, "c", got[1].ExerciseName)
}

// TestDatedDropsUnparsedDates verifies sets without a parsed date are excluded.
func TestDatedDropsUnparsedDates(t *testing.T) {
	d := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	sets := []models.LoggedSet{{ExerciseName: "a", Date: &d}, {ExerciseName: "b"}}
	got := Dated(sets)
	assert.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ExerciseName)
}
