// Package setclass holds the predicates every volume, PR and trend calculation
// filters logged sets through.
package setclass

import "github.com/claude/liftmap/internal/models"

// IsWarmup reports whether the set is a warm-up set.
func IsWarmup(s models.LoggedSet) bool {
	return s.Kind == models.SetWarmup
}

// IsUnilateral reports whether the set was performed one side at a time.
func IsUnilateral(s models.LoggedSet) bool {
	return s.Kind == models.SetLeft || s.Kind == models.SetRight
}

// IsWorking reports whether the set counts toward volume and progression.
func IsWorking(s models.LoggedSet) bool {
	return !IsWarmup(s)
}

// Increment is the base volume a working set contributes: one for a bilateral
// set, half for a single side.
func Increment(s models.LoggedSet) float64 {
	if IsUnilateral(s) {
		return 0.5
	}
	return 1.0
}

// Working returns the non-warm-up sets, preserving order.
func Working(sets []models.LoggedSet) []models.LoggedSet {
	out := make([]models.LoggedSet, 0, len(sets))
	for _, s := range sets {
		if IsWorking(s) {
			out = append(out, s)
		}
	}
	return out
}

// Dated returns the sets that carry a parsed date, preserving order.
func Dated(sets []models.LoggedSet) []models.LoggedSet {
	out := make([]models.LoggedSet, 0, len(sets))
	for _, s := range sets {
		if s.Date != nil {
			out = append(out, s)
		}
	}
	return out
}
