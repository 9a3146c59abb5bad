// Package trend turns an exercise's logged sets into a per-session history and
// classifies its progression as new, stagnant, overload or regression.
package trend

import (
	"sort"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/setclass"
)

// OneRepMax estimates a one-rep max with the Epley formula.
func OneRepMax(weightKg float64, reps int) float64 {
	switch {
	case reps <= 0 || weightKg <= 0:
		return 0
	case reps == 1:
		return weightKg
	}
	return weightKg * (1 + float64(reps)/30)
}

type indexedSet struct {
	models.LoggedSet
	pos int
}

// chronological returns the dated working sets in a stable order: date, then
// set index, then position in the input.
func chronological(sets []models.LoggedSet, keep func(models.LoggedSet) bool) []indexedSet {
	var out []indexedSet
	for i, s := range sets {
		if s.Date == nil || !setclass.IsWorking(s) || !keep(s) {
			continue
		}
		out = append(out, indexedSet{LoggedSet: s, pos: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(*b.Date) {
			return a.Date.Before(*b.Date)
		}
		if a.SetIndex != b.SetIndex {
			return a.SetIndex < b.SetIndex
		}
		return a.pos < b.pos
	})
	return out
}

// better reports whether s beats the current best set of a session.
func better(s, best models.LoggedSet) bool {
	e, b := OneRepMax(s.WeightKg, s.Reps), OneRepMax(best.WeightKg, best.Reps)
	if e != b {
		return e > b
	}
	return s.Reps > best.Reps
}

// BuildHistory returns one entry per session for the exercise, oldest first.
// Each entry describes the session's best working set by estimated one-rep max.
// Warm-ups and undated sets are ignored.
func BuildHistory(sets []models.LoggedSet, exercise string) []models.HistoryEntry {
	key := muscles.Normalize(exercise)
	ordered := chronological(sets, func(s models.LoggedSet) bool {
		return muscles.Normalize(s.ExerciseName) == key
	})

	index := make(map[string]int)
	var bests []models.LoggedSet
	var entries []models.HistoryEntry
	for _, s := range ordered {
		sk := s.SessionKey()
		i, ok := index[sk]
		if !ok {
			index[sk] = len(entries)
			entries = append(entries, models.HistoryEntry{Date: *s.Date, SessionKey: sk})
			bests = append(bests, s.LoggedSet)
			i = len(entries) - 1
		} else if better(s.LoggedSet, bests[i]) {
			bests[i] = s.LoggedSet
		}
		if s.IsPR {
			entries[i].IsPR = true
		}
	}

	for i, b := range bests {
		entries[i].WeightKg = b.WeightKg
		entries[i].Reps = b.Reps
		entries[i].OneRepMax = OneRepMax(b.WeightKg, b.Reps)
		entries[i].Volume = b.WeightKg * float64(b.Reps)
		entries[i].Side = b.Side()
	}
	return entries
}

// NewestFirst returns a reversed copy of history for display.
func NewestFirst(history []models.HistoryEntry) []models.HistoryEntry {
	out := make([]models.HistoryEntry, len(history))
	for i, h := range history {
		out[len(history)-1-i] = h
	}
	return out
}

// MarkPersonalRecords returns a copy of sets with IsPR set on every working set
// whose estimated one-rep max beats the best earlier set of the same exercise.
// The first working set only sets the baseline. Existing PR flags are kept.
func MarkPersonalRecords(sets []models.LoggedSet) []models.LoggedSet {
	out := make([]models.LoggedSet, len(sets))
	copy(out, sets)

	best := make(map[string]float64)
	for _, s := range chronological(sets, func(models.LoggedSet) bool { return true }) {
		key := muscles.Normalize(s.ExerciseName)
		e := OneRepMax(s.WeightKg, s.Reps)
		if e == 0 {
			continue
		}
		cur, seen := best[key]
		if !seen {
			best[key] = e
			continue
		}
		if e > cur {
			best[key] = e
			out[s.pos].IsPR = true
		}
	}
	return out
}
