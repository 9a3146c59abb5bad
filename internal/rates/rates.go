// Package rates computes weekly-normalised training volume over date windows,
// period-over-period deltas and bucketed series for charts.
package rates

import (
	"math"
	"time"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/volume"
)

// Direction is the sign of a period delta.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// Delta compares the requested window with the window of equal length before it.
type Delta struct {
	Current      float64   `json:"current"`
	Previous     float64   `json:"previous"`
	DeltaPercent float64   `json:"delta_percent"`
	Direction    Direction `json:"direction"`
}

// Between returns the dated sets inside [start, end], or [start, end) when
// inclusiveEnd is false. Sets without a parsed date are always excluded.
func Between(sets []models.LoggedSet, start, end time.Time, inclusiveEnd bool) []models.LoggedSet {
	var out []models.LoggedSet
	for _, s := range sets {
		if s.Date == nil || s.Date.Before(start) {
			continue
		}
		if s.Date.After(end) || (!inclusiveEnd && s.Date.Equal(end)) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// EarliestDate returns the date of the first dated set.
func EarliestDate(sets []models.LoggedSet) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, s := range sets {
		if s.Date == nil {
			continue
		}
		if !found || s.Date.Before(earliest) {
			earliest = *s.Date
			found = true
		}
	}
	return earliest, found
}

// WeeklyRate is the weighted set count inside [windowStart, now] for the
// selection, divided by max(1, days/7) and rounded to one decimal.
func WeeklyRate(sets []models.LoggedSet, m *muscles.Model, windowStart, now time.Time, mode volume.Mode, selection []string) float64 {
	return rate(sets, m, windowStart, now, true, mode, selection)
}

func rate(sets []models.LoggedSet, m *muscles.Model, start, end time.Time, inclusiveEnd bool, mode volume.Mode, selection []string) float64 {
	total := volume.Aggregate(Between(sets, start, end, inclusiveEnd), m).Sum(mode, selection)
	weeks := math.Max(1, end.Sub(start).Hours()/24/7)
	return round1(total / weeks)
}

// DeltaParams bounds a period comparison. AllTimeStart is the user's first
// logged set; neither window may reach before it. A zero AllTimeStart disables
// clamping.
type DeltaParams struct {
	WindowDays   int
	WindowStart  time.Time
	Now          time.Time
	AllTimeStart time.Time
	Mode         volume.Mode
	Selection    []string
}

// PeriodDelta compares the weekly rate of [WindowStart, Now] with the preceding
// window [WindowStart-WindowDays, WindowStart). It returns nil when the previous
// rate is zero: the percentage change is undefined, not zero or infinite.
func PeriodDelta(sets []models.LoggedSet, m *muscles.Model, p DeltaParams) *Delta {
	windowStart := clamp(p.WindowStart, p.AllTimeStart)
	current := rate(sets, m, windowStart, p.Now, true, p.Mode, p.Selection)

	previousStart := clamp(windowStart.AddDate(0, 0, -p.WindowDays), p.AllTimeStart)
	if !previousStart.Before(windowStart) {
		return nil
	}
	previous := rate(sets, m, previousStart, windowStart, false, p.Mode, p.Selection)
	if previous == 0 {
		return nil
	}

	pct := round1((current - previous) / previous * 100)
	d := &Delta{Current: current, Previous: previous, DeltaPercent: pct, Direction: DirectionFlat}
	switch {
	case pct > 0:
		d.Direction = DirectionUp
	case pct < 0:
		d.Direction = DirectionDown
	}
	return d
}

// VisibleWindow is the range a chart shows for a period: twice the period so
// the current and previous windows sit side by side, never reaching before
// allTimeStart.
func VisibleWindow(periodDays int, now, allTimeStart time.Time) (start, end time.Time) {
	return clamp(now.AddDate(0, 0, -2*periodDays), allTimeStart), now
}

func clamp(t, floor time.Time) time.Time {
	if !floor.IsZero() && t.Before(floor) {
		return floor
	}
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
