// Package analytics is the entry point callers use to compute heatmaps, rates
// and trends. It binds the attribution model and the computation cache to the
// pure calculators and encodes every parameter into the cache key.
package analytics

import (
	"log/slog"
	"time"

	"github.com/claude/liftmap/internal/memo"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/rates"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// Resolution is the granularity "now" is settled to before it enters a cache
// key, so requests within the same minute share entries.
const Resolution = time.Minute

// Engine computes analytics over datasets. It is safe for concurrent use.
type Engine struct {
	model *muscles.Model
	cache *memo.Cache
	trend trend.Config
	log   *slog.Logger
}

// New creates an Engine. cache may be nil to disable memoization.
func New(model *muscles.Model, cache *memo.Cache, trendCfg trend.Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{model: model, cache: cache, trend: trendCfg, log: log}
}

// Model returns the attribution model the engine was built with.
func (e *Engine) Model() *muscles.Model {
	return e.model
}

// Settle truncates a wall-clock instant to Resolution. Callers deriving
// windows from the current time settle it first.
func (e *Engine) Settle(now time.Time) time.Time {
	return now.Truncate(Resolution)
}

// key joins parts with the dataset fingerprint so datasets of different users
// hold separate entries.
func key(ds Dataset, parts ...any) string {
	return memo.Key(append(parts, ds.ref)...)
}

// Dataset is an immutable slice of a user's logged sets together with its
// content fingerprint and first logged date.
type Dataset struct {
	sets     []models.LoggedSet
	ref      memo.Fingerprint
	allTime  time.Time
	hasDated bool
}

// NewDataset fingerprints sets. The caller must not modify sets afterwards.
func NewDataset(sets []models.LoggedSet) Dataset {
	ds := Dataset{sets: sets, ref: memo.FingerprintSets(sets)}
	ds.allTime, ds.hasDated = rates.EarliestDate(sets)
	return ds
}

// Sets returns the dataset's sets.
func (d Dataset) Sets() []models.LoggedSet { return d.sets }

// Ref returns the content fingerprint.
func (d Dataset) Ref() memo.Fingerprint { return d.ref }

// AllTimeStart returns the date of the first dated set, or the zero time.
func (d Dataset) AllTimeStart() time.Time { return d.allTime }

var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// Range bounds a computation. A zero Start or End leaves that side open; a
// fully open range also includes undated sets.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) open() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) sets(all []models.LoggedSet) []models.LoggedSet {
	if r.open() {
		return all
	}
	end := r.End
	if end.IsZero() {
		end = farFuture
	}
	return rates.Between(all, r.Start, end, true)
}

// Heatmap returns the muscle volume view for the range.
func (e *Engine) Heatmap(ds Dataset, r Range, mode volume.Mode) volume.Heatmap {
	k := key(ds, "heatmap", mode, r.Start, r.End)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() volume.Heatmap {
		return volume.Aggregate(r.sets(ds.sets), e.model).View(mode)
	})
}

// HeatmapRows returns the volume listing for the range, largest first.
func (e *Engine) HeatmapRows(ds Dataset, r Range, mode volume.Mode) []volume.Row {
	k := key(ds, "rows", mode, r.Start, r.End)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() []volume.Row {
		return volume.Aggregate(r.sets(ds.sets), e.model).Rows(mode)
	})
}

// ExerciseHeatmap returns the muscle view of a single exercise's sets in the range.
func (e *Engine) ExerciseHeatmap(ds Dataset, exercise string, r Range, mode volume.Mode) volume.Heatmap {
	k := key(ds, "exercise-heatmap", muscles.Normalize(exercise), mode, r.Start, r.End)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() volume.Heatmap {
		return volume.ExerciseHeatmap(r.sets(ds.sets), e.model, exercise, mode)
	})
}

// WeeklyRate returns the weekly-normalised set count of the selection in
// [windowStart, now], both settled to Resolution.
func (e *Engine) WeeklyRate(ds Dataset, windowStart, now time.Time, mode volume.Mode, selection []string) float64 {
	windowStart, now = e.Settle(windowStart), e.Settle(now)
	k := key(ds, "weekly-rate", mode, windowStart, now, selection)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() float64 {
		return rates.WeeklyRate(ds.sets, e.model, windowStart, now, mode, selection)
	})
}

// Delta compares the last windowDays days before now with the window before
// that, clamped to the dataset's first logged set. now is settled to
// Resolution. It returns nil when there is nothing to compare against.
func (e *Engine) Delta(ds Dataset, windowDays int, now time.Time, mode volume.Mode, selection []string) *rates.Delta {
	now = e.Settle(now)
	k := key(ds, "delta", mode, windowDays, now, ds.allTime, selection)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() *rates.Delta {
		return rates.PeriodDelta(ds.sets, e.model, rates.DeltaParams{
			WindowDays:   windowDays,
			WindowStart:  now.AddDate(0, 0, -windowDays),
			Now:          now,
			AllTimeStart: ds.allTime,
			Mode:         mode,
			Selection:    selection,
		})
	})
}

// Series returns bucketed set counts over the range. An open start begins at
// the first logged set and an open end stops at now, settled to Resolution.
func (e *Engine) Series(ds Dataset, r Range, now time.Time, bucket rates.Bucket, mode volume.Mode, selection []string) []rates.Point {
	if !ds.hasDated {
		return nil
	}
	start, end := r.Start, r.End
	if start.IsZero() {
		start = ds.allTime
	}
	if end.IsZero() {
		end = e.Settle(now)
	}
	k := key(ds, "series", bucket, mode, start, end, selection)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() []rates.Point {
		return rates.Series(ds.sets, e.model, start, end, bucket, mode, selection)
	})
}

// VisibleWindow returns the chart range for a period of periodDays ending at now.
func (e *Engine) VisibleWindow(ds Dataset, periodDays int, now time.Time) Range {
	start, end := rates.VisibleWindow(periodDays, now, ds.allTime)
	return Range{Start: start, End: end}
}

// History returns the exercise's per-session history, oldest first.
func (e *Engine) History(ds Dataset, exercise string) []models.HistoryEntry {
	k := key(ds, "history", muscles.Normalize(exercise))
	return memo.GetOrCompute(e.cache, k, ds.ref, func() []models.HistoryEntry {
		return trend.BuildHistory(ds.sets, exercise)
	})
}

// Trend classifies a single exercise.
func (e *Engine) Trend(ds Dataset, exercise string, mode trend.Mode) models.TrendResult {
	k := key(ds, "trend", muscles.Normalize(exercise), mode)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() models.TrendResult {
		res := trend.Classify(trend.BuildHistory(ds.sets, exercise), e.model.IsBodyweight(exercise), e.trend, mode)
		res.Exercise = exercise
		return res
	})
}

// Trends classifies every exercise in the dataset.
func (e *Engine) Trends(ds Dataset, mode trend.Mode) map[string]models.TrendResult {
	k := key(ds, "trends", mode)
	return memo.GetOrCompute(e.cache, k, ds.ref, func() map[string]models.TrendResult {
		return trend.ClassifyAll(ds.sets, e.model, e.trend, mode)
	})
}

// MuscleGroups lists every group with its parts, plus the standalone parts
// under the empty group name.
func (e *Engine) MuscleGroups() map[string][]string {
	out := make(map[string][]string)
	for _, p := range e.model.Parts() {
		g, _ := e.model.GroupFor(p)
		out[string(g)] = append(out[string(g)], string(p))
	}
	return out
}

// ClearCache drops every memoized result, typically after new data is ingested.
func (e *Engine) ClearCache() {
	e.cache.Clear()
	e.log.Info("analytics cache cleared")
}

// CacheStats reports cache usage.
func (e *Engine) CacheStats() memo.Stats {
	return e.cache.Stats()
}
