package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/rates"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// dataset loads the caller's sets, writing a 500 on failure.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (analytics.Dataset, bool) {
	ds, err := s.engine.Load(r.Context(), s.store, userIDFromContext(r))
	if err != nil {
		s.log.Error("loading dataset", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return analytics.Dataset{}, false
	}
	return ds, true
}

func (s *Server) viewMode(r *http.Request) (volume.Mode, error) {
	if v := r.URL.Query().Get("mode"); v != "" {
		return volume.ParseMode(v)
	}
	return s.mode, nil
}

func (s *Server) trendModeParam(r *http.Request) (trend.Mode, error) {
	if v := r.URL.Query().Get("mode"); v != "" {
		return trend.ParseMode(v)
	}
	return s.trendMode, nil
}

// heatmapRange resolves ?days= to the last N days ending now, otherwise
// ?start=&end=. No parameters means all time.
func (s *Server) heatmapRange(r *http.Request) (analytics.Range, error) {
	if r.URL.Query().Get("days") != "" {
		days, err := parseDays(r, 7)
		if err != nil {
			return analytics.Range{}, err
		}
		now := s.clock()
		return analytics.Range{Start: now.AddDate(0, 0, -days), End: now}, nil
	}
	start, end, err := parseOptionalRange(r)
	return analytics.Range{Start: start, End: end}, err
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rng, err := s.heatmapRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Heatmap(ds, rng, mode))
}

func (s *Server) handleHeatmapRows(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rng, err := s.heatmapRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	rows := s.engine.HeatmapRows(ds, rng, mode)
	if rows == nil {
		rows = []volume.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleExerciseHeatmap(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, errors.New("name parameter required"))
		return
	}
	mode, err := s.viewMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rng, err := s.heatmapRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.ExerciseHeatmap(ds, name, rng, mode))
}

func (s *Server) handleWeeklyRate(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	days, err := parseDays(r, 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	now := s.clock()
	start := now.AddDate(0, 0, -days)
	sel := analytics.ParseSelection(r.URL.Query().Get("muscles"))
	writeJSON(w, http.StatusOK, analytics.WeeklyRateView{
		Start:       start,
		End:         now,
		WindowDays:  days,
		Mode:        mode,
		Selection:   sel,
		SetsPerWeek: s.engine.WeeklyRate(ds, start, now, mode, sel),
	})
}

func (s *Server) handleDelta(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	days, err := parseDays(r, 7)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	sel := analytics.ParseSelection(r.URL.Query().Get("muscles"))
	writeJSON(w, http.StatusOK, analytics.DeltaView{
		WindowDays: days,
		Mode:       mode,
		Selection:  sel,
		Delta:      s.engine.Delta(ds, days, s.clock(), mode, sel),
	})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	mode, err := s.viewMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	bucket, err := rates.ParseBucket(r.URL.Query().Get("bucket"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	start, end, err := parseOptionalRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	period := 0
	if v := r.URL.Query().Get("period"); v != "" {
		if period, err = strconv.Atoi(v); err != nil || period <= 0 || period > maxWindowDays {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid period %q: want 1-3650", v))
			return
		}
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	now := s.clock()
	if period > 0 {
		// The chart spans the current period and the one it is compared against.
		rng := s.engine.VisibleWindow(ds, period, now)
		start, end = rng.Start, rng.End
	}
	spanStart, spanEnd := start, end
	if spanStart.IsZero() {
		spanStart = ds.AllTimeStart()
	}
	if spanEnd.IsZero() {
		spanEnd = now
	}
	if !spanStart.IsZero() && spanEnd.Sub(spanStart) > maxWindowDays*24*time.Hour {
		writeError(w, http.StatusBadRequest, fmt.Errorf("series spans more than %d days; narrow start/end", maxWindowDays))
		return
	}
	sel := analytics.ParseSelection(r.URL.Query().Get("muscles"))
	points := s.engine.Series(ds, analytics.Range{Start: start, End: end}, now, bucket, mode, sel)
	if points == nil {
		points = []rates.Point{}
	}
	start, end = spanStart, spanEnd
	writeJSON(w, http.StatusOK, analytics.SeriesView{
		Start:     start,
		End:       end,
		Bucket:    bucket,
		Mode:      mode,
		Selection: sel,
		Points:    points,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	history := s.engine.History(ds, name)
	if len(history) == 0 {
		writeError(w, http.StatusNotFound, errors.New("no working sets logged for "+name))
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	mode, err := s.trendModeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Trend(ds, name, mode))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	mode, err := s.trendModeParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	trends := s.engine.Trends(ds, mode)
	if trends == nil {
		trends = map[string]models.TrendResult{}
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleMuscleGroups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.MuscleGroups())
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.CacheStats())
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearCache()
	writeJSON(w, http.StatusOK, s.engine.CacheStats())
}
