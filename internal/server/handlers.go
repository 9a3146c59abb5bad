package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftmap/internal/ingest"
	"github.com/claude/liftmap/internal/ingest/alpha"
	"github.com/claude/liftmap/internal/storage"
)

// maxUploadBytes bounds a CSV upload.
const maxUploadBytes = 32 << 20

// maxWindowDays bounds ?days=, ?period= and the span of a series.
const maxWindowDays = 3650

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	uid := userIDFromContext(r)
	start := time.Now()

	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, maxUploadBytes), uid)
	s.logImport(uid, alpha.Source, result, err, int(time.Since(start).Milliseconds()))
	if err != nil {
		s.log.Error("alpha ingest error", "user_id", uid, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetDataStats(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.store.QueryImportLogs(r.Context(), userIDFromContext(r), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.store.ListExercises(r.Context(), userIDFromContext(r))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if exercises == nil {
		exercises = []storage.ExerciseSummary{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

// logImport records an import operation's result to the import_logs table.
func (s *Server) logImport(uid int, source string, result *ingest.Result, importErr error, durationMs int) {
	entry := storage.ImportLog{
		UserID:     uid,
		Source:     source,
		Status:     "success",
		DurationMs: &durationMs,
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	if result != nil {
		entry.SessionsReceived = result.SessionsReceived
		entry.SetsReceived = result.SetsReceived
		entry.SetsInserted = result.SetsInserted
		if meta, err := json.Marshal(map[string]any{
			"sets_replaced": result.SetsReplaced,
			"sets_skipped":  result.SetsSkipped,
			"undated_sets":  result.UndatedSets,
		}); err == nil {
			raw := json.RawMessage(meta)
			entry.Metadata = &raw
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.store.InsertImportLog(ctx, entry); err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseTime accepts RFC 3339 or a bare date. A bare end date covers the whole day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want RFC 3339 or YYYY-MM-DD", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// parseOptionalRange reads start and end; either may be absent.
func parseOptionalRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		if start, err = parseTime(v, false); err != nil {
			return
		}
	}
	if v := q.Get("end"); v != "" {
		if end, err = parseTime(v, true); err != nil {
			return
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		err = errors.New("end is before start")
	}
	return
}

// parseDays reads a positive day count, falling back to def.
func parseDays(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return def, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days <= 0 || days > maxWindowDays {
		return 0, fmt.Errorf("invalid days %q: want 1-3650", v)
	}
	return days, nil
}
