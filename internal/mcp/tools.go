package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// maxDays bounds window arguments.
const maxDays = 3650

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// optionalRange parses optional start/end strings; empty leaves that side open.
func optionalRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = parseFlexTime(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		if end, err = parseFlexTime(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}

func (h *handlers) volumeMode(req mcp.CallToolRequest) (volume.Mode, error) {
	if v := req.GetString("mode", ""); v != "" {
		return volume.ParseMode(v)
	}
	return h.mode, nil
}

func (h *handlers) trendModeArg(req mcp.CallToolRequest) (trend.Mode, error) {
	if v := req.GetString("trend_mode", ""); v != "" {
		return trend.ParseMode(v)
	}
	return h.trendMode, nil
}

func daysArg(req mcp.CallToolRequest, def int) (int, error) {
	days := req.GetInt("days", def)
	if days <= 0 || days > maxDays {
		return 0, fmt.Errorf("days must be between 1 and %d", maxDays)
	}
	return days, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolGetMuscleHeatmap = mcp.NewTool("get_muscle_heatmap",
	mcp.WithDescription("Working-set volume per muscle over a period. Primary muscles earn a full set (half for unilateral sets), secondary muscles half of that. Returns volumes keyed by body part, muscle group or headless figure id, plus the largest volume for color scaling."),
	mcp.WithString("mode", mcp.Description("View granularity. Defaults to the server's configured mode."), mcp.Enum("muscle", "group", "headless")),
	mcp.WithNumber("days", mcp.Description("Last N days ending now. Overrides start/end.")),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Omit for all time.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Omit for no upper bound.")),
)

var toolGetWeeklyRate = mcp.NewTool("get_weekly_rate",
	mcp.WithDescription("Working sets per week for a selection of muscles over the last N days. Windows shorter than a week are not scaled up."),
	mcp.WithNumber("days", mcp.Description("Window length in days. Defaults to 7.")),
	mcp.WithString("muscles", mcp.Description("Comma-separated muscle groups or body parts (e.g. 'Chest,lats'). Omit for every muscle.")),
	mcp.WithString("mode", mcp.Description("How muscles are keyed."), mcp.Enum("muscle", "group", "headless")),
)

var toolComparePeriods = mcp.NewTool("compare_periods",
	mcp.WithDescription("Compare the weekly set rate of the last N days against the N days before. Returns null delta when there is no earlier data to compare against."),
	mcp.WithNumber("days", mcp.Description("Window length in days. Defaults to 7.")),
	mcp.WithString("muscles", mcp.Description("Comma-separated muscle groups or body parts. Omit for every muscle.")),
	mcp.WithString("mode", mcp.Description("How muscles are keyed."), mcp.Enum("muscle", "group", "headless")),
)

var toolGetExerciseTrend = mcp.NewTool("get_exercise_trend",
	mcp.WithDescription("Classify one exercise's progression as new, overload, stagnant or regression from its per-session best sets. Includes confidence, plateau detection and evidence."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (case-insensitive)")),
	mcp.WithString("trend_mode", mcp.Description("stable compares longer windows, reactive reacts to the last two sessions."), mcp.Enum("stable", "reactive")),
	mcp.WithBoolean("include_history", mcp.Description("Also return the per-session history the trend was computed from.")),
)

var toolListExerciseTrends = mcp.NewTool("list_exercise_trends",
	mcp.WithDescription("Trend classification for every logged exercise, optionally filtered by status."),
	mcp.WithString("trend_mode", mcp.Description("Classification mode."), mcp.Enum("stable", "reactive")),
	mcp.WithString("status", mcp.Description("Only return exercises with this status."), mcp.Enum("new", "overload", "stagnant", "regression")),
)

// --- Tool handlers ---

func (h *handlers) getMuscleHeatmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.volumeMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	q := HeatmapQuery{Mode: mode}
	if req.GetInt("days", 0) != 0 {
		if q.Days, err = daysArg(req, 0); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		q.Start, q.End, err = optionalRange(req.GetString("start", ""), req.GetString("end", ""))
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
	}

	heatmap, err := h.ds.Heatmap(ctx, UserIDFromContext(ctx), q)
	if err != nil {
		h.log.Error("heatmap query", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(heatmap)
}

func (h *handlers) getWeeklyRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.volumeMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := daysArg(req, 7)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel := analytics.ParseSelection(req.GetString("muscles", ""))

	view, err := h.ds.WeeklyRate(ctx, UserIDFromContext(ctx), days, mode, sel)
	if err != nil {
		h.log.Error("weekly rate query", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view)
}

func (h *handlers) comparePeriods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.volumeMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := daysArg(req, 7)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel := analytics.ParseSelection(req.GetString("muscles", ""))

	view, err := h.ds.Delta(ctx, UserIDFromContext(ctx), days, mode, sel)
	if err != nil {
		h.log.Error("delta query", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view)
}

func (h *handlers) getExerciseTrend(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil || strings.TrimSpace(exercise) == "" {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	mode, err := h.trendModeArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	uid := UserIDFromContext(ctx)

	res, err := h.ds.ExerciseTrend(ctx, uid, exercise, mode)
	if err != nil {
		h.log.Error("trend query", "exercise", exercise, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if !req.GetBool("include_history", false) {
		return jsonResult(res)
	}

	history, err := h.ds.ExerciseHistory(ctx, uid, exercise)
	if err != nil {
		h.log.Error("history query", "exercise", exercise, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if history == nil {
		history = []models.HistoryEntry{}
	}
	return jsonResult(map[string]any{
		"trend":   res,
		"history": trend.NewestFirst(history),
	})
}

// trendSummary is one row of list_exercise_trends.
type trendSummary struct {
	Exercise string `json:"exercise"`
	models.TrendResult
}

func (h *handlers) listExerciseTrends(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := h.trendModeArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := models.TrendStatus(req.GetString("status", ""))

	trends, err := h.ds.Trends(ctx, UserIDFromContext(ctx), mode)
	if err != nil {
		h.log.Error("trends query", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]trendSummary, 0, len(trends))
	for name, res := range trends {
		if status != "" && res.Status != status {
			continue
		}
		res.Exercise = ""
		out = append(out, trendSummary{Exercise: name, TrendResult: res})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exercise < out[j].Exercise })
	return jsonResult(out)
}
