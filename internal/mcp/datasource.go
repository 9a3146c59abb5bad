package mcp

import (
	"context"
	"time"

	"github.com/claude/liftmap/internal/analytics"
	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// HeatmapQuery selects the sets a heatmap covers. Days, when positive, takes
// the last Days days ending now; otherwise Start and End bound the range and
// both zero means all time.
type HeatmapQuery struct {
	Start time.Time
	End   time.Time
	Days  int
	Mode  volume.Mode
}

// DataSource abstracts the analytics layer for MCP tools. Both Local (engine
// over storage) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Heatmap(ctx context.Context, userID int, q HeatmapQuery) (volume.Heatmap, error)
	WeeklyRate(ctx context.Context, userID, days int, mode volume.Mode, selection []string) (analytics.WeeklyRateView, error)
	Delta(ctx context.Context, userID, days int, mode volume.Mode, selection []string) (analytics.DeltaView, error)
	ExerciseHistory(ctx context.Context, userID int, exercise string) ([]models.HistoryEntry, error)
	ExerciseTrend(ctx context.Context, userID int, exercise string, mode trend.Mode) (models.TrendResult, error)
	Trends(ctx context.Context, userID int, mode trend.Mode) (map[string]models.TrendResult, error)
	MuscleGroups(ctx context.Context) (map[string][]string, error)
}

// Local answers MCP queries in-process from the analytics engine.
type Local struct {
	src    analytics.SetSource
	engine *analytics.Engine
	now    func() time.Time
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = (*Local)(nil)

// NewLocal creates a DataSource reading sets from src.
func NewLocal(src analytics.SetSource, engine *analytics.Engine) *Local {
	return &Local{src: src, engine: engine, now: time.Now}
}

func (l *Local) clock() time.Time {
	return l.engine.Settle(l.now())
}

func (l *Local) Heatmap(ctx context.Context, userID int, q HeatmapQuery) (volume.Heatmap, error) {
	ds, err := l.engine.Load(ctx, l.src, userID)
	if err != nil {
		return volume.Heatmap{}, err
	}
	r := analytics.Range{Start: q.Start, End: q.End}
	if q.Days > 0 {
		now := l.clock()
		r = analytics.Range{Start: now.AddDate(0, 0, -q.Days), End: now}
	}
	return l.engine.Heatmap(ds, r, q.Mode), nil
}

func (l *Local) WeeklyRate(ctx context.Context, userID, days int, mode volume.Mode, selection []string) (analytics.WeeklyRateView, error) {
	ds, err := l.engine.Load(ctx, l.src, userID)
	if err != nil {
		return analytics.WeeklyRateView{}, err
	}
	now := l.clock()
	start := now.AddDate(0, 0, -days)
	return analytics.WeeklyRateView{
		Start:       start,
		End:         now,
		WindowDays:  days,
		Mode:        mode,
		Selection:   selection,
		SetsPerWeek: l.engine.WeeklyRate(ds, start, now, mode, selection),
	}, nil
}

func (l *Local) Delta(ctx context.Context, userID, days int, mode volume.Mode, selection []string) (analytics.DeltaView, error) {
	ds, err := l.engine.Load(ctx, l.src, userID)
	if err != nil {
		return analytics.DeltaView{}, err
	}
	return analytics.DeltaView{
		WindowDays: days,
		Mode:       mode,
		Selection:  selection,
		Delta:      l.engine.Delta(ds, days, l.clock(), mode, selection),
	}, nil
}

func (l *Local) ExerciseHistory(ctx context.Context, userID int, exercise string) ([]models.HistoryEntry, error) {
	ds, err := l.engine.Load(ctx, l.src, userID)
	if err != nil {
		return nil, err
	}
	return l.engine.History(ds, exercise), nil
}

func (l *Local) ExerciseTrend(ctx context.Context, userID int, exercise string, mode trend.Mode) (models.TrendResult, error) {
	ds, err := l.engine.Load(ctx, l.src, userID)
	if err != nil {
		return models.TrendResult{}, err
	}
	return l.engine.Trend(ds, exercise, mode), nil
}

func (l *Local) Trends(ctx context.Context, userID int, mode trend.Mode) (map[string]models.TrendResult, error) {
	ds, err := l.engine.Load(ctx, l.src, userID)
	if err != nil {
		return nil, err
	}
	return l.engine.Trends(ds, mode), nil
}

func (l *Local) MuscleGroups(context.Context) (map[string][]string, error) {
	return l.engine.MuscleGroups(), nil
}
