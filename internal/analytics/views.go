package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/rates"
	"github.com/claude/liftmap/internal/trend"
	"github.com/claude/liftmap/internal/volume"
)

// SetSource loads a user's logged sets. Implemented by *storage.DB.
type SetSource interface {
	LoadLoggedSets(ctx context.Context, userID int) ([]models.LoggedSet, error)
}

// Load reads a user's sets, marks personal records the source did not flag and
// returns them as a dataset.
func (e *Engine) Load(ctx context.Context, src SetSource, userID int) (Dataset, error) {
	sets, err := src.LoadLoggedSets(ctx, userID)
	if err != nil {
		return Dataset{}, fmt.Errorf("loading sets for user %d: %w", userID, err)
	}
	return NewDataset(trend.MarkPersonalRecords(sets)), nil
}

// WeeklyRateView is the weekly-normalised set count of a selection over a window.
type WeeklyRateView struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	WindowDays  int         `json:"window_days"`
	Mode        volume.Mode `json:"mode"`
	Selection   []string    `json:"selection,omitempty"`
	SetsPerWeek float64     `json:"sets_per_week"`
}

// DeltaView compares a window against the one before it. Delta is nil when
// there is nothing to compare against.
type DeltaView struct {
	WindowDays int          `json:"window_days"`
	Mode       volume.Mode  `json:"mode"`
	Selection  []string     `json:"selection,omitempty"`
	Delta      *rates.Delta `json:"delta"`
}

// SeriesView is a bucketed set-count chart.
type SeriesView struct {
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Bucket    rates.Bucket  `json:"bucket"`
	Mode      volume.Mode   `json:"mode"`
	Selection []string      `json:"selection,omitempty"`
	Points    []rates.Point `json:"points"`
}

// ParseSelection splits a comma-separated list of muscle keys, dropping blanks.
func ParseSelection(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
