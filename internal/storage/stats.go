package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's logged sets.
type DataStats struct {
	TotalSets      int64        `json:"total_sets"`
	WorkingSets    int64        `json:"working_sets"`
	TotalSessions  int64        `json:"total_sessions"`
	TotalExercises int64        `json:"total_exercises"`
	UndatedSets    int64        `json:"undated_sets"`
	EarliestData   *time.Time   `json:"earliest_data"`
	LatestData     *time.Time   `json:"latest_data"`
	SetsBySource   []SourceStat `json:"sets_by_source"`
}

// SourceStat holds the set count for one ingestion source.
type SourceStat struct {
	Source string `json:"source"`
	Sets   int64  `json:"sets"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE kind <> 'warmup'),
		        COUNT(DISTINCT session_id),
		        COUNT(DISTINCT lower(exercise_name)),
		        COUNT(*) FILTER (WHERE session_date IS NULL),
		        MIN(session_date), MAX(session_date)
		 FROM logged_sets WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSets, &stats.WorkingSets, &stats.TotalSessions, &stats.TotalExercises,
		&stats.UndatedSets, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT source, COUNT(*)
		 FROM logged_sets
		 WHERE user_id = $1
		 GROUP BY source
		 ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying sets by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s SourceStat
		if err := rows.Scan(&s.Source, &s.Sets); err != nil {
			return nil, fmt.Errorf("scanning source stat: %w", err)
		}
		stats.SetsBySource = append(stats.SetsBySource, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
