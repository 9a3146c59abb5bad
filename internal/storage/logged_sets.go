package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftmap/internal/models"
)

const setColumns = 14

// InsertSets batch-inserts logged sets. Returns count inserted.
func (db *DB) InsertSets(ctx context.Context, rows []models.SetRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	query := `INSERT INTO logged_sets (user_id, session_id, session_title, session_date, end_time,
		exercise_name, equipment, set_index, kind, weight_kg, reps, rir, is_pr, source) VALUES `
	args := make([]any, 0, len(rows)*setColumns)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		placeholders := make([]string, setColumns)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*setColumns+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		args = append(args, r.UserID, r.SessionID, r.SessionTitle, r.SessionDate, r.EndTime,
			r.ExerciseName, r.Equipment, r.SetIndex, string(r.Kind), r.WeightKg, r.Reps, r.RIR,
			r.IsPR, r.Source)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting logged sets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteSessions removes every set of the given sessions so a re-import
// replaces them.
func (db *DB) DeleteSessions(ctx context.Context, userID int, sessionIDs []uuid.UUID) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM logged_sets WHERE user_id = $1 AND session_id = ANY($2)`,
		userID, sessionIDs)
	if err != nil {
		return 0, fmt.Errorf("deleting sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QuerySets returns all of a user's sets in chronological order. Undated sets
// come last.
func (db *DB) QuerySets(ctx context.Context, userID int) ([]models.SetRow, error) {
	return db.querySets(ctx,
		`WHERE user_id = $1`, userID)
}

func (db *DB) querySets(ctx context.Context, where string, args ...any) ([]models.SetRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT user_id, session_id, session_title, session_date, end_time,
		 exercise_name, equipment, set_index, kind, weight_kg, reps, rir, is_pr, source
		 FROM logged_sets `+where+`
		 ORDER BY session_date ASC NULLS LAST, session_id, set_index ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying logged sets: %w", err)
	}
	defer rows.Close()

	var result []models.SetRow
	for rows.Next() {
		var r models.SetRow
		var kind string
		if err := rows.Scan(&r.UserID, &r.SessionID, &r.SessionTitle, &r.SessionDate, &r.EndTime,
			&r.ExerciseName, &r.Equipment, &r.SetIndex, &kind, &r.WeightKg, &r.Reps, &r.RIR,
			&r.IsPR, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning logged set: %w", err)
		}
		r.Kind = models.SetKind(kind)
		result = append(result, r)
	}
	return result, rows.Err()
}

// LoadLoggedSets returns a user's full history as analytics input.
func (db *DB) LoadLoggedSets(ctx context.Context, userID int) ([]models.LoggedSet, error) {
	rows, err := db.QuerySets(ctx, userID)
	if err != nil {
		return nil, err
	}
	sets := make([]models.LoggedSet, len(rows))
	for i, r := range rows {
		sets[i] = r.LoggedSet()
	}
	return sets, nil
}

// ExerciseSummary is one exercise a user has logged.
type ExerciseSummary struct {
	Name       string     `json:"name"`
	Sets       int64      `json:"sets"`
	Sessions   int64      `json:"sessions"`
	LastLogged *time.Time `json:"last_logged"`
}

// ListExercises returns every exercise the user has logged working sets for,
// most recently trained first.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]ExerciseSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_name, COUNT(*), COUNT(DISTINCT session_id), MAX(session_date)
		 FROM logged_sets
		 WHERE user_id = $1 AND kind <> 'warmup'
		 GROUP BY exercise_name
		 ORDER BY MAX(session_date) DESC NULLS LAST, exercise_name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var result []ExerciseSummary
	for rows.Next() {
		var e ExerciseSummary
		if err := rows.Scan(&e.Name, &e.Sets, &e.Sessions, &e.LastLogged); err != nil {
			return nil, fmt.Errorf("scanning exercise summary: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
