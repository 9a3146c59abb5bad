package models

import (
	"time"

	"github.com/google/uuid"
)

// SetRow is a row for the logged_sets table.
type SetRow struct {
	UserID       int
	SessionID    uuid.UUID
	SessionTitle string
	SessionDate  *time.Time
	EndTime      *time.Time
	ExerciseName string
	Equipment    string
	SetIndex     int
	Kind         SetKind
	WeightKg     float64
	Reps         int
	RIR          float64
	IsPR         bool
	Source       string
}

// NewSetRow converts a logged set into a row owned by userID.
func NewSetRow(userID int, source string, s LoggedSet) SetRow {
	return SetRow{
		UserID:       userID,
		SessionID:    s.SessionUUID(),
		SessionTitle: s.SessionTitle,
		SessionDate:  s.Date,
		EndTime:      s.EndTime,
		ExerciseName: s.ExerciseName,
		Equipment:    s.Equipment,
		SetIndex:     s.SetIndex,
		Kind:         s.Kind,
		WeightKg:     s.WeightKg,
		Reps:         s.Reps,
		RIR:          s.RIR,
		IsPR:         s.IsPR,
		Source:       source,
	}
}

// LoggedSet converts the row back into the analytics input record.
func (r SetRow) LoggedSet() LoggedSet {
	return LoggedSet{
		ExerciseName: r.ExerciseName,
		Equipment:    r.Equipment,
		WeightKg:     r.WeightKg,
		Reps:         r.Reps,
		SetIndex:     r.SetIndex,
		Date:         r.SessionDate,
		EndTime:      r.EndTime,
		SessionTitle: r.SessionTitle,
		SessionID:    r.SessionID.String(),
		IsPR:         r.IsPR,
		Kind:         r.Kind,
		RIR:          r.RIR,
	}
}
