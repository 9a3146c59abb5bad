package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SetKind discriminates how a logged set counts toward volume.
type SetKind string

const (
	SetNormal  SetKind = "normal"
	SetWarmup  SetKind = "warmup"
	SetLeft    SetKind = "left"
	SetRight   SetKind = "right"
	SetDropset SetKind = "dropset"
	SetFailure SetKind = "failure"
)

// Side identifies which limb a unilateral set was performed with.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// LoggedSet is one set as produced by ingestion. It is never mutated after parsing.
// Date is nil when the source date string failed to parse; such sets are excluded
// from every date-bounded computation.
type LoggedSet struct {
	ExerciseName string     `json:"exercise_name"`
	Equipment    string     `json:"equipment,omitempty"`
	WeightKg     float64    `json:"weight_kg"`
	Reps         int        `json:"reps"`
	SetIndex     int        `json:"set_index"`
	Date         *time.Time `json:"date,omitempty"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	SessionTitle string     `json:"session_title"`
	SessionID    string     `json:"session_id,omitempty"`
	IsPR         bool       `json:"is_pr"`
	Kind         SetKind    `json:"kind"`
	RIR          float64    `json:"rir,omitempty"`
}

// sessionNamespace seeds deterministic session UUIDs.
var sessionNamespace = uuid.MustParse("6f0c1d55-8b8e-4a53-9d2e-3c2f2b7a91a4")

// SessionKey returns the key that groups sets into one training session: the
// backend-provided session id when present, otherwise start time + title.
func (s LoggedSet) SessionKey() string {
	if s.SessionID != "" {
		return s.SessionID
	}
	date := "undated"
	if s.Date != nil {
		date = s.Date.UTC().Format("2006-01-02T15:04")
	}
	return date + "|" + strings.TrimSpace(s.SessionTitle)
}

// SessionUUID derives a stable UUID from the session key so repeated imports of
// the same session map to the same row.
func (s LoggedSet) SessionUUID() uuid.UUID {
	return uuid.NewSHA1(sessionNamespace, []byte(s.SessionKey()))
}

// Side reports which side a set was performed with, if unilateral.
func (s LoggedSet) Side() Side {
	switch s.Kind {
	case SetLeft:
		return SideLeft
	case SetRight:
		return SideRight
	default:
		return SideNone
	}
}
