package models

import "time"

// HistoryEntry is one session's performance on a single exercise.
type HistoryEntry struct {
	Date       time.Time `json:"date"`
	SessionKey string    `json:"session_key"`
	WeightKg   float64   `json:"weight_kg"`
	Reps       int       `json:"reps"`
	OneRepMax  float64   `json:"one_rep_max"`
	Volume     float64   `json:"volume"`
	IsPR       bool      `json:"is_pr"`
	Side       Side      `json:"side,omitempty"`
}

// TrendStatus labels an exercise's progression.
type TrendStatus string

const (
	TrendNew        TrendStatus = "new"
	TrendStagnant   TrendStatus = "stagnant"
	TrendOverload   TrendStatus = "overload"
	TrendRegression TrendStatus = "regression"
)

// Confidence is the classifier's confidence in a trend label.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Plateau describes a static weight with reps moving inside a narrow band.
type Plateau struct {
	WeightKg          float64 `json:"weight_kg"`
	MinReps           int     `json:"min_reps"`
	MaxReps           int     `json:"max_reps"`
	SessionsAtPlateau int     `json:"sessions_at_plateau"`
}

// TrendResult is the classifier output for one exercise.
type TrendResult struct {
	Exercise     string      `json:"exercise,omitempty"`
	Status       TrendStatus `json:"status"`
	DiffPct      float64     `json:"diff_pct"`
	Confidence   Confidence  `json:"confidence"`
	Evidence     []string    `json:"evidence"`
	IsBodyweight bool        `json:"is_bodyweight"`
	Plateau      *Plateau    `json:"plateau,omitempty"`
	PrematurePR  bool        `json:"premature_pr"`
	SessionCount int         `json:"session_count"`
}
