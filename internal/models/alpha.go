package models

import "time"

// AlphaSession represents a parsed Alpha Progression workout session.
// Date is nil when the header's date could not be parsed; End is nil when
// either the date or the duration is missing.
type AlphaSession struct {
	Name      string
	Date      *time.Time
	Duration  string
	End       *time.Time
	Exercises []AlphaExercise
}

// AlphaExercise represents a single exercise within a session.
type AlphaExercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Dropsets   int
	Sets       []AlphaSet
}

// AlphaSet represents a single set. Kind is warmup, normal or dropset.
type AlphaSet struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	Kind             SetKind
}
