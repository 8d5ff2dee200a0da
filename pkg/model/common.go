// Package model defines the records exchanged by the allocation engine.
package model

import "math"

// ConstraintMode controls whether soft violations block a candidate.
type ConstraintMode string

const (
	ModeStrict ConstraintMode = "strict"
	ModeLoose  ConstraintMode = "loose"
)

// Valid reports whether m is a known mode.
func (m ConstraintMode) Valid() bool {
	return m == ModeStrict || m == ModeLoose
}

// ParseConstraintMode maps free text to a mode, defaulting to strict.
func ParseConstraintMode(s string) ConstraintMode {
	if ConstraintMode(s) == ModeLoose {
		return ModeLoose
	}
	return ModeStrict
}

// ConstraintCategory is the class of a block reason.
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard" // obligatory, never relaxed
	ConstraintSoft ConstraintCategory = "soft" // relaxed in loose mode
)

// DateRange is an inclusive range of ISO dates (YYYY-MM-DD).
type DateRange struct {
	From string `json:"from" yaml:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" yaml:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Contains reports whether date lies in the range. Empty bounds are open.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 { return roundTo(v, 2) }

// Round1 rounds to one decimal place.
func Round1(v float64) float64 { return roundTo(v, 1) }

// Round4 rounds to four decimal places.
func Round4(v float64) float64 { return roundTo(v, 4) }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
