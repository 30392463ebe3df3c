// Package stats derives the numbers shown on the dashboard and summary screens.
//
// All functions are total: missing or nonsensical inputs produce an "unavailable" or zero result, never a panic.
package stats

import (
	"math"
	"time"
)

// Band classifies a body mass index.
type Band string

const (
	BandUnavailable Band = ""
	BandUnderweight Band = "underweight"
	BandNormal      Band = "normal"
	BandOverweight  Band = "overweight"
	BandObesityI    Band = "obesity1"
	BandObesityII   Band = "obesity2"
	BandObesityIII  Band = "obesity3"
)

// BMIResult is the outcome of BMI. Check Available before using the other fields.
type BMIResult struct {
	Available bool
	// Value is rounded to one decimal.
	Value float64
	Band  Band
	// TargetAvailable reports whether a goal BMI was given.
	TargetAvailable bool
	// TargetWeight is the weight in kg at the goal BMI.
	TargetWeight float64
	// Delta is weight minus TargetWeight. Positive means weight to lose.
	Delta float64
}

// centimetreThreshold decides the unit of height. Heights above it are read as centimetres.
//
// The stored unit was never fixed, so a 3.05 m tall person would be misread. Kept for stored profiles.
const centimetreThreshold = 3

// BMI computes body mass index from weight in kg and height in metres or centimetres.
func BMI(weight, height, goalBMI float64) BMIResult {
	if !positive(weight) || !positive(height) {
		return BMIResult{} //nolint:exhaustruct // unavailable
	}
	if height > centimetreThreshold {
		height /= 100
	}
	squared := height * height
	value := weight / squared
	res := BMIResult{
		Available:       true,
		Value:           round1(value),
		Band:            classify(value),
		TargetAvailable: false,
		TargetWeight:    0,
		Delta:           0,
	}
	if positive(goalBMI) {
		res.TargetAvailable = true
		res.TargetWeight = round1(goalBMI * squared)
		res.Delta = round1(weight - goalBMI*squared)
	}
	return res
}

func classify(bmi float64) Band {
	switch {
	case bmi < 18.5: //nolint:mnd // WHO cut-off
		return BandUnderweight
	case bmi < 25: //nolint:mnd // WHO cut-off
		return BandNormal
	case bmi < 30: //nolint:mnd // WHO cut-off
		return BandOverweight
	case bmi < 35: //nolint:mnd // WHO cut-off
		return BandObesityI
	case bmi < 40: //nolint:mnd // WHO cut-off
		return BandObesityII
	default:
		return BandObesityIII
	}
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1) && !math.IsNaN(f)
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10 //nolint:mnd // one decimal
}

// DateLayout is the layout of check-in dates.
const DateLayout = time.DateOnly

// Streak counts consecutive check-in days. The run must end today or yesterday, otherwise the streak is 0.
//
// Dates that do not parse with DateLayout are ignored and duplicates count once. Only the calendar date of today
// in its own location matters.
func Streak(checkIns []string, today time.Time) int {
	days := make(map[string]bool, len(checkIns))
	for _, s := range checkIns {
		if d, err := time.Parse(DateLayout, s); err == nil {
			days[d.Format(DateLayout)] = true
		}
	}

	cursor := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if !days[cursor.Format(DateLayout)] {
		// Today not checked in yet: the run may still end yesterday.
		cursor = cursor.AddDate(0, 0, -1)
	}
	streak := 0
	for days[cursor.Format(DateLayout)] {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// Lift is one logged set.
type Lift interface {
	Lifted() (weight float64, reps int, completed bool)
}

// Volume is the total load Σ weight×reps over completed sets. Incomplete sets count as 0.
func Volume[L Lift](sets []L) float64 {
	total := 0.0
	for _, s := range sets {
		weight, reps, completed := s.Lifted()
		if !completed || !positive(weight) || reps <= 0 {
			continue
		}
		total += weight * float64(reps)
	}
	return total
}

// Progress is current as a percentage of goal, clamped to [0, 100]. A goal <= 0 yields 0.
func Progress(current, goal int) int {
	if goal <= 0 || current <= 0 {
		return 0
	}
	if current >= goal {
		return 100 //nolint:mnd // percent
	}
	return int(math.Round(100 * float64(current) / float64(goal))) //nolint:mnd // percent
}
