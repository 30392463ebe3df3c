package workout

import (
	"slices"
	"time"

	"github.com/myrjola/tatugym/internal/stats"
)

// SetPerformance is what the member logged for one set.
//
// A completed set is frozen: weight, reps and RPE can only change after it is marked incomplete again.
type SetPerformance struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
	// RPE is the optional rate of perceived exertion between MinRPE and MaxRPE.
	RPE       *int `json:"rpe,omitempty"`
	Completed bool `json:"completed"`
}

const (
	MinRPE = 6
	MaxRPE = 10
)

func (s SetPerformance) Lifted() (float64, int, bool) {
	return s.Weight, s.Reps, s.Completed
}

// ExerciseSession holds one SetPerformance per target set of the exercise, in set order.
type ExerciseSession struct {
	Sets []SetPerformance `json:"sets"`
}

// Complete reports whether every set is completed.
func (e ExerciseSession) Complete() bool {
	return len(e.Sets) > 0 && !slices.ContainsFunc(e.Sets, func(s SetPerformance) bool { return !s.Completed })
}

func (e ExerciseSession) completedCount() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// lastCompleted returns the completed set with the highest index.
func (e ExerciseSession) lastCompleted() (SetPerformance, bool) {
	for i := len(e.Sets) - 1; i >= 0; i-- {
		if e.Sets[i].Completed {
			return e.Sets[i], true
		}
	}
	return SetPerformance{}, false //nolint:exhaustruct // not found
}

// Session is the in-progress workout of a member.
type Session struct {
	RoutineID string                     `json:"routineId"`
	Exercises map[string]ExerciseSession `json:"exercises"`
	StartedAt time.Time                  `json:"startedAt"`
}

func (s Session) CompletedSetCount() int {
	n := 0
	for _, e := range s.Exercises {
		n += e.completedCount()
	}
	return n
}

func (s Session) TotalSetCount() int {
	n := 0
	for _, e := range s.Exercises {
		n += len(e.Sets)
	}
	return n
}

// ProgressPercent is the rounded share of completed sets. An empty session is 0 % done.
func (s Session) ProgressPercent() int {
	return progressPercent(s.CompletedSetCount(), s.TotalSetCount())
}

func progressPercent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return (200*completed + total) / (2 * total) //nolint:mnd // round half up in integers
}

// Volume is the total load lifted in completed sets.
func (s Session) Volume() float64 {
	var sets []SetPerformance
	for _, e := range s.Exercises {
		sets = append(sets, e.Sets...)
	}
	return stats.Volume(sets)
}

// clone returns a deep copy so that callers cannot mutate the tracked session.
func (s Session) clone() Session {
	exercises := make(map[string]ExerciseSession, len(s.Exercises))
	for id, e := range s.Exercises {
		sets := make([]SetPerformance, len(e.Sets))
		for i, set := range e.Sets {
			if set.RPE != nil {
				rpe := *set.RPE
				set.RPE = &rpe
			}
			sets[i] = set
		}
		exercises[id] = ExerciseSession{Sets: sets}
	}
	return Session{RoutineID: s.RoutineID, Exercises: exercises, StartedAt: s.StartedAt}
}

// HistoryExercise snapshots the sets of one exercise when the workout was finished.
type HistoryExercise struct {
	ExerciseID  string           `json:"exerciseId"`
	Name        string           `json:"name"`
	Performance []SetPerformance `json:"performance"`
}

// HistoryEntry is an immutable record of a finished workout.
type HistoryEntry struct {
	ID           string            `json:"id"`
	Date         time.Time         `json:"date"`
	WorkoutID    string            `json:"workoutId"`
	WorkoutTitle string            `json:"workoutTitle"`
	Exercises    []HistoryExercise `json:"exercises"`
}

func (h HistoryEntry) Volume() float64 {
	var sets []SetPerformance
	for _, e := range h.Exercises {
		sets = append(sets, e.Performance...)
	}
	return stats.Volume(sets)
}

func (h HistoryEntry) CompletedSetCount() int {
	n := 0
	for _, e := range h.Exercises {
		n += ExerciseSession{Sets: e.Performance}.completedCount()
	}
	return n
}

type Sex string

const (
	SexUnset  Sex = ""
	SexMale   Sex = "masculino"
	SexFemale Sex = "feminino"
)

const (
	DefaultGoal         = "Hipertrofia"
	DefaultGoalStreak   = 20
	DefaultGoalWorkouts = 20
)

// Profile is everything remembered about a member.
type Profile struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Age      int     `json:"age,omitempty"`
	Weight   float64 `json:"weight"`
	// Height is in metres, or centimetres for profiles stored with values above 3.
	Height            float64            `json:"height"`
	Sex               Sex                `json:"sex,omitempty"`
	GoalIMC           float64            `json:"goalIMC,omitempty"`
	Goal              string             `json:"goal,omitempty"`
	Streak            int                `json:"streak"`
	GoalStreak        int                `json:"goalStreak,omitempty"`
	TotalWorkouts     int                `json:"totalWorkouts"`
	GoalWorkouts      int                `json:"goalWorkouts,omitempty"`
	CheckIns          []string           `json:"checkIns"`
	IsProfileComplete bool               `json:"isProfileComplete"`
	Weights           map[string]float64 `json:"weights"`
	// History is ordered newest first.
	History []HistoryEntry `json:"history"`
}

// NewProfile returns the profile a member starts with on first login.
func NewProfile(username string) Profile {
	return Profile{
		Username:          username,
		Name:              "",
		Age:               0,
		Weight:            0,
		Height:            0,
		Sex:               SexUnset,
		GoalIMC:           0,
		Goal:              DefaultGoal,
		Streak:            0,
		GoalStreak:        DefaultGoalStreak,
		TotalWorkouts:     0,
		GoalWorkouts:      DefaultGoalWorkouts,
		CheckIns:          []string{},
		IsProfileComplete: false,
		Weights:           map[string]float64{},
		History:           []HistoryEntry{},
	}
}

// CheckedIn reports whether the member confirmed attendance on the calendar day of t.
func (p Profile) CheckedIn(t time.Time) bool {
	return slices.Contains(p.CheckIns, t.Format(stats.DateLayout))
}

func (p Profile) BMI() stats.BMIResult {
	return stats.BMI(p.Weight, p.Height, p.GoalIMC)
}

func (p Profile) StreakProgress() int {
	return stats.Progress(p.Streak, p.goalStreak())
}

func (p Profile) WorkoutsProgress() int {
	return stats.Progress(p.TotalWorkouts, p.goalWorkouts())
}

func (p Profile) goalStreak() int {
	if p.GoalStreak <= 0 {
		return DefaultGoalStreak
	}
	return p.GoalStreak
}

func (p Profile) goalWorkouts() int {
	if p.GoalWorkouts <= 0 {
		return DefaultGoalWorkouts
	}
	return p.GoalWorkouts
}

// checkIn adds the calendar day of now to CheckIns and reports whether it was new.
func (p *Profile) checkIn(now time.Time) bool {
	if p.CheckedIn(now) {
		return false
	}
	p.CheckIns = append(p.CheckIns, now.Format(stats.DateLayout))
	return true
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name              *string
	Age               *int
	Weight            *float64
	Height            *float64
	Sex               *Sex
	GoalIMC           *float64
	Goal              *string
	GoalStreak        *int
	GoalWorkouts      *int
	IsProfileComplete *bool
}

func (pp ProfilePatch) apply(p *Profile) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Age != nil {
		p.Age = *pp.Age
	}
	if pp.Weight != nil {
		p.Weight = *pp.Weight
	}
	if pp.Height != nil {
		p.Height = *pp.Height
	}
	if pp.Sex != nil {
		p.Sex = *pp.Sex
	}
	if pp.GoalIMC != nil {
		p.GoalIMC = *pp.GoalIMC
	}
	if pp.Goal != nil {
		p.Goal = *pp.Goal
	}
	if pp.GoalStreak != nil {
		p.GoalStreak = *pp.GoalStreak
	}
	if pp.GoalWorkouts != nil {
		p.GoalWorkouts = *pp.GoalWorkouts
	}
	if pp.IsProfileComplete != nil {
		p.IsProfileComplete = *pp.IsProfileComplete
	}
}
