package workout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/tatugym/internal/catalog"
	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/stats"
)

var (
	ErrRoutineNotFound  = errors.NewSentinel("routine not found")
	ErrExerciseNotFound = errors.NewSentinel("exercise not found")
	ErrSetOutOfRange    = errors.NewSentinel("set index out of range")
	ErrInvalidRPE       = errors.NewSentinel("rpe out of range")
	ErrInvalidField     = errors.NewSentinel("unknown field")
	// ErrSetCompleted is returned when editing a completed set without marking it incomplete first.
	ErrSetCompleted     = errors.NewSentinel("set is completed")
	ErrNothingCompleted = errors.NewSentinel("no completed sets")
	ErrValidation       = errors.NewSentinel("validation failed")
)

// ValidationError lists the invalid input fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation //nolint:errorlint // sentinel identity
}

// Service handles the business logic of a member's workout.
//
// Mutations of one member are serialized so that they are applied and persisted in the order they were issued.
type Service struct {
	store    *Store
	catalog  *catalog.Catalog
	notifier Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	users map[string]*member
}

// member holds the per-username lock and the rest timers keyed by exercise id.
type member struct {
	mu     sync.Mutex
	timers map[string]*Countdown
}

func NewService(store *Store, c *catalog.Catalog, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		catalog:  c,
		notifier: notifier,
		logger:   logger,
		mu:       sync.Mutex{},
		users:    make(map[string]*member),
	}
}

// lock locks the member of username and returns the normalized username and the unlock function.
func (s *Service) lock(username string) (string, *member, func()) {
	username = NormalizeUsername(username)
	s.mu.Lock()
	m, ok := s.users[username]
	if !ok {
		m = &member{mu: sync.Mutex{}, timers: make(map[string]*Countdown)}
		s.users[username] = m
	}
	s.mu.Unlock()
	m.mu.Lock()
	return username, m, m.mu.Unlock
}

// Routines returns the routines assigned to username.
func (s *Service) Routines(username string) []catalog.Routine {
	return s.catalog.RoutinesFor(username)
}

// EnsureProfile returns the profile of username, creating it on first login. The streak is recomputed from the
// check-ins so that missed days are reflected.
func (s *Service) EnsureProfile(ctx context.Context, username string, now time.Time) (Profile, error) {
	username, _, unlock := s.lock(username)
	defer unlock()

	p, err := s.store.Load(ctx, username)
	if errors.Is(err, ErrNotFound) {
		p = NewProfile(username)
		if err = s.store.Save(ctx, username, p); err != nil {
			return Profile{}, fmt.Errorf("save new profile: %w", err)
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "created profile", slog.String("username", username))
		return p, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}

	if streak := stats.Streak(p.CheckIns, now); streak != p.Streak {
		p.Streak = streak
		if err = s.store.Save(ctx, username, p); err != nil {
			return Profile{}, fmt.Errorf("save streak: %w", err)
		}
	}
	return p, nil
}

// loadProfile returns the stored profile or a new one when the member has none.
func (s *Service) loadProfile(ctx context.Context, username string) (Profile, error) {
	p, err := s.store.Load(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return NewProfile(username), nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// OnboardingInput is the first-login form. Name, age, weight and height are required.
type OnboardingInput struct {
	Name    string
	Age     int
	Weight  float64
	Height  float64
	Sex     Sex
	GoalIMC float64
}

func (in OnboardingInput) validate() error {
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name")
	}
	if in.Age <= 0 {
		fields = append(fields, "age")
	}
	if !finitePositive(in.Weight) {
		fields = append(fields, "weight")
	}
	if !finitePositive(in.Height) {
		fields = append(fields, "height")
	}
	if !validSex(in.Sex) {
		fields = append(fields, "sex")
	}
	if in.GoalIMC < 0 || math.IsNaN(in.GoalIMC) || math.IsInf(in.GoalIMC, 0) {
		fields = append(fields, "goalIMC")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func finitePositive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

func validSex(s Sex) bool {
	return s == SexUnset || s == SexMale || s == SexFemale
}

// CompleteOnboarding stores the onboarding form and unlocks the dashboard. Nothing is stored when the input is
// invalid.
func (s *Service) CompleteOnboarding(ctx context.Context, username string, in OnboardingInput) (Profile, error) {
	if err := in.validate(); err != nil {
		return Profile{}, err
	}
	username, _, unlock := s.lock(username)
	defer unlock()

	p, err := s.loadProfile(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Age = in.Age
	p.Weight = in.Weight
	p.Height = in.Height
	p.Sex = in.Sex
	p.GoalIMC = in.GoalIMC
	p.IsProfileComplete = true
	if err = s.store.Save(ctx, username, p); err != nil {
		return Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (pp ProfilePatch) validate() error {
	var fields []string
	if pp.Name != nil && strings.TrimSpace(*pp.Name) == "" {
		fields = append(fields, "name")
	}
	if pp.Age != nil && *pp.Age <= 0 {
		fields = append(fields, "age")
	}
	if pp.Weight != nil && !finitePositive(*pp.Weight) {
		fields = append(fields, "weight")
	}
	if pp.Height != nil && !finitePositive(*pp.Height) {
		fields = append(fields, "height")
	}
	if pp.Sex != nil && !validSex(*pp.Sex) {
		fields = append(fields, "sex")
	}
	if pp.GoalIMC != nil && (*pp.GoalIMC < 0 || math.IsNaN(*pp.GoalIMC) || math.IsInf(*pp.GoalIMC, 0)) {
		fields = append(fields, "goalIMC")
	}
	if pp.Goal != nil && strings.TrimSpace(*pp.Goal) == "" {
		fields = append(fields, "goal")
	}
	if pp.GoalStreak != nil && *pp.GoalStreak <= 0 {
		fields = append(fields, "goalStreak")
	}
	if pp.GoalWorkouts != nil && *pp.GoalWorkouts <= 0 {
		fields = append(fields, "goalWorkouts")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// UpdateSettings merges the settings form into the profile.
func (s *Service) UpdateSettings(ctx context.Context, username string, patch ProfilePatch) (Profile, error) {
	if err := patch.validate(); err != nil {
		return Profile{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	username, _, unlock := s.lock(username)
	defer unlock()

	p, err := s.store.Update(ctx, username, func(p *Profile) (bool, error) {
		patch.apply(p)
		return true, nil
	})
	if errors.Is(err, ErrNotFound) {
		p = NewProfile(username)
		patch.apply(&p)
		err = s.store.Save(ctx, username, p)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("patch profile: %w", err)
	}
	return p, nil
}

// CheckIn records attendance for the calendar day of now. Checking in twice on the same day changes nothing.
func (s *Service) CheckIn(ctx context.Context, username string, now time.Time) (Profile, bool, error) {
	username, _, unlock := s.lock(username)
	defer unlock()

	p, err := s.loadProfile(ctx, username)
	if err != nil {
		return Profile{}, false, err
	}
	if !p.checkIn(now) {
		return p, false, nil
	}
	p.TotalWorkouts++
	p.Streak = stats.Streak(p.CheckIns, now)
	if err = s.store.Save(ctx, username, p); err != nil {
		return Profile{}, false, fmt.Errorf("save check-in: %w", err)
	}
	return p, true, nil
}

// seedSets returns the fresh sets of exercise ex.
func seedSets(ex catalog.Exercise, weights map[string]float64) []SetPerformance {
	sets := make([]SetPerformance, ex.TargetSets)
	for i := range sets {
		sets[i] = seedSet(ex, weights)
	}
	return sets
}

func seedSet(ex catalog.Exercise, weights map[string]float64) SetPerformance {
	return SetPerformance{
		Weight:    max(weights[ex.ID], 0),
		Reps:      ex.SeedReps(),
		RPE:       nil,
		Completed: false,
	}
}

// fitToRoutine makes session match the exercises of routine. Sets are truncated or seeded up to the target count
// and exercises no longer in the routine are dropped. It reports whether anything changed.
func fitToRoutine(session *Session, routine catalog.Routine, weights map[string]float64) bool {
	changed := false
	exercises := make(map[string]ExerciseSession, len(routine.Exercises))
	for _, ex := range routine.Exercises {
		sets := session.Exercises[ex.ID].Sets
		switch {
		case len(sets) > ex.TargetSets:
			sets = sets[:ex.TargetSets]
			changed = true
		case len(sets) < ex.TargetSets:
			changed = true
			for len(sets) < ex.TargetSets {
				sets = append(sets, seedSet(ex, weights))
			}
		}
		exercises[ex.ID] = ExerciseSession{Sets: sets}
	}
	if len(exercises) != len(session.Exercises) {
		changed = true
	}
	session.Exercises = exercises
	return changed
}

// StartSession enters the routine. A persisted session of the same routine is resumed as is, otherwise the sets
// are seeded from the last weights and the target reps.
func (s *Service) StartSession(ctx context.Context, username, routineID string, now time.Time) (Session, error) {
	username, m, unlock := s.lock(username)
	defer unlock()

	routine, ok := s.catalog.Routine(username, routineID)
	if !ok {
		return Session{}, ErrRoutineNotFound
	}
	p, err := s.loadProfile(ctx, username)
	if err != nil {
		return Session{}, err
	}
	m.cancelTimers()

	session, err := s.store.LoadActiveSession(ctx, username)
	switch {
	case err == nil && session.RoutineID == routine.ID:
		fitToRoutine(&session, routine, p.Weights)
	case err == nil, errors.Is(err, ErrNoActiveSession):
		session = Session{RoutineID: routine.ID, Exercises: nil, StartedAt: now}
		fitToRoutine(&session, routine, p.Weights)
	default:
		return Session{}, fmt.Errorf("load active session: %w", err)
	}

	if err = s.store.SaveActiveSession(ctx, username, session); err != nil {
		return Session{}, fmt.Errorf("save active session: %w", err)
	}
	return session.clone(), nil
}

// active returns the persisted session and its routine. A session whose routine is gone is discarded.
func (s *Service) active(ctx context.Context, username string) (Session, catalog.Routine, error) {
	session, err := s.store.LoadActiveSession(ctx, username)
	if err != nil {
		return Session{}, catalog.Routine{}, err
	}
	routine, ok := s.catalog.Routine(username, session.RoutineID)
	if !ok {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "discarding session of unknown routine",
			slog.String("username", username), slog.String("routine_id", session.RoutineID))
		if err = s.store.ClearActiveSession(ctx, username); err != nil {
			return Session{}, catalog.Routine{}, fmt.Errorf("clear stale session: %w", err)
		}
		return Session{}, catalog.Routine{}, ErrNoActiveSession
	}
	p, err := s.loadProfile(ctx, username)
	if err != nil {
		return Session{}, catalog.Routine{}, err
	}
	if fitToRoutine(&session, routine, p.Weights) {
		if err = s.store.SaveActiveSession(ctx, username, session); err != nil {
			return Session{}, catalog.Routine{}, fmt.Errorf("save fitted session: %w", err)
		}
	}
	return session, routine, nil
}

// ActiveSession returns the workout in progress and its routine, or ErrNoActiveSession.
func (s *Service) ActiveSession(ctx context.Context, username string) (Session, catalog.Routine, error) {
	username, _, unlock := s.lock(username)
	defer unlock()
	return s.active(ctx, username)
}

// ResumeSession reports whether username has a workout to re-enter on reload. A stale session is discarded.
func (s *Service) ResumeSession(ctx context.Context, username string) (Session, bool, error) {
	session, _, err := s.ActiveSession(ctx, username)
	if errors.Is(err, ErrNoActiveSession) {
		return Session{}, false, nil //nolint:exhaustruct // none
	}
	if err != nil {
		return Session{}, false, err
	}
	return session, true, nil
}

// SetPatch is a partial update of one set. Nil fields are left untouched.
type SetPatch struct {
	Weight *float64
	Reps   *int
	RPE    *int
	// ClearRPE unsets the RPE. It is ignored when RPE is set.
	ClearRPE  bool
	Completed *bool
}

// SetResult describes the outcome of UpdateSet.
type SetResult struct {
	Session Session
	Set     SetPerformance
	// ExerciseComplete is set when this update completed the last incomplete set of the exercise.
	ExerciseComplete bool
	RestStarted      bool
	RestSeconds      int
}

func clampWeight(w float64) float64 {
	if !(w > 0) || math.IsInf(w, 1) { //nolint:staticcheck // also catches NaN
		return 0
	}
	return w
}

func (s SetPerformance) equal(o SetPerformance) bool {
	return s.Weight == o.Weight && s.Reps == o.Reps && s.Completed == o.Completed && sameRPE(s.RPE, o.RPE)
}

func sameRPE(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// apply returns set updated with patch. Edits that leave a value unchanged are not edits, so repeating a patch is
// allowed even after it completed the set.
func (patch SetPatch) apply(set SetPerformance) (SetPerformance, error) {
	if patch.RPE != nil && (*patch.RPE < MinRPE || *patch.RPE > MaxRPE) {
		return set, ErrInvalidRPE
	}

	next := set
	if patch.Weight != nil {
		next.Weight = clampWeight(*patch.Weight)
	}
	if patch.Reps != nil {
		next.Reps = max(*patch.Reps, 0)
	}
	switch {
	case patch.RPE != nil:
		rpe := *patch.RPE
		next.RPE = &rpe
	case patch.ClearRPE:
		next.RPE = nil
	}

	edited := next.Weight != set.Weight || next.Reps != set.Reps || !sameRPE(next.RPE, set.RPE)
	uncompleting := patch.Completed != nil && !*patch.Completed
	if set.Completed && edited && !uncompleting {
		return set, ErrSetCompleted
	}
	if patch.Completed != nil {
		next.Completed = *patch.Completed
	}
	return next, nil
}

// UpdateSet applies patch to the set at setIndex of the exercise and persists the session before any side effect.
//
// Completing a set sends a haptic pulse. When it was the last incomplete set of the exercise the exercise-complete
// signal fires, otherwise the rest timer of the exercise restarts unless the set is the last one in the list.
func (s *Service) UpdateSet(
	ctx context.Context,
	username string,
	exerciseID string,
	setIndex int,
	patch SetPatch,
) (SetResult, error) {
	username, m, unlock := s.lock(username)
	defer unlock()
	return s.updateSet(ctx, username, m, exerciseID, setIndex, func(SetPerformance) (SetPatch, error) {
		return patch, nil
	})
}

func (s *Service) updateSet(
	ctx context.Context,
	username string,
	m *member,
	exerciseID string,
	setIndex int,
	patchFn func(current SetPerformance) (SetPatch, error),
) (SetResult, error) {
	session, routine, err := s.active(ctx, username)
	if err != nil {
		return SetResult{}, err
	}
	ex, ok := routine.Exercise(exerciseID)
	if !ok {
		return SetResult{}, ErrExerciseNotFound
	}
	sets := session.Exercises[exerciseID].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return SetResult{}, errors.Wrap(ErrSetOutOfRange, "update set",
			slog.String("exercise_id", exerciseID), slog.Int("set_index", setIndex))
	}

	current := sets[setIndex]
	patch, err := patchFn(current)
	if err != nil {
		return SetResult{}, err
	}
	next, err := patch.apply(current)
	if err != nil {
		return SetResult{}, err
	}

	res := SetResult{
		Session:          session,
		Set:              next,
		ExerciseComplete: false,
		RestStarted:      false,
		RestSeconds:      0,
	}
	if next.equal(current) {
		res.Session = session.clone()
		return res, nil
	}

	sets[setIndex] = next
	if err = s.store.SaveActiveSession(ctx, username, session); err != nil {
		return SetResult{}, fmt.Errorf("save active session: %w", err)
	}
	res.Session = session.clone()

	if current.Completed || !next.Completed {
		return res, nil
	}
	s.notifier.Haptic(username)
	if (ExerciseSession{Sets: sets}).Complete() {
		res.ExerciseComplete = true
		s.notifier.ExerciseComplete(username, exerciseID)
		return res, nil
	}
	if setIndex < len(sets)-1 {
		res.RestStarted = true
		res.RestSeconds = ex.RestSeconds
		s.startRest(username, m, exerciseID, ex.RestSeconds)
	}
	return res, nil
}

func (s *Service) startRest(username string, m *member, exerciseID string, seconds int) {
	c, ok := m.timers[exerciseID]
	if !ok {
		c = &Countdown{} //nolint:exhaustruct // zero value is idle
		m.timers[exerciseID] = c
	}
	c.Start(seconds,
		func(remaining int) {
			s.notifier.RestTick(username, exerciseID, remaining)
		},
		func() {
			s.notifier.RestDone(username, exerciseID)
			s.notifier.Haptic(username)
			s.notifier.Tone(username)
		},
	)
}

func (m *member) cancelTimers() {
	for _, c := range m.timers {
		c.Cancel()
	}
}

// Field is a set value that AdjustValue can step.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
	FieldRPE    Field = "rpe"
)

// AdjustValue adds delta to a field of an incomplete set, flooring at 0. RPE stays within MinRPE and MaxRPE and an
// unset RPE starts at MinRPE.
func (s *Service) AdjustValue(
	ctx context.Context,
	username string,
	exerciseID string,
	setIndex int,
	field Field,
	delta float64,
) (SetResult, error) {
	username, m, unlock := s.lock(username)
	defer unlock()
	return s.updateSet(ctx, username, m, exerciseID, setIndex, func(current SetPerformance) (SetPatch, error) {
		patch := SetPatch{Weight: nil, Reps: nil, RPE: nil, ClearRPE: false, Completed: nil}
		if current.Completed {
			return patch, ErrSetCompleted
		}
		switch field {
		case FieldWeight:
			w := math.Max(current.Weight+delta, 0)
			patch.Weight = &w
		case FieldReps:
			r := max(current.Reps+int(math.Round(delta)), 0)
			patch.Reps = &r
		case FieldRPE:
			rpe := MinRPE
			if current.RPE != nil {
				rpe = min(max(*current.RPE+int(math.Round(delta)), MinRPE), MaxRPE)
			}
			patch.RPE = &rpe
		default:
			return patch, ErrInvalidField
		}
		return patch, nil
	})
}

// RestTimers returns the seconds left of every running rest timer keyed by exercise id.
func (s *Service) RestTimers(username string) map[string]int {
	_, m, unlock := s.lock(username)
	defer unlock()
	timers := make(map[string]int)
	for id, c := range m.timers {
		if c.Running() {
			timers[id] = c.Remaining()
		}
	}
	return timers
}

// CancelRestTimers stops every rest timer of username without completion signals.
func (s *Service) CancelRestTimers(username string) {
	_, m, unlock := s.lock(username)
	defer unlock()
	m.cancelTimers()
}

// Close stops the rest timers of every member.
func (s *Service) Close() {
	s.mu.Lock()
	members := make([]*member, 0, len(s.users))
	for _, m := range s.users {
		members = append(members, m)
	}
	s.mu.Unlock()
	for _, m := range members {
		m.mu.Lock()
		m.cancelTimers()
		m.mu.Unlock()
	}
}

// AbandonSession leaves the workout without a history entry. The persisted session is cleared so that entering
// the routine again starts fresh.
func (s *Service) AbandonSession(ctx context.Context, username string) error {
	username, m, unlock := s.lock(username)
	defer unlock()
	m.cancelTimers()
	if err := s.store.ClearActiveSession(ctx, username); err != nil {
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}

// Summary is shown after finishing a workout.
type Summary struct {
	Entry   HistoryEntry
	Volume  float64
	Profile Profile
}

// FinishWorkout records the workout in the history and ends the session. At least one set must be completed.
func (s *Service) FinishWorkout(ctx context.Context, username string, now time.Time) (Summary, error) {
	username, m, unlock := s.lock(username)
	defer unlock()

	session, routine, err := s.active(ctx, username)
	if err != nil {
		return Summary{}, err
	}
	if session.CompletedSetCount() == 0 {
		return Summary{}, ErrNothingCompleted
	}

	entry := HistoryEntry{
		ID:           uuid.NewString(),
		Date:         now,
		WorkoutID:    routine.ID,
		WorkoutTitle: routine.Title,
		Exercises:    make([]HistoryExercise, 0, len(routine.Exercises)),
	}
	p, err := s.loadProfile(ctx, username)
	if err != nil {
		return Summary{}, err
	}
	for _, ex := range routine.Exercises {
		es := session.Exercises[ex.ID]
		entry.Exercises = append(entry.Exercises, HistoryExercise{
			ExerciseID:  ex.ID,
			Name:        ex.Name,
			Performance: slices.Clone(es.Sets),
		})
		if last, ok := es.lastCompleted(); ok {
			p.Weights[ex.ID] = last.Weight
		}
	}

	p.checkIn(now)
	p.TotalWorkouts++
	p.Streak = stats.Streak(p.CheckIns, now)
	p.History = slices.Insert(p.History, 0, entry)
	if err = s.store.Save(ctx, username, p); err != nil {
		return Summary{}, fmt.Errorf("save profile: %w", err)
	}

	m.cancelTimers()
	if err = s.store.ClearActiveSession(ctx, username); err != nil {
		return Summary{}, fmt.Errorf("clear active session: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "finished workout",
		slog.String("username", username),
		slog.String("routine_id", routine.ID),
		slog.Int("completed_sets", entry.CompletedSetCount()),
		slog.Float64("volume", entry.Volume()))
	return Summary{Entry: entry, Volume: entry.Volume(), Profile: p}, nil
}
