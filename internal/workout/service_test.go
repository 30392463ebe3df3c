package workout_test

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/tatugym/internal/catalog"
	"github.com/myrjola/tatugym/internal/ptr"
	"github.com/myrjola/tatugym/internal/testhelpers"
	"github.com/myrjola/tatugym/internal/workout"
)

const testCatalog = `
routines:
  - id: x
    title: Treino X
    exercises:
      - { id: x1, name: Supino, sets: 3, reps: "10", rest_seconds: 30 }
      - { id: x2, name: Remada, sets: 2, reps: "12-15", rest_seconds: 0 }
  - id: solo
    title: Treino Solo
    exercises:
      - { id: s1, name: Agachamento, sets: 3, reps: "8", rest_seconds: 30 }
members:
  tester: [x, solo]
`

// recorder is a Notifier that remembers every event.
type recorder struct {
	mu     sync.Mutex
	events []workout.Event
}

func (r *recorder) add(e workout.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Haptic(string) { r.add(workout.Event{Kind: workout.EventHaptic}) } //nolint:exhaustruct // kind only

func (r *recorder) Tone(string) { r.add(workout.Event{Kind: workout.EventTone}) } //nolint:exhaustruct // kind only

func (r *recorder) ExerciseComplete(_ string, exerciseID string) {
	r.add(workout.Event{Kind: workout.EventExerciseComplete, ExerciseID: exerciseID}) //nolint:exhaustruct // no time
}

func (r *recorder) RestTick(_ string, exerciseID string, remaining int) {
	r.add(workout.Event{Kind: workout.EventRestTick, ExerciseID: exerciseID, Remaining: remaining})
}

func (r *recorder) RestDone(_ string, exerciseID string) {
	r.add(workout.Event{Kind: workout.EventRestDone, ExerciseID: exerciseID}) //nolint:exhaustruct // no time
}

func (r *recorder) count(kind workout.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*workout.Service, *workout.Store, *recorder) {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	store, _ := newTestStore(t)
	rec := &recorder{} //nolint:exhaustruct // zero value is ready
	svc := workout.NewService(store, c, rec, testhelpers.NewTestLogger(t))
	t.Cleanup(svc.Close)
	return svc, store, rec
}

//nolint:gochecknoglobals // fixed test clock
var today = time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC)

func complete() workout.SetPatch {
	return workout.SetPatch{Completed: ptr.Ref(true)} //nolint:exhaustruct // partial update
}

func TestService_restTimerScenario(t *testing.T) {
	c, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	synctest.Test(t, func(t *testing.T) {
		// The database pool is opened and closed by the bubble so that its goroutines share the fake clock.
		store, _ := newTestStore(t)
		ctx := t.Context()
		rec := &recorder{} //nolint:exhaustruct // zero value is ready
		svc := workout.NewService(store, c, rec, testhelpers.NewTestLogger(t))
		defer svc.Close()

		if _, err = svc.StartSession(ctx, "tester", "solo", time.Now()); err != nil {
			t.Fatalf("StartSession() error = %v", err)
		}

		res, err := svc.UpdateSet(ctx, "tester", "s1", 0, complete())
		if err != nil {
			t.Fatalf("UpdateSet(0) error = %v", err)
		}
		if !res.RestStarted || res.RestSeconds != 30 {
			t.Fatalf("UpdateSet(0) rest = %v/%d, want a 30 s rest", res.RestStarted, res.RestSeconds)
		}
		time.Sleep(10 * time.Second)
		synctest.Wait()
		if got := svc.RestTimers("tester")["s1"]; got != 20 {
			t.Errorf("remaining after 10 s = %d, want 20", got)
		}

		if res, err = svc.UpdateSet(ctx, "tester", "s1", 1, complete()); err != nil {
			t.Fatalf("UpdateSet(1) error = %v", err)
		}
		if !res.RestStarted {
			t.Error("UpdateSet(1) did not restart the rest timer")
		}
		if got := svc.RestTimers("tester")["s1"]; got != 30 {
			t.Errorf("remaining after restart = %d, want 30", got)
		}

		time.Sleep(30 * time.Second)
		synctest.Wait()
		if got := rec.count(workout.EventRestDone); got != 1 {
			t.Errorf("rest done fired %d times, want 1", got)
		}
		if got := rec.count(workout.EventTone); got != 1 {
			t.Errorf("tone fired %d times, want 1", got)
		}
		if timers := svc.RestTimers("tester"); len(timers) != 0 {
			t.Errorf("RestTimers() = %v, want none running", timers)
		}

		if res, err = svc.UpdateSet(ctx, "tester", "s1", 2, complete()); err != nil {
			t.Fatalf("UpdateSet(2) error = %v", err)
		}
		if res.RestStarted {
			t.Error("completing the last set started a rest timer")
		}
		if !res.ExerciseComplete {
			t.Error("completing the last set did not complete the exercise")
		}
		if got := res.Session.ProgressPercent(); got != 100 {
			t.Errorf("ProgressPercent() = %d, want 100", got)
		}
		if got := rec.count(workout.EventExerciseComplete); got != 1 {
			t.Errorf("exercise complete fired %d times, want 1", got)
		}
		// Three completions plus the completed rest.
		if got := rec.count(workout.EventHaptic); got != 4 {
			t.Errorf("haptic fired %d times, want 4", got)
		}
	})
}

func TestService_navigationCancelsTimers(t *testing.T) {
	c, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	synctest.Test(t, func(t *testing.T) {
		store, _ := newTestStore(t)
		ctx := t.Context()
		rec := &recorder{} //nolint:exhaustruct // zero value is ready
		svc := workout.NewService(store, c, rec, testhelpers.NewTestLogger(t))
		defer svc.Close()

		if _, err = svc.StartSession(ctx, "tester", "x", time.Now()); err != nil {
			t.Fatalf("StartSession() error = %v", err)
		}
		if _, err = svc.UpdateSet(ctx, "tester", "x1", 0, complete()); err != nil {
			t.Fatalf("UpdateSet() error = %v", err)
		}
		svc.CancelRestTimers("tester")
		time.Sleep(time.Minute)
		synctest.Wait()
		if got := rec.count(workout.EventRestDone); got != 0 {
			t.Errorf("rest done fired %d times after cancel, want 0", got)
		}
	})
}

func TestService_StartSession(t *testing.T) {
	ctx := t.Context()
	svc, store, _ := newTestService(t)

	if _, err := svc.StartSession(ctx, "tester", "missing", today); !errors.Is(err, workout.ErrRoutineNotFound) {
		t.Errorf("StartSession(missing) error = %v, want ErrRoutineNotFound", err)
	}
	if _, err := svc.StartSession(ctx, "stranger", "x", today); !errors.Is(err, workout.ErrRoutineNotFound) {
		t.Errorf("StartSession(stranger) error = %v, want ErrRoutineNotFound", err)
	}

	p := workout.NewProfile("tester")
	p.Weights["x1"] = 42.5
	if err := store.Save(ctx, "tester", p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	session, err := svc.StartSession(ctx, "tester", "x", today)
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	want := map[string]workout.ExerciseSession{
		"x1": {Sets: []workout.SetPerformance{
			{Weight: 42.5, Reps: 10, RPE: nil, Completed: false},
			{Weight: 42.5, Reps: 10, RPE: nil, Completed: false},
			{Weight: 42.5, Reps: 10, RPE: nil, Completed: false},
		}},
		"x2": {Sets: []workout.SetPerformance{
			{Weight: 0, Reps: 12, RPE: nil, Completed: false},
			{Weight: 0, Reps: 12, RPE: nil, Completed: false},
		}},
	}
	if diff := cmp.Diff(want, session.Exercises); diff != "" {
		t.Errorf("seeded sets mismatch (-want +got):\n%s", diff)
	}
	if session.ProgressPercent() != 0 || session.TotalSetCount() != 5 {
		t.Errorf("progress = %d%% of %d sets", session.ProgressPercent(), session.TotalSetCount())
	}

	// Entering the same routine again resumes it.
	if _, err = svc.UpdateSet(ctx, "tester", "x2", 1, workout.SetPatch{ //nolint:exhaustruct // partial update
		Weight: ptr.Ref(15.0),
	}); err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}
	if session, err = svc.StartSession(ctx, "tester", "x", today.Add(time.Hour)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if got := session.Exercises["x2"].Sets[1].Weight; got != 15 {
		t.Errorf("resumed weight = %v, want 15", got)
	}
	if !session.StartedAt.Equal(today) {
		t.Errorf("resumed StartedAt = %v, want %v", session.StartedAt, today)
	}

	// Another routine replaces it.
	if session, err = svc.StartSession(ctx, "tester", "solo", today); err != nil {
		t.Fatalf("StartSession(solo) error = %v", err)
	}
	if session.RoutineID != "solo" || len(session.Exercises) != 1 {
		t.Errorf("StartSession(solo) = %+v", session)
	}
}

func TestService_ResumeSession(t *testing.T) {
	ctx := t.Context()
	svc, store, _ := newTestService(t)

	if _, ok, err := svc.ResumeSession(ctx, "tester"); err != nil || ok {
		t.Fatalf("ResumeSession() = %v, %v, want nothing to resume", ok, err)
	}

	if _, err := svc.StartSession(ctx, "tester", "x", today); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	session, ok, err := svc.ResumeSession(ctx, "tester")
	if err != nil || !ok {
		t.Fatalf("ResumeSession() = %v, %v, want a session", ok, err)
	}
	if session.RoutineID != "x" {
		t.Errorf("resumed routine = %q, want x", session.RoutineID)
	}

	// A session of a routine that is no longer in the catalog is discarded.
	stale := workout.Session{RoutineID: "gone", Exercises: map[string]workout.ExerciseSession{}, StartedAt: today}
	if err = store.SaveActiveSession(ctx, "tester", stale); err != nil {
		t.Fatalf("SaveActiveSession() error = %v", err)
	}
	if _, ok, err = svc.ResumeSession(ctx, "tester"); err != nil || ok {
		t.Errorf("ResumeSession(stale) = %v, %v, want nothing to resume", ok, err)
	}
	if _, err = store.LoadActiveSession(ctx, "tester"); !errors.Is(err, workout.ErrNoActiveSession) {
		t.Errorf("stale session kept, error = %v", err)
	}

	// Set counts follow the catalog.
	shrunk := workout.Session{
		RoutineID: "solo",
		Exercises: map[string]workout.ExerciseSession{
			"s1":      {Sets: make([]workout.SetPerformance, 5)},
			"removed": {Sets: make([]workout.SetPerformance, 1)},
		},
		StartedAt: today,
	}
	if err = store.SaveActiveSession(ctx, "tester", shrunk); err != nil {
		t.Fatalf("SaveActiveSession() error = %v", err)
	}
	if session, ok, err = svc.ResumeSession(ctx, "tester"); err != nil || !ok {
		t.Fatalf("ResumeSession() = %v, %v", ok, err)
	}
	if got := len(session.Exercises["s1"].Sets); got != 3 || len(session.Exercises) != 1 {
		t.Errorf("resumed %d sets in %d exercises, want 3 in 1", got, len(session.Exercises))
	}
}

func TestService_UpdateSet(t *testing.T) {
	ctx := t.Context()
	svc, _, rec := newTestService(t)

	if _, err := svc.UpdateSet(ctx, "tester", "x1", 0, complete()); !errors.Is(err, workout.ErrNoActiveSession) {
		t.Fatalf("UpdateSet() without session error = %v, want ErrNoActiveSession", err)
	}
	if _, err := svc.StartSession(ctx, "tester", "x", today); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	tests := []struct {
		name       string
		exerciseID string
		setIndex   int
		patch      workout.SetPatch
		wantErr    error
		want       workout.SetPerformance
	}{
		{
			name:       "index below range",
			exerciseID: "x1",
			setIndex:   -1,
			patch:      complete(),
			wantErr:    workout.ErrSetOutOfRange,
		},
		{
			name:       "index above range",
			exerciseID: "x1",
			setIndex:   3,
			patch:      complete(),
			wantErr:    workout.ErrSetOutOfRange,
		},
		{
			name:       "unknown exercise",
			exerciseID: "zz",
			setIndex:   0,
			patch:      complete(),
			wantErr:    workout.ErrExerciseNotFound,
		},
		{
			name:       "rpe too high",
			exerciseID: "x1",
			setIndex:   0,
			patch:      workout.SetPatch{RPE: ptr.Ref(11)}, //nolint:exhaustruct // partial update
			wantErr:    workout.ErrInvalidRPE,
		},
		{
			name:       "rpe too low",
			exerciseID: "x1",
			setIndex:   0,
			patch:      workout.SetPatch{RPE: ptr.Ref(5)}, //nolint:exhaustruct // partial update
			wantErr:    workout.ErrInvalidRPE,
		},
		{
			name:       "negative values clamp to zero",
			exerciseID: "x1",
			setIndex:   0,
			patch:      workout.SetPatch{Weight: ptr.Ref(-5.0), Reps: ptr.Ref(-1)}, //nolint:exhaustruct // partial
			want:       workout.SetPerformance{Weight: 0, Reps: 0, RPE: nil, Completed: false},
		},
		{
			name:       "log and complete",
			exerciseID: "x1",
			setIndex:   0,
			patch: workout.SetPatch{
				Weight:    ptr.Ref(20.0),
				Reps:      ptr.Ref(10),
				RPE:       ptr.Ref(8),
				ClearRPE:  false,
				Completed: ptr.Ref(true),
			},
			want: workout.SetPerformance{Weight: 20, Reps: 10, RPE: ptr.Ref(8), Completed: true},
		},
		{
			name:       "repeating the patch is a no-op",
			exerciseID: "x1",
			setIndex:   0,
			patch: workout.SetPatch{
				Weight:    ptr.Ref(20.0),
				Reps:      ptr.Ref(10),
				RPE:       ptr.Ref(8),
				ClearRPE:  false,
				Completed: ptr.Ref(true),
			},
			want: workout.SetPerformance{Weight: 20, Reps: 10, RPE: ptr.Ref(8), Completed: true},
		},
		{
			name:       "completed set is frozen",
			exerciseID: "x1",
			setIndex:   0,
			patch:      workout.SetPatch{Weight: ptr.Ref(25.0)}, //nolint:exhaustruct // partial update
			wantErr:    workout.ErrSetCompleted,
		},
		{
			name:       "clearing rpe of a completed set is an edit",
			exerciseID: "x1",
			setIndex:   0,
			patch:      workout.SetPatch{ClearRPE: true}, //nolint:exhaustruct // partial update
			wantErr:    workout.ErrSetCompleted,
		},
		{
			name:       "uncomplete and edit together",
			exerciseID: "x1",
			setIndex:   0,
			patch: workout.SetPatch{
				Weight:    ptr.Ref(25.0),
				Reps:      nil,
				RPE:       nil,
				ClearRPE:  true,
				Completed: ptr.Ref(false),
			},
			want: workout.SetPerformance{Weight: 25, Reps: 10, RPE: nil, Completed: false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.UpdateSet(ctx, "tester", tt.exerciseID, tt.setIndex, tt.patch)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateSet() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateSet() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, res.Set); diff != "" {
				t.Errorf("set mismatch (-want +got):\n%s", diff)
			}
			session, _, err := svc.ActiveSession(ctx, "tester")
			if err != nil {
				t.Fatalf("ActiveSession() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, session.Exercises[tt.exerciseID].Sets[tt.setIndex]); diff != "" {
				t.Errorf("persisted set mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if got := rec.count(workout.EventHaptic); got != 1 {
		t.Errorf("haptic fired %d times, want 1 for a single completion", got)
	}
}

func TestService_AdjustValue(t *testing.T) {
	ctx := t.Context()
	svc, _, _ := newTestService(t)
	if _, err := svc.StartSession(ctx, "tester", "x", today); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	steps := []struct {
		field   workout.Field
		delta   float64
		wantErr error
		want    workout.SetPerformance
	}{
		{field: workout.FieldWeight, delta: 2.5, want: workout.SetPerformance{Weight: 2.5, Reps: 12}},  //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldWeight, delta: 2.5, want: workout.SetPerformance{Weight: 5, Reps: 12}},    //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldWeight, delta: -10, want: workout.SetPerformance{Weight: 0, Reps: 12}},    //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldReps, delta: -1, want: workout.SetPerformance{Weight: 0, Reps: 11}},       //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldReps, delta: -20, want: workout.SetPerformance{Weight: 0, Reps: 0}},       //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldRPE, delta: 1, want: workout.SetPerformance{RPE: ptr.Ref(workout.MinRPE)}}, //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldRPE, delta: 10, want: workout.SetPerformance{RPE: ptr.Ref(workout.MaxRPE)}}, //nolint:exhaustruct,lll // incomplete
		{field: workout.FieldRPE, delta: -10, want: workout.SetPerformance{RPE: ptr.Ref(workout.MinRPE)}}, //nolint:exhaustruct,lll // incomplete
		{field: workout.Field("tempo"), delta: 1, wantErr: workout.ErrInvalidField},
	}
	for _, step := range steps {
		res, err := svc.AdjustValue(ctx, "tester", "x2", 0, step.field, step.delta)
		if step.wantErr != nil {
			if !errors.Is(err, step.wantErr) {
				t.Errorf("AdjustValue(%s, %v) error = %v, want %v", step.field, step.delta, err, step.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("AdjustValue(%s, %v) error = %v", step.field, step.delta, err)
		}
		got := res.Set
		if step.field == workout.FieldRPE {
			got = workout.SetPerformance{RPE: got.RPE} //nolint:exhaustruct // compare rpe only
		} else {
			got.RPE = nil
		}
		if diff := cmp.Diff(step.want, got); diff != "" {
			t.Errorf("AdjustValue(%s, %v) mismatch (-want +got):\n%s", step.field, step.delta, diff)
		}
	}

	if _, err := svc.UpdateSet(ctx, "tester", "x2", 0, complete()); err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}
	if _, err := svc.AdjustValue(ctx, "tester", "x2", 0, workout.FieldWeight, 1); !errors.Is(err,
		workout.ErrSetCompleted) {
		t.Errorf("AdjustValue() on completed set error = %v, want ErrSetCompleted", err)
	}
}

func TestService_FinishWorkout(t *testing.T) {
	ctx := t.Context()
	svc, store, _ := newTestService(t)
	if _, err := svc.StartSession(ctx, "tester", "x", today); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	if _, err := svc.FinishWorkout(ctx, "tester", today); !errors.Is(err, workout.ErrNothingCompleted) {
		t.Fatalf("FinishWorkout() error = %v, want ErrNothingCompleted", err)
	}

	updates := []struct {
		exerciseID string
		setIndex   int
		patch      workout.SetPatch
	}{
		// Completed out of order: the remembered weight follows the set index.
		{exerciseID: "x1", setIndex: 1, patch: workout.SetPatch{ //nolint:exhaustruct // partial update
			Weight: ptr.Ref(30.0), Reps: ptr.Ref(0), Completed: ptr.Ref(true),
		}},
		{exerciseID: "x1", setIndex: 0, patch: workout.SetPatch{ //nolint:exhaustruct // partial update
			Weight: ptr.Ref(20.0), Reps: ptr.Ref(10), Completed: ptr.Ref(true),
		}},
		{exerciseID: "x1", setIndex: 2, patch: workout.SetPatch{ //nolint:exhaustruct // partial update
			Weight: ptr.Ref(0.0), Reps: ptr.Ref(8),
		}},
	}
	for _, u := range updates {
		if _, err := svc.UpdateSet(ctx, "tester", u.exerciseID, u.setIndex, u.patch); err != nil {
			t.Fatalf("UpdateSet(%s, %d) error = %v", u.exerciseID, u.setIndex, err)
		}
	}

	summary, err := svc.FinishWorkout(ctx, "tester", today)
	if err != nil {
		t.Fatalf("FinishWorkout() error = %v", err)
	}
	if summary.Volume != 200 {
		t.Errorf("Volume = %v, want 200", summary.Volume)
	}
	if summary.Entry.ID == "" || summary.Entry.WorkoutID != "x" || summary.Entry.WorkoutTitle != "Treino X" {
		t.Errorf("Entry = %+v", summary.Entry)
	}
	var ids []string
	for _, e := range summary.Entry.Exercises {
		ids = append(ids, e.ExerciseID)
	}
	if diff := cmp.Diff([]string{"x1", "x2"}, ids); diff != "" {
		t.Errorf("entry exercises mismatch (-want +got):\n%s", diff)
	}

	p, err := store.Load(ctx, "tester")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"x1": 30}, p.Weights); diff != "" {
		t.Errorf("Weights mismatch (-want +got):\n%s", diff)
	}
	if p.TotalWorkouts != 1 || p.Streak != 1 {
		t.Errorf("TotalWorkouts = %d, Streak = %d, want 1 and 1", p.TotalWorkouts, p.Streak)
	}
	if diff := cmp.Diff([]string{"2026-03-10"}, p.CheckIns); diff != "" {
		t.Errorf("CheckIns mismatch (-want +got):\n%s", diff)
	}
	if len(p.History) != 1 || p.History[0].ID != summary.Entry.ID {
		t.Fatalf("History = %+v, want the new entry", p.History)
	}
	if _, err = store.LoadActiveSession(ctx, "tester"); !errors.Is(err, workout.ErrNoActiveSession) {
		t.Errorf("session not cleared, error = %v", err)
	}

	// A second workout on the same day does not duplicate the check-in and goes first in the history.
	if _, err = svc.StartSession(ctx, "tester", "solo", today); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if _, err = svc.UpdateSet(ctx, "tester", "s1", 0, complete()); err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}
	if summary, err = svc.FinishWorkout(ctx, "tester", today.Add(time.Hour)); err != nil {
		t.Fatalf("FinishWorkout() error = %v", err)
	}
	p = summary.Profile
	if len(p.CheckIns) != 1 || p.TotalWorkouts != 2 {
		t.Errorf("CheckIns = %v, TotalWorkouts = %d", p.CheckIns, p.TotalWorkouts)
	}
	if got := []string{p.History[0].WorkoutID, p.History[1].WorkoutID}; !slices.Equal(got, []string{"solo", "x"}) {
		t.Errorf("history order = %v, want newest first", got)
	}
}

func TestService_AbandonSession(t *testing.T) {
	ctx := t.Context()
	svc, store, _ := newTestService(t)
	if _, err := svc.StartSession(ctx, "tester", "x", today); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if _, err := svc.UpdateSet(ctx, "tester", "x1", 0, complete()); err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}
	if err := svc.AbandonSession(ctx, "tester"); err != nil {
		t.Fatalf("AbandonSession() error = %v", err)
	}
	if timers := svc.RestTimers("tester"); len(timers) != 0 {
		t.Errorf("RestTimers() = %v, want none", timers)
	}
	if _, err := store.LoadActiveSession(ctx, "tester"); !errors.Is(err, workout.ErrNoActiveSession) {
		t.Errorf("LoadActiveSession() error = %v, want ErrNoActiveSession", err)
	}
	p, err := svc.EnsureProfile(ctx, "tester", today)
	if err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if len(p.History) != 0 || p.TotalWorkouts != 0 {
		t.Errorf("abandoning recorded a workout: %+v", p)
	}
}

func TestService_CheckIn(t *testing.T) {
	ctx := t.Context()
	svc, _, _ := newTestService(t)

	p, added, err := svc.CheckIn(ctx, "tester", today)
	if err != nil || !added {
		t.Fatalf("CheckIn() = %v, %v", added, err)
	}
	if p.TotalWorkouts != 1 || p.Streak != 1 {
		t.Errorf("after first check-in TotalWorkouts = %d, Streak = %d", p.TotalWorkouts, p.Streak)
	}
	if p, added, err = svc.CheckIn(ctx, "tester", today.Add(2*time.Hour)); err != nil || added {
		t.Fatalf("second CheckIn() = %v, %v, want no change", added, err)
	}
	if p.TotalWorkouts != 1 {
		t.Errorf("TotalWorkouts = %d after repeated check-in, want 1", p.TotalWorkouts)
	}
	if p, _, err = svc.CheckIn(ctx, "tester", today.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("CheckIn() error = %v", err)
	}
	if p.Streak != 2 || p.TotalWorkouts != 2 {
		t.Errorf("next day Streak = %d, TotalWorkouts = %d, want 2 and 2", p.Streak, p.TotalWorkouts)
	}

	// Missing days decay the streak when the profile is loaded.
	if p, err = svc.EnsureProfile(ctx, "tester", today.AddDate(0, 0, 5)); err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if p.Streak != 0 {
		t.Errorf("Streak after a gap = %d, want 0", p.Streak)
	}
}

func TestService_CompleteOnboarding(t *testing.T) {
	ctx := t.Context()
	svc, _, _ := newTestService(t)

	p, err := svc.EnsureProfile(ctx, " Tester", today)
	if err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if p.IsProfileComplete || p.Goal != workout.DefaultGoal || p.Username != "tester" {
		t.Errorf("new profile = %+v", p)
	}

	_, err = svc.CompleteOnboarding(ctx, "tester", workout.OnboardingInput{ //nolint:exhaustruct // missing fields
		Name:   "  ",
		Height: 1.7,
	})
	var verr *workout.ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, workout.ErrValidation) {
		t.Fatalf("CompleteOnboarding() error = %v, want a validation error", err)
	}
	if diff := cmp.Diff([]string{"name", "age", "weight"}, verr.Fields); diff != "" {
		t.Errorf("invalid fields mismatch (-want +got):\n%s", diff)
	}
	if p, err = svc.EnsureProfile(ctx, "tester", today); err != nil || p.IsProfileComplete {
		t.Fatalf("invalid onboarding changed the profile: %+v, %v", p, err)
	}

	p, err = svc.CompleteOnboarding(ctx, "tester", workout.OnboardingInput{
		Name:    " Tester ",
		Age:     30,
		Weight:  70,
		Height:  175,
		Sex:     workout.SexFemale,
		GoalIMC: 22,
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding() error = %v", err)
	}
	if !p.IsProfileComplete || p.Name != "Tester" || p.BMI().Value != 22.9 {
		t.Errorf("onboarded profile = %+v", p)
	}

	if _, err = svc.UpdateSettings(ctx, "tester", workout.ProfilePatch{ //nolint:exhaustruct // partial update
		GoalWorkouts: ptr.Ref(0),
	}); !errors.Is(err, workout.ErrValidation) {
		t.Errorf("UpdateSettings(goal 0) error = %v, want ErrValidation", err)
	}
	if p, err = svc.UpdateSettings(ctx, "tester", workout.ProfilePatch{ //nolint:exhaustruct // partial update
		Goal:       ptr.Ref("Força"),
		GoalStreak: ptr.Ref(30),
	}); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if p.Goal != "Força" || p.GoalStreak != 30 || p.Weight != 70 {
		t.Errorf("settings = goal %q, streak goal %d, weight %v", p.Goal, p.GoalStreak, p.Weight)
	}
}
