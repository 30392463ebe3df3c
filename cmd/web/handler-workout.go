package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/tatugym/internal/catalog"
	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/ptr"
	"github.com/myrjola/tatugym/internal/workout"
)

type rpeOption struct {
	Value    int
	Selected bool
}

type setView struct {
	Index int
	// Number is the one-based set number shown to the member.
	Number int
	workout.SetPerformance
	RPEOptions []rpeOption
}

// RPEValue is the selected RPE or 0 when unset.
func (s setView) RPEValue() int {
	if s.RPE == nil {
		return 0
	}
	return *s.RPE
}

type exerciseView struct {
	catalog.Exercise
	Sets     []setView
	Complete bool
	// RestRemaining is the seconds left of a running rest timer, or 0.
	RestRemaining int
}

type workoutTemplateData struct {
	BaseTemplateData
	Routine   catalog.Routine
	Session   workout.Session
	Exercises []exerciseView
	// Message is the translation key of a rejected action.
	Message string
}

func rpeOptions(selected *int) []rpeOption {
	options := make([]rpeOption, 0, workout.MaxRPE-workout.MinRPE+1)
	for v := workout.MinRPE; v <= workout.MaxRPE; v++ {
		options = append(options, rpeOption{Value: v, Selected: selected != nil && *selected == v})
	}
	return options
}

func newWorkoutTemplateData(
	r *http.Request,
	session workout.Session,
	routine catalog.Routine,
	restTimers map[string]int,
	message string,
) workoutTemplateData {
	exercises := make([]exerciseView, 0, len(routine.Exercises))
	for _, ex := range routine.Exercises {
		es := session.Exercises[ex.ID]
		view := exerciseView{
			Exercise:      ex,
			Sets:          make([]setView, 0, len(es.Sets)),
			Complete:      es.Complete(),
			RestRemaining: restTimers[ex.ID],
		}
		for i, set := range es.Sets {
			view.Sets = append(view.Sets, setView{
				Index:          i,
				Number:         i + 1,
				SetPerformance: set,
				RPEOptions:     rpeOptions(set.RPE),
			})
		}
		exercises = append(exercises, view)
	}
	return workoutTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Routine:          routine,
		Session:          session,
		Exercises:        exercises,
		Message:          message,
	}
}

func (app *application) workoutStartPOST(w http.ResponseWriter, r *http.Request) {
	_, err := app.workoutService.StartSession(r.Context(), username(r), r.PathValue("routineID"), app.now())
	if err != nil {
		if errors.Is(err, workout.ErrRoutineNotFound) {
			app.notFound(w, r)
			return
		}
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/workout")
}

func (app *application) renderWorkout(w http.ResponseWriter, r *http.Request, status int, message string) {
	user := username(r)
	session, routine, err := app.workoutService.ActiveSession(r.Context(), user)
	if err != nil {
		if errors.Is(err, workout.ErrNoActiveSession) {
			redirect(w, r, "/")
			return
		}
		app.serverError(w, r, err)
		return
	}
	data := newWorkoutTemplateData(r, session, routine, app.workoutService.RestTimers(user), message)
	app.render(w, r, status, "workout", data)
}

func (app *application) workoutGET(w http.ResponseWriter, r *http.Request) {
	app.renderWorkout(w, r, http.StatusOK, "")
}

// handleSetError responds to a rejected set update.
func (app *application) handleSetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workout.ErrNoActiveSession):
		redirect(w, r, "/")
	case errors.Is(err, workout.ErrExerciseNotFound), errors.Is(err, workout.ErrSetOutOfRange):
		app.notFound(w, r)
	case errors.Is(err, workout.ErrInvalidRPE):
		app.renderWorkout(w, r, http.StatusUnprocessableEntity, "workout.invalidRPE")
	case errors.Is(err, workout.ErrSetCompleted):
		app.renderWorkout(w, r, http.StatusUnprocessableEntity, "workout.setCompleted")
	case errors.Is(err, workout.ErrInvalidField), errors.Is(err, errInvalidForm):
		app.renderWorkout(w, r, http.StatusUnprocessableEntity, "workout.invalidValue")
	default:
		app.serverError(w, r, err)
	}
}

// parseSetPatch reads the set form. Fields missing from the form are left untouched and an empty RPE clears it.
func parseSetPatch(r *http.Request) (workout.SetPatch, error) {
	patch := workout.SetPatch{Weight: nil, Reps: nil, RPE: nil, ClearRPE: false, Completed: nil}
	if err := r.ParseForm(); err != nil {
		return patch, errors.Wrap(errInvalidForm, "parse form")
	}
	var err error
	if patch.Weight, err = formFloat(r, "weight"); err != nil {
		return patch, err
	}
	if patch.Reps, err = formInt(r, "reps"); err != nil {
		return patch, err
	}
	if r.PostForm.Has("rpe") {
		if patch.RPE, err = formInt(r, "rpe"); err != nil {
			return patch, err
		}
		patch.ClearRPE = patch.RPE == nil
	}
	switch r.PostFormValue("completed") {
	case "true":
		patch.Completed = ptr.Ref(true)
	case "false":
		patch.Completed = ptr.Ref(false)
	}
	return patch, nil
}

func exerciseAnchor(exerciseID string) string {
	return fmt.Sprintf("/workout#exercise-%s", exerciseID)
}

func (app *application) workoutSetPOST(w http.ResponseWriter, r *http.Request) {
	setIndex, ok := app.parseSetIndexParam(w, r)
	if !ok {
		return
	}
	exerciseID := r.PathValue("exerciseID")
	patch, err := parseSetPatch(r)
	if err != nil {
		app.handleSetError(w, r, err)
		return
	}
	if _, err = app.workoutService.UpdateSet(r.Context(), username(r), exerciseID, setIndex, patch); err != nil {
		app.handleSetError(w, r, err)
		return
	}
	redirect(w, r, exerciseAnchor(exerciseID))
}

// parseStep parses the "field:delta" value of an adjust button, e.g. "weight:-2.5".
func parseStep(step string) (workout.Field, float64, error) {
	field, rawDelta, found := strings.Cut(step, ":")
	if !found {
		return "", 0, errors.Wrap(errInvalidForm, "step without delta")
	}
	delta, err := strconv.ParseFloat(rawDelta, 64)
	if err != nil {
		return "", 0, errors.Wrap(errInvalidForm, "parse step delta")
	}
	return workout.Field(field), delta, nil
}

func (app *application) workoutSetAdjustPOST(w http.ResponseWriter, r *http.Request) {
	setIndex, ok := app.parseSetIndexParam(w, r)
	if !ok {
		return
	}
	exerciseID := r.PathValue("exerciseID")
	field, delta, err := parseStep(r.PostFormValue("step"))
	if err != nil {
		app.handleSetError(w, r, err)
		return
	}
	if _, err = app.workoutService.AdjustValue(
		r.Context(), username(r), exerciseID, setIndex, field, delta); err != nil {
		app.handleSetError(w, r, err)
		return
	}
	redirect(w, r, exerciseAnchor(exerciseID))
}

func (app *application) workoutFinishPOST(w http.ResponseWriter, r *http.Request) {
	summary, err := app.workoutService.FinishWorkout(r.Context(), username(r), app.now())
	if err != nil {
		switch {
		case errors.Is(err, workout.ErrNoActiveSession):
			redirect(w, r, "/")
		case errors.Is(err, workout.ErrNothingCompleted):
			app.renderWorkout(w, r, http.StatusUnprocessableEntity, "workout.nothingCompleted")
		default:
			app.serverError(w, r, err)
		}
		return
	}
	redirect(w, r, fmt.Sprintf("/history/%s?finished=1", summary.Entry.ID))
}

type abandonTemplateData struct {
	BaseTemplateData
	Routine catalog.Routine
	Session workout.Session
}

// workoutAbandonGET asks for confirmation before the workout in progress is discarded.
func (app *application) workoutAbandonGET(w http.ResponseWriter, r *http.Request) {
	session, routine, err := app.workoutService.ActiveSession(r.Context(), username(r))
	if err != nil {
		if errors.Is(err, workout.ErrNoActiveSession) {
			redirect(w, r, "/")
			return
		}
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "abandon", abandonTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Routine:          routine,
		Session:          session,
	})
}

func (app *application) workoutAbandonPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.workoutService.AbandonSession(r.Context(), username(r)); err != nil {
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}
