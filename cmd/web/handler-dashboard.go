package main

import (
	"net/http"

	"github.com/myrjola/tatugym/internal/catalog"
	"github.com/myrjola/tatugym/internal/chat"
	"github.com/myrjola/tatugym/internal/stats"
	"github.com/myrjola/tatugym/internal/workout"
	"golang.org/x/sync/errgroup"
)

type dashboardTemplateData struct {
	BaseTemplateData
	Profile   workout.Profile
	BMI       stats.BMIResult
	CheckedIn bool
	Routines  []catalog.Routine
}

// dashboardGET shows the member overview. A workout in progress is re-entered instead, so reloading the app never
// loses the session.
func (app *application) dashboardGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := username(r)
	now := app.now()
	p, err := app.workoutService.EnsureProfile(ctx, user, now)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if !p.IsProfileComplete {
		redirect(w, r, "/onboarding")
		return
	}
	_, resumed, err := app.workoutService.ResumeSession(ctx, user)
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if resumed {
		redirect(w, r, "/workout")
		return
	}

	app.render(w, r, http.StatusOK, "dashboard", dashboardTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Profile:          p,
		BMI:              p.BMI(),
		CheckedIn:        p.CheckedIn(now),
		Routines:         app.workoutService.Routines(user),
	})
}

func (app *application) checkInPOST(w http.ResponseWriter, r *http.Request) {
	if _, _, err := app.workoutService.CheckIn(r.Context(), username(r), app.now()); err != nil {
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

type routineAdvice struct {
	Routine catalog.Routine
	Advice  chat.Advice
}

type adviceTemplateData struct {
	BaseTemplateData
	Goal   string
	Advice []routineAdvice
}

// maxConcurrentAdvice bounds the completions requested at once for one page.
const maxConcurrentAdvice = 3

// adviceGET asks the assistant for tips for every routine of the member.
func (app *application) adviceGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := username(r)
	p, err := app.workoutService.EnsureProfile(ctx, user, app.now())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	routines := app.workoutService.Routines(user)
	advice := make([]routineAdvice, len(routines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAdvice)
	for i, routine := range routines {
		g.Go(func() error {
			advice[i] = routineAdvice{
				Routine: routine,
				Advice:  app.chatGateway.WorkoutAdvice(gctx, routine.Title, p.Goal),
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		app.serverError(w, r, err)
		return
	}

	app.render(w, r, http.StatusOK, "advice", adviceTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Goal:             p.Goal,
		Advice:           advice,
	})
}
