package main

import (
	"net/http"

	"github.com/myrjola/tatugym/internal/workout"
)

type historyTemplateData struct {
	BaseTemplateData
	Entries []workout.HistoryEntry
}

func (app *application) historyGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.workoutService.EnsureProfile(r.Context(), username(r), app.now())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "history", historyTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Entries:          p.History,
	})
}

type historyEntryTemplateData struct {
	BaseTemplateData
	Entry workout.HistoryEntry
	// Finished is set right after the workout was finished to show the summary.
	Finished bool
	Profile  workout.Profile
}

func (app *application) historyEntryGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.workoutService.EnsureProfile(r.Context(), username(r), app.now())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	entryID := r.PathValue("entryID")
	for _, entry := range p.History {
		if entry.ID == entryID {
			app.render(w, r, http.StatusOK, "history-entry", historyEntryTemplateData{
				BaseTemplateData: newBaseTemplateData(r),
				Entry:            entry,
				Finished:         r.URL.Query().Get("finished") == "1",
				Profile:          p,
			})
			return
		}
	}
	app.notFound(w, r)
}
