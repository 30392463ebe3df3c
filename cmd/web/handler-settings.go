package main

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/ptr"
	"github.com/myrjola/tatugym/internal/workout"
)

// goals are the training goals offered in the settings.
//
//nolint:gochecknoglobals // static list.
var goals = []string{workout.DefaultGoal, "Emagrecimento", "Condicionamento", "Força"}

type settingsForm struct {
	Name         string
	Age          string
	Weight       string
	Height       string
	Sex          string
	Goal         string
	GoalIMC      string
	GoalStreak   string
	GoalWorkouts string
	Invalid      []string
}

func (f settingsForm) HasError(field string) bool {
	return slices.Contains(f.Invalid, field)
}

type settingsTemplateData struct {
	BaseTemplateData
	Form  settingsForm
	Goals []string
	Saved bool
}

func formatOptionalFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return formatFloat(f)
}

func formatOptionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func newSettingsForm(p workout.Profile) settingsForm {
	return settingsForm{
		Name:         p.Name,
		Age:          formatOptionalInt(p.Age),
		Weight:       formatOptionalFloat(p.Weight),
		Height:       formatOptionalFloat(p.Height),
		Sex:          string(p.Sex),
		Goal:         p.Goal,
		GoalIMC:      formatOptionalFloat(p.GoalIMC),
		GoalStreak:   formatOptionalInt(p.GoalStreak),
		GoalWorkouts: formatOptionalInt(p.GoalWorkouts),
		Invalid:      nil,
	}
}

func (app *application) settingsGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.workoutService.EnsureProfile(r.Context(), username(r), app.now())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.render(w, r, http.StatusOK, "settings", settingsTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Form:             newSettingsForm(p),
		Goals:            goals,
		Saved:            r.URL.Query().Get("saved") == "1",
	})
}

// parseSettingsForm reads the settings form. Blank fields keep their stored value.
func parseSettingsForm(r *http.Request) (workout.ProfilePatch, settingsForm) {
	form := settingsForm{
		Name:         strings.TrimSpace(r.PostFormValue("name")),
		Age:          strings.TrimSpace(r.PostFormValue("age")),
		Weight:       strings.TrimSpace(r.PostFormValue("weight")),
		Height:       strings.TrimSpace(r.PostFormValue("height")),
		Sex:          strings.TrimSpace(r.PostFormValue("sex")),
		Goal:         strings.TrimSpace(r.PostFormValue("goal")),
		GoalIMC:      strings.TrimSpace(r.PostFormValue("goalIMC")),
		GoalStreak:   strings.TrimSpace(r.PostFormValue("goalStreak")),
		GoalWorkouts: strings.TrimSpace(r.PostFormValue("goalWorkouts")),
		Invalid:      nil,
	}
	patch := workout.ProfilePatch{
		Name:              formString(r, "name"),
		Age:               nil,
		Weight:            nil,
		Height:            nil,
		Sex:               nil,
		GoalIMC:           nil,
		Goal:              formString(r, "goal"),
		GoalStreak:        nil,
		GoalWorkouts:      nil,
		IsProfileComplete: nil,
	}
	if r.PostForm.Has("sex") {
		patch.Sex = ptr.Ref(workout.Sex(form.Sex))
	}

	var err error
	for field, dst := range map[string]**int{
		"age":          &patch.Age,
		"goalStreak":   &patch.GoalStreak,
		"goalWorkouts": &patch.GoalWorkouts,
	} {
		if *dst, err = formInt(r, field); err != nil {
			form.Invalid = append(form.Invalid, field)
		}
	}
	for field, dst := range map[string]**float64{
		"weight":  &patch.Weight,
		"height":  &patch.Height,
		"goalIMC": &patch.GoalIMC,
	} {
		if *dst, err = formFloat(r, field); err != nil {
			form.Invalid = append(form.Invalid, field)
		}
	}
	slices.Sort(form.Invalid)
	return patch, form
}

func (app *application) settingsPOST(w http.ResponseWriter, r *http.Request) {
	patch, form := parseSettingsForm(r)
	if len(form.Invalid) == 0 {
		_, err := app.workoutService.UpdateSettings(r.Context(), username(r), patch)
		if err == nil {
			redirect(w, r, "/settings?saved=1")
			return
		}
		var validationErr *workout.ValidationError
		if !errors.As(err, &validationErr) {
			app.serverError(w, r, err)
			return
		}
		form.Invalid = validationErr.Fields
	}
	app.render(w, r, http.StatusUnprocessableEntity, "settings", settingsTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Form:             form,
		Goals:            goals,
		Saved:            false,
	})
}
