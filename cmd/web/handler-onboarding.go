package main

import (
	"net/http"
	"slices"
	"strings"

	"github.com/myrjola/tatugym/internal/errors"
	"github.com/myrjola/tatugym/internal/workout"
)

// profileForm holds the raw form values so that an invalid submission is shown back as typed.
type profileForm struct {
	Name    string
	Age     string
	Weight  string
	Height  string
	Sex     string
	GoalIMC string
	// Invalid lists the names of the rejected fields.
	Invalid []string
}

func (f profileForm) HasError(field string) bool {
	return slices.Contains(f.Invalid, field)
}

type onboardingTemplateData struct {
	BaseTemplateData
	Form profileForm
}

func (app *application) onboardingGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.workoutService.EnsureProfile(r.Context(), username(r), app.now())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	if p.IsProfileComplete {
		redirect(w, r, "/")
		return
	}
	form := profileForm{
		Name:    p.Name,
		Age:     "",
		Weight:  "",
		Height:  "",
		Sex:     string(p.Sex),
		GoalIMC: "",
		Invalid: nil,
	}
	app.render(w, r, http.StatusOK, "onboarding", onboardingTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Form:             form,
	})
}

func parseOnboardingForm(r *http.Request) (workout.OnboardingInput, profileForm) {
	form := profileForm{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Age:     strings.TrimSpace(r.PostFormValue("age")),
		Weight:  strings.TrimSpace(r.PostFormValue("weight")),
		Height:  strings.TrimSpace(r.PostFormValue("height")),
		Sex:     strings.TrimSpace(r.PostFormValue("sex")),
		GoalIMC: strings.TrimSpace(r.PostFormValue("goalIMC")),
		Invalid: nil,
	}
	in := workout.OnboardingInput{
		Name:    form.Name,
		Age:     0,
		Weight:  0,
		Height:  0,
		Sex:     workout.Sex(form.Sex),
		GoalIMC: 0,
	}
	if age, err := formInt(r, "age"); err != nil {
		form.Invalid = append(form.Invalid, "age")
	} else if age != nil {
		in.Age = *age
	}
	if weight, err := formFloat(r, "weight"); err != nil {
		form.Invalid = append(form.Invalid, "weight")
	} else if weight != nil {
		in.Weight = *weight
	}
	if height, err := formFloat(r, "height"); err != nil {
		form.Invalid = append(form.Invalid, "height")
	} else if height != nil {
		in.Height = *height
	}
	if goal, err := formFloat(r, "goalIMC"); err != nil {
		form.Invalid = append(form.Invalid, "goalIMC")
	} else if goal != nil {
		in.GoalIMC = *goal
	}
	return in, form
}

func (app *application) onboardingPOST(w http.ResponseWriter, r *http.Request) {
	in, form := parseOnboardingForm(r)
	var err error
	if len(form.Invalid) == 0 {
		if _, err = app.workoutService.CompleteOnboarding(r.Context(), username(r), in); err == nil {
			redirect(w, r, "/")
			return
		}
		var validationErr *workout.ValidationError
		if !errors.As(err, &validationErr) {
			app.serverError(w, r, err)
			return
		}
		form.Invalid = validationErr.Fields
	}
	app.render(w, r, http.StatusUnprocessableEntity, "onboarding", onboardingTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Form:             form,
	})
}
