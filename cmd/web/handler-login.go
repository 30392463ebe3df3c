package main

import (
	"net/http"

	"github.com/myrjola/tatugym/internal/auth"
	"github.com/myrjola/tatugym/internal/contexthelpers"
	"github.com/myrjola/tatugym/internal/errors"
)

type loginTemplateData struct {
	BaseTemplateData
	Username   string
	RememberMe bool
	Invalid    bool
}

func (app *application) loginGET(w http.ResponseWriter, r *http.Request) {
	if contexthelpers.IsAuthenticated(r.Context()) {
		redirect(w, r, "/")
		return
	}
	remembered := app.authenticator.RememberedUsername(r)
	app.render(w, r, http.StatusOK, "login", loginTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Username:         remembered,
		RememberMe:       remembered != "",
		Invalid:          false,
	})
}

func (app *application) loginPOST(w http.ResponseWriter, r *http.Request) {
	var (
		username   = r.PostFormValue("username")
		password   = r.PostFormValue("password")
		rememberMe = r.PostFormValue("remember") == "on"
	)
	if _, err := app.authenticator.Login(w, r, username, password, rememberMe); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			app.render(w, r, http.StatusUnprocessableEntity, "login", loginTemplateData{
				BaseTemplateData: newBaseTemplateData(r),
				Username:         username,
				RememberMe:       rememberMe,
				Invalid:          true,
			})
			return
		}
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

func (app *application) logoutPOST(w http.ResponseWriter, r *http.Request) {
	if username := contexthelpers.AuthenticatedUsername(r.Context()); username != "" {
		app.workoutService.CancelRestTimers(username)
	}
	if err := app.authenticator.Logout(w, r); err != nil {
		app.serverError(w, r, err)
		return
	}
	redirect(w, r, "/login")
}
