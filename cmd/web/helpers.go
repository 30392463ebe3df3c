package main

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/tatugym/internal/contexthelpers"
	"github.com/myrjola/tatugym/internal/errors"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", errors.SlogError(err))
	app.render(w, r, http.StatusInternalServerError, "error", newBaseTemplateData(r))
}

func (app *application) notFound(w http.ResponseWriter, r *http.Request) {
	app.render(w, r, http.StatusNotFound, "not-found", newBaseTemplateData(r))
}

// redirect detects if the request is originating from a fetch API call or a top-level navigation and points the user
// to the correct URL.
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("Sec-Fetch-Dest") == "empty" {
		w.Header().Set("Content-Location", path)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, path, http.StatusSeeOther)
}

// username returns the logged-in member. The routes guarantee it is set for mustSession handlers.
func username(r *http.Request) string {
	return contexthelpers.AuthenticatedUsername(r.Context())
}

// parseSetIndexParam parses the "setIndex" path parameter. On failure it responds with 404.
func (app *application) parseSetIndexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	setIndex, err := strconv.Atoi(r.PathValue("setIndex"))
	if err != nil {
		app.notFound(w, r)
		return 0, false
	}
	return setIndex, true
}

// formFloat parses an optional decimal form value. Both "62.5" and "62,5" are accepted.
func formFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return nil, nil //nolint:nilnil // absent
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errors.Wrap(errInvalidForm, "parse decimal", slog.String("field", key))
	}
	return &f, nil
}

// formInt parses an optional integer form value.
func formInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.PostFormValue(key))
	if raw == "" {
		return nil, nil //nolint:nilnil // absent
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, errors.Wrap(errInvalidForm, "parse integer", slog.String("field", key))
	}
	return &n, nil
}

// formString returns nil for an absent or blank form value.
func formString(r *http.Request, key string) *string {
	s := strings.TrimSpace(r.PostFormValue(key))
	if s == "" {
		return nil
	}
	return &s
}

var errInvalidForm = errors.NewSentinel("invalid form value")
