package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/myrjola/tatugym/internal/i18n"
)

// languageCookieName remembers the UI language across sessions. Login does not change it.
const languageCookieName = "tatugym_language"

const languageCookieLifetime = 365 * 24 * time.Hour

// localRedirectTarget returns next when it is a path on this site and "/" otherwise.
//
// Anything with a scheme, a host or a leading "//" or "/\" could send the browser elsewhere.
func localRedirectTarget(next string) string {
	if len(next) < 1 || next[0] != '/' {
		return "/"
	}
	if len(next) > 1 && (next[1] == '/' || next[1] == '\\') {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

// setLanguagePOST stores the chosen UI language and returns to the page the picker was rendered on.
func (app *application) setLanguagePOST(w http.ResponseWriter, r *http.Request) {
	lang := i18n.Language(r.PostFormValue("language"))
	if !i18n.IsSupported(lang) {
		http.Error(w, "Invalid language", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{ //nolint:exhaustruct // defaults are fine
		Name:     languageCookieName,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   int(languageCookieLifetime.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, localRedirectTarget(r.PostFormValue("next")))
}
