// Package auth logs members in against a fixed allow-list and keeps them logged in with an scs session.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

type sessionKey string

const (
	usernameSessionKey sessionKey = "username"

	rememberCookieName = "tatugym_remember"
	// RememberLifetime is how long the login form is prefilled after choosing "remember me".
	RememberLifetime = 30 * 24 * time.Hour
)

type Authenticator struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	accounts       Accounts
	remember       *Remember
}

func New(
	logger *slog.Logger,
	sessionManager *scs.SessionManager,
	accounts Accounts,
	rememberSecret []byte,
) *Authenticator {
	return &Authenticator{
		logger:         logger,
		sessionManager: sessionManager,
		accounts:       accounts,
		remember:       NewRemember(rememberSecret, RememberLifetime),
	}
}

// Login verifies the credentials and binds the member to the session. It returns the normalised username.
//
// With rememberMe a signed cookie remembers the username for the login form. Without it any earlier remembered
// username is forgotten.
func (a *Authenticator) Login(
	w http.ResponseWriter,
	r *http.Request,
	username, password string,
	rememberMe bool,
) (string, error) {
	ctx := r.Context()
	username, err := a.accounts.Verify(username, password)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelInfo, "failed login attempt", slog.String("username", username))
		return "", err
	}

	if err = a.sessionManager.RenewToken(ctx); err != nil {
		return "", fmt.Errorf("renew session token: %w", err)
	}
	a.sessionManager.Put(ctx, string(usernameSessionKey), username)

	if !rememberMe {
		a.forget(w)
		return username, nil
	}
	var token string
	if token, err = a.remember.Issue(username); err != nil {
		return "", fmt.Errorf("issue remember token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{ //nolint:exhaustruct // defaults are fine
		Name:     rememberCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(RememberLifetime.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return username, nil
}

// Logout ends the login session and forgets the remembered username. The member's profile is untouched.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	if err := a.sessionManager.RenewToken(ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	a.sessionManager.Remove(ctx, string(usernameSessionKey))
	a.forget(w)
	return nil
}

// RememberedUsername returns the username of a valid remember-me cookie or "".
func (a *Authenticator) RememberedUsername(r *http.Request) string {
	cookie, err := r.Cookie(rememberCookieName)
	if err != nil {
		return ""
	}
	username, err := a.remember.Verify(cookie.Value)
	if err != nil {
		a.logger.LogAttrs(r.Context(), slog.LevelDebug, "ignoring remember cookie", slog.Any("error", err))
		return ""
	}
	return username
}

func (a *Authenticator) forget(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{ //nolint:exhaustruct // defaults are fine
		Name:     rememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
