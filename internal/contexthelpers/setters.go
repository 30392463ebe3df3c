package contexthelpers

import (
	"context"
	"net/http"

	"github.com/myrjola/tatugym/internal/i18n"
)

func AuthenticateContext(r *http.Request, username string) *http.Request {
	ctx := context.WithValue(r.Context(), authenticatedUsernameContextKey, username)
	return r.WithContext(ctx)
}

func SetCurrentPath(r *http.Request, currentPath string) *http.Request {
	ctx := context.WithValue(r.Context(), currentPathContextKey, currentPath)
	return r.WithContext(ctx)
}

func SetCSPNonce(r *http.Request, cspNonce string) *http.Request {
	ctx := context.WithValue(r.Context(), cspNonceContextKey, cspNonce)
	return r.WithContext(ctx)
}

func SetLanguage(r *http.Request, language i18n.Language) *http.Request {
	ctx := context.WithValue(r.Context(), languageContextKey, language)
	return r.WithContext(ctx)
}
