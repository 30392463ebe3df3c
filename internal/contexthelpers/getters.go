package contexthelpers

import (
	"context"

	"github.com/myrjola/tatugym/internal/i18n"
)

func IsAuthenticated(ctx context.Context) bool {
	return AuthenticatedUsername(ctx) != ""
}

// AuthenticatedUsername returns the normalised username of the logged-in user or "" for anonymous requests.
func AuthenticatedUsername(ctx context.Context) string {
	username, _ := ctx.Value(authenticatedUsernameContextKey).(string)
	return username
}

func CurrentPath(ctx context.Context) string {
	currentPath, _ := ctx.Value(currentPathContextKey).(string)
	return currentPath
}

func CSPNonce(ctx context.Context) string {
	cspNonce, _ := ctx.Value(cspNonceContextKey).(string)
	return cspNonce
}

// Language returns the UI language of the request, falling back to i18n.DefaultLanguage.
func Language(ctx context.Context) i18n.Language {
	language, ok := ctx.Value(languageContextKey).(i18n.Language)
	if !ok {
		return i18n.DefaultLanguage
	}
	return language
}
