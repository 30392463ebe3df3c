package contexthelpers

type contextKey string

const (
	authenticatedUsernameContextKey = contextKey("authenticatedUsername")
	currentPathContextKey           = contextKey("currentPath")
	cspNonceContextKey              = contextKey("cspNonce")
	languageContextKey              = contextKey("language")
)
