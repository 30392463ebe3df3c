package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/myrjola/tatugym/internal/contexthelpers"
	"github.com/myrjola/tatugym/internal/logging"
)

func (a *Authenticator) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		username := a.sessionManager.GetString(ctx, string(usernameSessionKey))

		// Member has not yet logged in.
		if username == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Members removed from the allow-list lose access on their next request.
		if !a.accounts.Contains(username) {
			a.sessionManager.Remove(ctx, string(usernameSessionKey))
			next.ServeHTTP(w, r)
			return
		}
		r = contexthelpers.AuthenticateContext(r, username)

		// Add session information to logging context.
		token := a.sessionManager.Token(ctx)
		// Hash token with sha256 to avoid leaking it in logs.
		tokenHash := sha256.Sum256([]byte(token))
		ctx = logging.WithAttrs(r.Context(),
			slog.String("session_hash", hex.EncodeToString(tokenHash[:])),
			slog.String("username", username),
		)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}
