package auth

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/myrjola/tatugym/internal/errors"
)

var (
	ErrInvalidCredentials = errors.NewSentinel("invalid username or password")
	ErrInvalidAccounts    = errors.NewSentinel("invalid account list")
)

// Accounts is the fixed allow-list of members that may log in, keyed by normalised username.
type Accounts struct {
	passwords map[string]string
}

// ParseAccounts parses a comma separated list of username:password pairs such as "jessica:1345,ana:secret".
func ParseAccounts(list string) (Accounts, error) {
	accounts := Accounts{passwords: make(map[string]string)}
	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, password, ok := strings.Cut(entry, ":")
		username = NormalizeUsername(username)
		if !ok || username == "" || password == "" {
			return Accounts{}, errors.Wrap(ErrInvalidAccounts, "malformed entry", slog.String("username", username))
		}
		if _, dup := accounts.passwords[username]; dup {
			return Accounts{}, errors.Wrap(ErrInvalidAccounts, "duplicate username", slog.String("username", username))
		}
		accounts.passwords[username] = password
	}
	if len(accounts.passwords) == 0 {
		return Accounts{}, errors.Wrap(ErrInvalidAccounts, "no accounts")
	}
	return accounts, nil
}

// NormalizeUsername trims and lower-cases so that "Jessica " and "jessica" are the same member.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Verify checks the credentials and returns the normalised username.
func (a Accounts) Verify(username, password string) (string, error) {
	username = NormalizeUsername(username)
	want, ok := a.passwords[username]
	// Compare even for unknown members so the response time does not reveal which usernames exist.
	if !ok {
		want = "\x00"
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(password)) != 1 || !ok {
		return "", ErrInvalidCredentials
	}
	return username, nil
}

// Contains reports whether username is on the allow-list.
func (a Accounts) Contains(username string) bool {
	_, ok := a.passwords[NormalizeUsername(username)]
	return ok
}
