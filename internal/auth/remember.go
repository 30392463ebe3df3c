package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/myrjola/tatugym/internal/errors"
)

var ErrInvalidRememberToken = errors.NewSentinel("invalid remember-me token")

// Remember issues and verifies the signed "remember me" credential. The credential only prefills the username on
// the login form. It never logs anyone in.
type Remember struct {
	secret []byte
	ttl    time.Duration
}

func NewRemember(secret []byte, ttl time.Duration) *Remember {
	return &Remember{secret: secret, ttl: ttl}
}

func (r *Remember) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": NormalizeUsername(username),
		"iat": now.Unix(),
		"exp": now.Add(r.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign remember token: %w", err)
	}
	return signed, nil
}

// Verify returns the username stored in a token issued by Issue.
func (r *Remember) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", errors.Join(ErrInvalidRememberToken, err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidRememberToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidRememberToken
	}
	return sub, nil
}
