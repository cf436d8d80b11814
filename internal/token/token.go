// Package token issues and verifies the signed, time-limited credentials handed out at login.
// Verification is stateless: nothing about issued tokens is stored server-side.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/and161185/village-mart/internal/errs"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of a credential issued at login.
const DefaultTTL = time.Hour

// Claims is the credential payload.
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Issue creates a signed HS256 token for userID that expires ttl after now.
func Issue(userID int64, key []byte, ttl time.Duration, now time.Time) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, algorithm and expiry of raw and returns its claims.
// An empty raw yields errs.ErrMissingToken, any other failure errs.ErrInvalidToken.
func Verify(raw string, key []byte) (Claims, error) {
	if raw == "" {
		return Claims{}, errs.ErrMissingToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return Claims{}, fmt.Errorf("%w: no user id", errs.ErrInvalidToken)
	}
	return claims, nil
}

// FromHeader extracts the token from an "Authorization: Bearer <token>" value.
func FromHeader(v string) (string, error) {
	v = strings.TrimSpace(v)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errs.ErrMissingToken
}
