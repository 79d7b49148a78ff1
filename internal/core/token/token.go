// Package token reads the claims the client cares about out of a bearer
// token. The signature is never checked here; that is the server's job. The
// client only needs the expiry to decide when to drop a stale session.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned for a well-formed token that carries no exp claim.
var ErrNoExpiry = errors.New("token has no exp claim")

var parser = jwt.NewParser()

// Claims decodes the payload segment of raw without verifying it.
func Claims(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of raw.
func ExpiresAt(raw string) (time.Time, error) {
	claims, err := Claims(raw)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("decode token: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// IsExpired reports whether raw is expired at now. A token whose expiry
// cannot be read counts as expired.
func IsExpired(raw string, now time.Time) bool {
	exp, err := ExpiresAt(raw)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}
