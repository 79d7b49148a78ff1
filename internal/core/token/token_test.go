package token

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	raw := sign(t, jwt.MapClaims{"sub": "7", "exp": exp.Unix()})

	got, err := ExpiresAt(raw)
	require.NoError(t, err)
	assert.True(t, got.Equal(exp), "got %s", got)
}

func TestExpiresAt_Missing(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"sub": "7"})

	_, err := ExpiresAt(raw)
	assert.ErrorIs(t, err, ErrNoExpiry)
}

func TestClaims_IgnoresSignature(t *testing.T) {
	raw := sign(t, jwt.MapClaims{"unique_name": "alice", "exp": time.Now().Add(time.Hour).Unix()})

	// Tamper with the signature: the client still reads the payload.
	tampered := raw[:len(raw)-4] + "AAAA"
	claims, err := Claims(tampered)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["unique_name"])
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	future := sign(t, jwt.MapClaims{"exp": now.Add(time.Minute).Unix()})
	past := sign(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	edge := sign(t, jwt.MapClaims{"exp": now.Unix()})

	assert.False(t, IsExpired(future, now))
	assert.True(t, IsExpired(past, now))
	assert.True(t, IsExpired(edge, now))
}

func TestIsExpired_Malformed(t *testing.T) {
	now := time.Now()
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":`))

	for _, raw := range []string{"", "abc", "a.b", "x." + payload + ".y", "not.a.token"} {
		assert.True(t, IsExpired(raw, now), "token %q", raw)
	}
}
