package ports

import (
	"context"
	"errors"
)

// Persisted session keys. The names are part of the on-disk contract and
// must stay stable across releases, otherwise the version check cannot see
// sessions written by older builds.
const (
	KeyToken      = "token"
	KeyUser       = "user"
	KeyAppVersion = "app_version"
)

// SessionKeys lists every key the session manager owns.
var SessionKeys = []string{KeyToken, KeyUser, KeyAppVersion}

// ErrKeyNotFound is returned by Get when the key holds no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// SessionStorage is the durable key-value mirror of the in-memory session.
// Implementations must be safe for concurrent use.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the given keys. Missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error
}
