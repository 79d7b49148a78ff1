package domain

import "errors"

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidServerResponse = errors.New("invalid response from server: missing token or user data")
	ErrSessionExpired        = errors.New("session expired")
	ErrVersionMismatch       = errors.New("session created by a previous version")
	ErrNetwork               = errors.New("network error: cannot connect to the server")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotAuthenticated      = errors.New("not logged in")
	ErrForbidden             = errors.New("access forbidden")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
)
