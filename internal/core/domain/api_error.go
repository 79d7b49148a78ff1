package domain

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError is the closed set of failures the client boundary produces:
// *NetworkError, *HTTPError and *ValidationError. Match with a type switch or
// errors.As; errors.Is maps each onto the matching sentinel.
type APIError interface {
	error
	apiError()
}

// NetworkError is a transport failure: no HTTP response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrNetwork, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (*NetworkError) apiError() {}

// HTTPError is a non-2xx response. Body holds the raw payload; Message is the
// best human-readable extract of it.
type HTTPError struct {
	Status  int
	Body    []byte
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

func (*HTTPError) apiError() {}

// ValidationError lists rejected input fields, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (*ValidationError) apiError() {}
