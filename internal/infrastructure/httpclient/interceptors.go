package httpclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/ports"
	"github.com/librarydesk/library-client/internal/core/token"
)

const headerRequestID = "X-Request-ID"

type ctxKey int

const (
	retriedKey ctxKey = iota
	noRedirectKey
)

// WithRetried marks requests made with ctx as a second attempt. A 401 on a
// retried request is returned to the caller without clearing the session or
// redirecting, which keeps a failing request from looping.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

// IsRetried reports whether ctx carries the retried marker.
func IsRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey).(bool)
	return v
}

// WithoutRedirect marks requests whose 401 is an expected answer, such as
// wrong credentials on login. The session is left alone.
func WithoutRedirect(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRedirectKey, true)
}

func skipsRedirect(ctx context.Context) bool {
	v, _ := ctx.Value(noRedirectKey).(bool)
	return v || IsRetried(ctx)
}

// requestInterceptor attaches the persisted bearer token when the request
// has no Authorization header yet, and stamps a request id. It never fails a
// request on its own.
type requestInterceptor struct {
	next    http.RoundTripper
	storage ports.SessionStorage
	log     zerolog.Logger
}

func (t *requestInterceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if req.Header.Get("Authorization") == "" {
		tok, err := t.storage.Get(req.Context(), ports.KeyToken)
		switch {
		case err == nil && tok != "":
			req.Header.Set("Authorization", "Bearer "+tok)
		case err != nil && !errors.Is(err, ports.ErrKeyNotFound):
			t.log.Warn().Err(err).Msg("reading stored token")
		}
	}
	if req.Header.Get(headerRequestID) == "" {
		req.Header.Set(headerRequestID, uuid.NewString())
	}
	return t.next.RoundTrip(req)
}

// responseInterceptor turns a 401 into a forced logout: the persisted token
// and user are removed and the unauthorized hook is told why.
type responseInterceptor struct {
	next     http.RoundTripper
	storage  ports.SessionStorage
	hook     UnauthorizedHook
	observer Observer
	now      func() time.Time
	log      zerolog.Logger
}

func (t *responseInterceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	ctx := req.Context()
	if skipsRedirect(ctx) {
		return resp, nil
	}

	reason := domain.ReasonUnauthorized
	if tok, gerr := t.storage.Get(ctx, ports.KeyToken); gerr == nil && tok != "" && token.IsExpired(tok, t.now()) {
		reason = domain.ReasonExpired
	}

	if rerr := t.storage.Remove(ctx, ports.KeyToken, ports.KeyUser); rerr != nil {
		t.log.Error().Err(rerr).Msg("clearing stored session after 401")
	}
	t.log.Info().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("reason", string(reason)).
		Msg("unauthorized, redirecting to login")

	if t.observer != nil {
		t.observer.UnauthorizedRedirect(reason)
	}
	if t.hook != nil {
		t.hook(ctx, reason)
	}
	return resp, nil
}
