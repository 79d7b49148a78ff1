// Package httpclient is the shared JSON client for the Library API. It owns
// the process-wide default headers and the request/response interceptors that
// keep persisted session storage and the server's view of the caller in sync.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/ports"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 1 << 20
)

// UnauthorizedHook is invoked after a 401 cleared the persisted session. It
// plays the role of sending the user back to the login screen.
type UnauthorizedHook func(ctx context.Context, reason domain.Reason)

// Observer receives one call per completed request and per redirect.
// Status is 0 when no response was received.
type Observer interface {
	APIRequest(method string, status int, elapsed time.Duration)
	UnauthorizedRedirect(reason domain.Reason)
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
	// Storage is read by the request interceptor and cleared by the response
	// interceptor. Required.
	Storage        ports.SessionStorage
	OnUnauthorized UnauthorizedHook
	Observer       Observer
	// Transport is the underlying round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
	Now       func() time.Time
	Logger    zerolog.Logger
}

// Client issues JSON requests against a single API base URL.
type Client struct {
	base     string
	http     *http.Client
	observer Observer
	log      zerolog.Logger

	mu      sync.RWMutex
	headers http.Header
}

var _ ports.Authorizer = (*Client)(nil)

// New builds a Client with the interceptor chain installed.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("httpclient: invalid base url %q", opts.BaseURL)
	}
	if opts.Storage == nil {
		return nil, errors.New("httpclient: storage is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log := opts.Logger.With().Str("component", "httpclient").Logger()

	c := &Client{
		base:     strings.TrimRight(u.String(), "/"),
		observer: opts.Observer,
		log:      log,
		headers:  make(http.Header),
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")
	if opts.UserAgent != "" {
		c.headers.Set("User-Agent", opts.UserAgent)
	}

	rt := &requestInterceptor{next: opts.Transport, storage: opts.Storage, log: log}
	c.http = &http.Client{
		Timeout: opts.Timeout,
		Transport: &responseInterceptor{
			next:     rt,
			storage:  opts.Storage,
			hook:     opts.OnUnauthorized,
			observer: opts.Observer,
			now:      opts.Now,
			log:      log,
		},
	}
	return c, nil
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() string { return c.base }

// SetDefaultHeader sets a header sent with every subsequent request.
func (c *Client) SetDefaultHeader(key, value string) {
	c.mu.Lock()
	c.headers.Set(key, value)
	c.mu.Unlock()
}

// DeleteDefaultHeader removes a default header.
func (c *Client) DeleteDefaultHeader(key string) {
	c.mu.Lock()
	c.headers.Del(key)
	c.mu.Unlock()
}

// DefaultHeader returns the current value of a default header.
func (c *Client) DefaultHeader(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(key)
}

// SetBearer installs the default Authorization header.
func (c *Client) SetBearer(token string) {
	c.SetDefaultHeader("Authorization", "Bearer "+token)
}

// ClearBearer removes the default Authorization header.
func (c *Client) ClearBearer() {
	c.DeleteDefaultHeader("Authorization")
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, withQuery(path, query), nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends body as JSON to path and decodes a 2xx response into out (when
// non-nil). Transport failures come back as *domain.NetworkError, non-2xx
// responses as *domain.HTTPError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/"+strings.TrimLeft(path, "/"), payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.mu.RLock()
	for k, vs := range c.headers {
		req.Header[k] = append([]string(nil), vs...)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(method, 0, elapsed)
		c.log.Debug().Err(err).Str("op", op).Dur("elapsed", elapsed).Msg("request failed")
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.observe(method, resp.StatusCode, elapsed)
	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Str("request_id", requestID(resp)).
		Dur("elapsed", elapsed).
		Msg("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.HTTPError{Status: resp.StatusCode, Body: raw, Message: errorMessage(raw)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidServerResponse, err)
	}
	return nil
}

func (c *Client) observe(method string, status int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.APIRequest(method, status, elapsed)
	}
}

func requestID(resp *http.Response) string {
	if resp.Request == nil {
		return ""
	}
	return resp.Request.Header.Get(headerRequestID)
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

// errorMessage extracts a readable message from an error body. The API
// answers with plain strings, {"message": ...} objects or problem details.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Error   string              `json:"error"`
		Message string              `json:"message"`
		Title   string              `json:"title"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		switch {
		case obj.Message != "":
			return obj.Message
		case obj.Error != "":
			return obj.Error
		case len(obj.Errors) > 0:
			return flattenProblems(obj.Errors)
		case obj.Title != "":
			return obj.Title
		}
	}
	return string(raw)
}

func flattenProblems(errs map[string][]string) string {
	var msgs []string
	for _, key := range slices.Sorted(maps.Keys(errs)) {
		msgs = append(msgs, errs[key]...)
	}
	return strings.Join(msgs, "; ")
}
