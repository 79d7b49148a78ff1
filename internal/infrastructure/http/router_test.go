package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/infrastructure/http/handlers"
)

type stubSession struct {
	s domain.Session
}

func (s stubSession) Session() domain.Session { return s.s }
func (s stubSession) Version() string         { return "1.2.3" }

func get(t *testing.T, d Deps, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	NewRouter(d).ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := get(t, Deps{Session: stubSession{}, Logger: zerolog.Nop()}, "/health")

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.2.3"}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := get(t, Deps{Session: stubSession{}, Checks: map[string]handlers.Check{"storage": ok}}, "/health/ready")
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = get(t, Deps{Session: stubSession{}, Checks: map[string]handlers.Check{"storage": ok, "redis": down}}, "/health/ready")
	assert.Equal(t, nethttp.StatusServiceUnavailable, rec.Code)

	var body struct {
		Status       string `json:"status"`
		Dependencies map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Dependencies["storage"].Status)
	assert.Equal(t, "connection refused", body.Dependencies["redis"].Error)
}

func TestSession_LoggedOut(t *testing.T) {
	rec := get(t, Deps{Session: stubSession{}}, "/session")

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"logged_out","version":"1.2.3"}`, rec.Body.String())
}

func TestSession_LoggedInHidesToken(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)

	src := stubSession{s: domain.Session{Token: tok, User: &domain.User{ID: 4, UserName: "dora", Email: "d@x.io", Role: domain.RoleAdmin}}}
	rec := get(t, Deps{Session: src}, "/session")

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), tok)
	assert.JSONEq(t, `{
		"state": "logged_in",
		"version": "1.2.3",
		"user": {"id": 4, "userName": "dora", "email": "d@x.io", "role": "Admin"},
		"expiresAt": "2030-01-01T00:00:00Z"
	}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, Deps{Session: stubSession{}}, "/metrics")

	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, NewRouter(Deps{Session: stubSession{}}), ln) }()

	require.Eventually(t, func() bool {
		resp, err := nethttp.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == nethttp.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
