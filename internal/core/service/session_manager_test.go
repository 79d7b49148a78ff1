package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/ports"
)

// --- fakes ---

type stubAuthAPI struct {
	loginFn   func(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	profileFn func(ctx context.Context, update domain.ProfileUpdate) (*domain.AuthResult, error)
	mu        sync.Mutex
	calls     int
}

func (s *stubAuthAPI) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubAuthAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	s.count()
	return s.loginFn(ctx, creds)
}

func (s *stubAuthAPI) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.AuthResult, error) {
	s.count()
	return s.profileFn(ctx, update)
}

type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage { return &memStorage{data: map[string]string{}} }

func (s *memStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ports.ErrKeyNotFound
	}
	return v, nil
}

func (s *memStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStorage) Remove(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memStorage) has(key string) bool {
	_, err := s.Get(context.Background(), key)
	return err == nil
}

func (s *memStorage) value(key string) string {
	v, _ := s.Get(context.Background(), key)
	return v
}

type fakeAuthz struct {
	mu     sync.Mutex
	bearer string
}

func (a *fakeAuthz) SetBearer(token string) { a.mu.Lock(); a.bearer = token; a.mu.Unlock() }
func (a *fakeAuthz) ClearBearer()           { a.mu.Lock(); a.bearer = ""; a.mu.Unlock() }
func (a *fakeAuthz) get() string            { a.mu.Lock(); defer a.mu.Unlock(); return a.bearer }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time { c.mu.Lock(); defer c.mu.Unlock(); return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.mu.Lock(); c.now = c.now.Add(d); c.mu.Unlock() }

// --- helpers ---

var baseTime = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func signToken(t *testing.T, userID int64, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"nameid": fmt.Sprint(userID),
		"exp":    exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return s
}

func testUser() *domain.User {
	return &domain.User{
		ID:        7,
		UserName:  "alice",
		Email:     "a@b.com",
		Role:      domain.RoleCustomer,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

type harness struct {
	mgr     *SessionManager
	api     *stubAuthAPI
	store   *memStorage
	authz   *fakeAuthz
	clock   *fakeClock
	mu      sync.Mutex
	events  []domain.SessionEvent
	version string
}

func newHarness(t *testing.T, interval time.Duration) *harness {
	t.Helper()
	h := &harness{
		api:     &stubAuthAPI{},
		store:   newMemStorage(),
		authz:   &fakeAuthz{},
		clock:   &fakeClock{now: baseTime},
		version: "1.0.1",
	}
	h.mgr = NewSessionManager(h.api, h.store, h.authz, SessionManagerOptions{
		Version:            h.version,
		ValidationInterval: interval,
		Now:                h.clock.Now,
	})
	h.mgr.Subscribe(func(ev domain.SessionEvent) {
		h.mu.Lock()
		h.events = append(h.events, ev)
		h.mu.Unlock()
	})
	t.Cleanup(h.mgr.Close)
	return h
}

func (h *harness) seed(t *testing.T, tok string, user *domain.User, version string) {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, ports.KeyToken, tok))
	require.NoError(t, h.store.Set(ctx, ports.KeyUser, string(raw)))
	if version != "" {
		require.NoError(t, h.store.Set(ctx, ports.KeyAppVersion, version))
	}
}

func (h *harness) reasons() []domain.Reason {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.Reason, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Reason)
	}
	return out
}

func (h *harness) loginAs(t *testing.T, tok string, user *domain.User) {
	t.Helper()
	h.api.loginFn = func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
		return &domain.AuthResult{Token: tok, User: user}, nil
	}
	require.NoError(t, h.mgr.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"}))
}

func assertLoggedOut(t *testing.T, h *harness) {
	t.Helper()
	assert.False(t, h.mgr.IsAuthenticated())
	assert.Equal(t, domain.Session{}, h.mgr.Session())
	assert.Empty(t, h.authz.get())
	for _, k := range ports.SessionKeys {
		assert.False(t, h.store.has(k), "storage key %q should be cleared", k)
	}
}

// --- Initialize ---

func TestInitialize_RestoresValidSession(t *testing.T) {
	h := newHarness(t, time.Hour)
	tok := signToken(t, 7, baseTime.Add(time.Hour))
	h.seed(t, tok, testUser(), h.version)

	require.NoError(t, h.mgr.Initialize(context.Background()))

	s := h.mgr.Session()
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, tok, s.Token)
	assert.Equal(t, testUser(), s.User)
	assert.Equal(t, tok, h.authz.get())
	assert.Equal(t, []domain.Reason{domain.ReasonRestored}, h.reasons())
}

func TestInitialize_EmptyStorage(t *testing.T) {
	h := newHarness(t, time.Hour)

	require.NoError(t, h.mgr.Initialize(context.Background()))

	assert.False(t, h.mgr.IsAuthenticated())
	assert.Empty(t, h.reasons())
}

func TestInitialize_TokenWithoutUserStaysLoggedOut(t *testing.T) {
	h := newHarness(t, time.Hour)
	require.NoError(t, h.store.Set(context.Background(), ports.KeyToken, signToken(t, 7, baseTime.Add(time.Hour))))

	require.NoError(t, h.mgr.Initialize(context.Background()))

	assert.False(t, h.mgr.IsAuthenticated())
	assert.Empty(t, h.authz.get())
}

func TestInitialize_ExpiredTokenClearsStorage(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seed(t, signToken(t, 7, baseTime.Add(-time.Second)), testUser(), h.version)

	require.NoError(t, h.mgr.Initialize(context.Background()))

	assertLoggedOut(t, h)
	assert.Empty(t, h.reasons())
}

func TestInitialize_VersionMismatchClearsUnexpiredSession(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seed(t, signToken(t, 7, baseTime.Add(24*time.Hour)), testUser(), "1.0.0")

	require.NoError(t, h.mgr.Initialize(context.Background()))

	assertLoggedOut(t, h)
}

func TestInitialize_MissingVersionMarkerClears(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seed(t, signToken(t, 7, baseTime.Add(24*time.Hour)), testUser(), "")

	require.NoError(t, h.mgr.Initialize(context.Background()))

	assertLoggedOut(t, h)
}

func TestInitialize_MalformedUserClears(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, h.store.Set(ctx, ports.KeyToken, signToken(t, 7, baseTime.Add(time.Hour))))
	require.NoError(t, h.store.Set(ctx, ports.KeyUser, "{not json"))

	require.NoError(t, h.mgr.Initialize(ctx))

	assertLoggedOut(t, h)
}

// --- Login ---

func TestLogin_RoundTrip(t *testing.T) {
	h := newHarness(t, time.Hour)
	tok := signToken(t, 7, baseTime.Add(time.Hour))
	user := testUser()

	var gotCreds domain.Credentials
	h.api.loginFn = func(_ context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
		gotCreds = creds
		return &domain.AuthResult{Token: tok, User: user}, nil
	}

	require.NoError(t, h.mgr.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"}))

	assert.Equal(t, domain.Credentials{Email: "a@b.com", Password: "x"}, gotCreds)
	assert.Equal(t, domain.Session{Token: tok, User: user}, h.mgr.Session())
	assert.Equal(t, tok, h.authz.get())
	assert.Equal(t, tok, h.store.value(ports.KeyToken))
	assert.Equal(t, h.version, h.store.value(ports.KeyAppVersion))

	var stored domain.User
	require.NoError(t, json.Unmarshal([]byte(h.store.value(ports.KeyUser)), &stored))
	assert.Equal(t, *user, stored)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin}, h.reasons())
}

func TestLogin_PersistedSessionSurvivesRestart(t *testing.T) {
	h := newHarness(t, time.Hour)
	tok := signToken(t, 7, baseTime.Add(time.Hour))
	h.loginAs(t, tok, testUser())

	restarted := NewSessionManager(h.api, h.store, &fakeAuthz{}, SessionManagerOptions{
		Version: h.version,
		Now:     h.clock.Now,
	})
	t.Cleanup(restarted.Close)

	require.NoError(t, restarted.Initialize(context.Background()))
	assert.Equal(t, h.mgr.Session(), restarted.Session())
}

func TestLogin_IncompleteResponse(t *testing.T) {
	tok := "header.payload.sig"
	cases := map[string]*domain.AuthResult{
		"missing token": {User: testUser()},
		"missing user":  {Token: tok},
		"empty body":    {},
		"nil result":    nil,
	}
	for name, res := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, time.Hour)
			h.api.loginFn = func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
				return res, nil
			}

			err := h.mgr.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})

			assert.ErrorIs(t, err, domain.ErrInvalidServerResponse)
			assertLoggedOut(t, h)
		})
	}
}

func TestLogin_RejectedCredentialsClearPreviousSession(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())

	h.api.loginFn = func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, &domain.HTTPError{Status: 401})
	}
	err := h.mgr.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "wrong"})

	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assertLoggedOut(t, h)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonLoginFailed}, h.reasons())
}

func TestLogin_NetworkErrorSurfaces(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.api.loginFn = func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
		return nil, &domain.NetworkError{Op: "POST /auth/login", Err: errors.New("connection refused")}
	}

	err := h.mgr.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})

	assert.ErrorIs(t, err, domain.ErrNetwork)
	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assertLoggedOut(t, h)
}

func TestLogin_InvalidInputNeverCallsAPI(t *testing.T) {
	h := newHarness(t, time.Hour)

	err := h.mgr.Login(context.Background(), domain.Credentials{Email: "  ", Password: ""})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "password")
	assert.Zero(t, h.api.calls)
}

// --- Logout ---

func TestLogout_Idempotent(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())

	require.NoError(t, h.mgr.Logout(context.Background()))
	require.NoError(t, h.mgr.Logout(context.Background()))

	assertLoggedOut(t, h)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonLogout}, h.reasons())
}

// --- UpdateProfile ---

func TestUpdateProfile_ReplacesToken(t *testing.T) {
	h := newHarness(t, time.Hour)
	oldTok := signToken(t, 7, baseTime.Add(time.Hour))
	h.loginAs(t, oldTok, testUser())

	newTok := signToken(t, 7, baseTime.Add(2*time.Hour))
	updated := testUser()
	updated.UserName = "alice2"
	h.api.profileFn = func(_ context.Context, upd domain.ProfileUpdate) (*domain.AuthResult, error) {
		assert.Equal(t, "alice2", upd.UserName)
		return &domain.AuthResult{Token: newTok, User: updated, Message: "Profile updated successfully"}, nil
	}

	require.NoError(t, h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "alice2", Email: "a@b.com"}))

	s := h.mgr.Session()
	assert.Equal(t, newTok, s.Token)
	assert.NotEqual(t, oldTok, s.Token)
	assert.Equal(t, "alice2", s.User.UserName)
	assert.Equal(t, newTok, h.authz.get())
	assert.Equal(t, newTok, h.store.value(ports.KeyToken))
	assert.Contains(t, h.store.value(ports.KeyUser), `"userName":"alice2"`)
	assert.Equal(t, h.version, h.store.value(ports.KeyAppVersion))
}

func TestUpdateProfile_IncompleteResponseLeavesSession(t *testing.T) {
	h := newHarness(t, time.Hour)
	tok := signToken(t, 7, baseTime.Add(time.Hour))
	h.loginAs(t, tok, testUser())
	before := h.mgr.Session()

	h.api.profileFn = func(context.Context, domain.ProfileUpdate) (*domain.AuthResult, error) {
		return &domain.AuthResult{User: testUser()}, nil
	}
	err := h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "alice2", Email: "a@b.com"})

	assert.ErrorIs(t, err, domain.ErrInvalidServerResponse)
	assert.Equal(t, before, h.mgr.Session())
	assert.Equal(t, tok, h.store.value(ports.KeyToken))
	assert.Equal(t, tok, h.authz.get())
}

func TestUpdateProfile_ServerErrorLeavesSession(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())
	before := h.mgr.Session()

	h.api.profileFn = func(context.Context, domain.ProfileUpdate) (*domain.AuthResult, error) {
		return nil, &domain.HTTPError{Status: 409, Message: "Username already in use by another account"}
	}
	err := h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "bob", Email: "a@b.com"})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, before, h.mgr.Session())
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	h := newHarness(t, time.Hour)

	err := h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "bob", Email: "a@b.com"})

	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Zero(t, h.api.calls)
}

// --- expiry ---

func TestCheckExpiry_LogsOutExpiredSession(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(10*time.Minute)), testUser())

	assert.False(t, h.mgr.CheckExpiry(context.Background()))
	assert.True(t, h.mgr.IsAuthenticated())

	h.clock.Advance(11 * time.Minute)
	assert.True(t, h.mgr.CheckExpiry(context.Background()))

	assertLoggedOut(t, h)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonExpired}, h.reasons())
}

func TestPeriodicValidation_ExpiresInBackground(t *testing.T) {
	h := newHarness(t, 5*time.Millisecond)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Minute)), testUser())

	h.clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool { return !h.mgr.IsAuthenticated() }, time.Second, 5*time.Millisecond)
	assertLoggedOut(t, h)
}

func TestPeriodicValidation_FollowsTokenChange(t *testing.T) {
	h := newHarness(t, 5*time.Millisecond)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Minute)), testUser())

	fresh := signToken(t, 7, baseTime.Add(time.Hour))
	h.api.profileFn = func(context.Context, domain.ProfileUpdate) (*domain.AuthResult, error) {
		return &domain.AuthResult{Token: fresh, User: testUser()}, nil
	}
	require.NoError(t, h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "alice", Email: "a@b.com"}))

	// The first token would now be expired; the reissued one is not.
	h.clock.Advance(2 * time.Minute)
	time.Sleep(50 * time.Millisecond)

	assert.True(t, h.mgr.IsAuthenticated())
	assert.Equal(t, fresh, h.mgr.Session().Token)
}

func TestPeriodicValidation_StopsOnLogout(t *testing.T) {
	h := newHarness(t, 5*time.Millisecond)
	for i := 0; i < 5; i++ {
		h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())
		require.NoError(t, h.mgr.Logout(context.Background()))
	}

	done := make(chan struct{})
	go func() {
		h.mgr.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("validation goroutines still running after logout")
	}
}

// --- Reload ---

func TestReload_AfterStorageClearedLogsOut(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())

	require.NoError(t, h.store.Remove(context.Background(), ports.KeyToken, ports.KeyUser))
	require.NoError(t, h.mgr.Reload(context.Background(), domain.ReasonUnauthorized))

	assert.False(t, h.mgr.IsAuthenticated())
	assert.Empty(t, h.authz.get())
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonUnauthorized}, h.reasons())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	h := newHarness(t, time.Hour)
	var n int
	unsubscribe := h.mgr.Subscribe(func(domain.SessionEvent) { n++ })

	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())
	unsubscribe()
	require.NoError(t, h.mgr.Logout(context.Background()))

	assert.Equal(t, 1, n)
}

func TestIsAdmin(t *testing.T) {
	h := newHarness(t, time.Hour)
	admin := testUser()
	admin.Role = domain.RoleAdmin

	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), admin)
	assert.True(t, h.mgr.IsAdmin())

	require.NoError(t, h.mgr.Logout(context.Background()))
	assert.False(t, h.mgr.IsAdmin())
}

func TestReload_VersionMismatchReportsReason(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())

	// A newer build rewrote the marker while this one was running.
	require.NoError(t, h.store.Set(context.Background(), ports.KeyAppVersion, "1.0.2"))
	require.NoError(t, h.mgr.Reload(context.Background(), domain.ReasonUnauthorized))

	assertLoggedOut(t, h)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonVersionMismatch}, h.reasons())
}

func TestReload_ExpiredStoredTokenReportsExpired(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(10*time.Minute)), testUser())

	h.clock.Advance(11 * time.Minute)
	require.NoError(t, h.mgr.Reload(context.Background(), domain.ReasonUnauthorized))

	assertLoggedOut(t, h)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonExpired}, h.reasons())
}

func TestReload_WhileLoggedOutIsSilent(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.seed(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser(), "0.9.0")

	require.NoError(t, h.mgr.Reload(context.Background(), domain.ReasonUnauthorized))

	assertLoggedOut(t, h)
	assert.Empty(t, h.reasons())
}

func TestUpdateProfile_ExpiredTokenLogsOut(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(10*time.Minute)), testUser())
	h.api.profileFn = func(context.Context, domain.ProfileUpdate) (*domain.AuthResult, error) {
		t.Fatal("expired session must not reach the API")
		return nil, nil
	}

	h.clock.Advance(11 * time.Minute)
	err := h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "alice2", Email: "a@b.com"})

	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assertLoggedOut(t, h)
	assert.Equal(t, []domain.Reason{domain.ReasonLogin, domain.ReasonExpired}, h.reasons())
}

func TestUpdateProfile_RejectsShortUserName(t *testing.T) {
	h := newHarness(t, time.Hour)
	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())
	calls := h.api.calls

	err := h.mgr.UpdateProfile(context.Background(), domain.ProfileUpdate{UserName: "al", Email: "a@b.com"})

	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "userName")
	assert.Equal(t, calls, h.api.calls)
	assert.True(t, h.mgr.IsAuthenticated())
}

func TestClose_LaterSessionsStartNoValidation(t *testing.T) {
	h := newHarness(t, 5*time.Millisecond)
	h.mgr.Close()

	h.loginAs(t, signToken(t, 7, baseTime.Add(time.Hour)), testUser())

	assert.True(t, h.mgr.IsAuthenticated())
	h.mgr.mu.Lock()
	assert.Nil(t, h.mgr.stopVerify)
	h.mgr.mu.Unlock()
}

func TestClose_ConcurrentWithLogin(t *testing.T) {
	h := newHarness(t, time.Millisecond)
	tok := signToken(t, 7, baseTime.Add(time.Hour))
	h.api.loginFn = func(context.Context, domain.Credentials) (*domain.AuthResult, error) {
		return &domain.AuthResult{Token: tok, User: testUser()}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.mgr.Login(context.Background(), domain.Credentials{Email: "a@b.com", Password: "x"})
		}()
	}
	h.mgr.Close()
	wg.Wait()
	h.mgr.Close()
}
