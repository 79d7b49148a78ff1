package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/ports"
	"github.com/librarydesk/library-client/internal/core/token"
	"github.com/librarydesk/library-client/internal/core/validate"
)

const (
	// DefaultValidationInterval is how often a held token is re-checked.
	DefaultValidationInterval = 5 * time.Minute

	// storageTimeout bounds storage calls made from the background validator,
	// which has no caller context.
	storageTimeout = 10 * time.Second
)

// SessionManagerOptions tunes a SessionManager. Zero values pick defaults.
type SessionManagerOptions struct {
	// Version is the running build identifier recorded as the session
	// version marker.
	Version            string
	ValidationInterval time.Duration
	Now                func() time.Time
	Logger             zerolog.Logger
}

// SessionManager is the single source of truth for who is logged in. It
// mirrors every change to persisted storage and to the HTTP client's default
// Authorization header, and notifies subscribers after each transition.
type SessionManager struct {
	auth     ports.AuthAPI
	storage  ports.SessionStorage
	authz    ports.Authorizer
	version  string
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu         sync.Mutex
	session    domain.Session
	stopVerify context.CancelFunc
	wg         sync.WaitGroup
	closed     bool

	subMu   sync.Mutex
	subs    map[uint64]func(domain.SessionEvent)
	nextSub uint64
}

// NewSessionManager returns a manager in the LoggedOut state. Call
// Initialize to restore a persisted session.
func NewSessionManager(auth ports.AuthAPI, storage ports.SessionStorage, authz ports.Authorizer, opts SessionManagerOptions) *SessionManager {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.ValidationInterval <= 0 {
		opts.ValidationInterval = DefaultValidationInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionManager{
		auth:     auth,
		storage:  storage,
		authz:    authz,
		version:  opts.Version,
		interval: opts.ValidationInterval,
		now:      opts.Now,
		log:      opts.Logger.With().Str("component", "session").Logger(),
		subs:     make(map[uint64]func(domain.SessionEvent)),
	}
}

// Session returns a snapshot of the current state.
func (m *SessionManager) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

func (m *SessionManager) IsAuthenticated() bool { return m.Session().IsAuthenticated() }

func (m *SessionManager) IsAdmin() bool { return m.Session().IsAdmin() }

// Version returns the build identifier sessions are stamped with.
func (m *SessionManager) Version() string { return m.version }

// Subscribe registers fn for every session event. Callbacks run
// synchronously on the goroutine that caused the transition and must not
// call back into the manager's mutating methods.
func (m *SessionManager) Subscribe(fn func(domain.SessionEvent)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *SessionManager) notify(ev domain.SessionEvent) {
	m.subMu.Lock()
	fns := make([]func(domain.SessionEvent), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Initialize restores a persisted session. Expired tokens, sessions from
// another build and unreadable user records are dropped silently and leave
// the manager logged out; only storage failures are returned.
func (m *SessionManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	restored, _, err := m.restoreLocked(ctx)
	snap := m.session.Clone()
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if restored {
		m.notify(domain.SessionEvent{Session: snap, Reason: domain.ReasonRestored})
	}
	return nil
}

// Reload drops the in-memory session and re-reads persisted storage, the
// same reset a fresh start performs. The HTTP client's redirect-to-login
// hook calls it after clearing the persisted token on a 401. When a live
// session is dropped because the stored one expired or belongs to another
// build, subscribers see that reason instead of the caller's.
func (m *SessionManager) Reload(ctx context.Context, reason domain.Reason) error {
	m.mu.Lock()
	wasIn := m.session.IsAuthenticated()
	m.session = domain.Session{}
	m.stopValidationLocked()
	m.authz.ClearBearer()

	restored, dropped, err := m.restoreLocked(ctx)
	snap := m.session.Clone()
	m.mu.Unlock()

	switch {
	case restored:
		m.notify(domain.SessionEvent{Session: snap, Reason: domain.ReasonRestored})
	case wasIn:
		m.notify(domain.SessionEvent{Session: snap, Reason: dropReason(dropped, reason)})
	}
	return err
}

// dropReason maps why a stored session was discarded onto the event reason.
func dropReason(dropped error, fallback domain.Reason) domain.Reason {
	switch {
	case errors.Is(dropped, domain.ErrVersionMismatch):
		return domain.ReasonVersionMismatch
	case errors.Is(dropped, domain.ErrSessionExpired):
		return domain.ReasonExpired
	}
	return fallback
}

// restoreLocked reads the persisted session into memory and reports whether
// one was restored. When a stored session is discarded, dropped says why:
// ErrSessionExpired, ErrVersionMismatch or the user decode error.
func (m *SessionManager) restoreLocked(ctx context.Context) (restored bool, dropped, err error) {
	tok, err := m.read(ctx, ports.KeyToken)
	if err != nil {
		return false, nil, fmt.Errorf("initialize session: %w", err)
	}
	rawUser, err := m.read(ctx, ports.KeyUser)
	if err != nil {
		return false, nil, fmt.Errorf("initialize session: %w", err)
	}

	m.log.Debug().Bool("has_token", tok != "").Bool("has_user", rawUser != "").Msg("initializing from storage")
	if tok == "" || rawUser == "" {
		return false, nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		m.log.Warn().Err(err).Msg("stored user is unreadable, clearing session")
		return false, fmt.Errorf("decode stored user: %w", err), m.removeAll(ctx)
	}

	if token.IsExpired(tok, m.now()) {
		m.log.Info().Int64("user_id", user.ID).Msg("stored session expired, clearing")
		return false, domain.ErrSessionExpired, m.removeAll(ctx)
	}

	stored, err := m.read(ctx, ports.KeyAppVersion)
	if err != nil {
		return false, nil, fmt.Errorf("initialize session: %w", err)
	}
	if stored != m.version {
		m.log.Info().
			Err(domain.ErrVersionMismatch).
			Str("stored_version", stored).
			Str("current_version", m.version).
			Msg("stored session belongs to another build, clearing")
		return false, domain.ErrVersionMismatch, m.removeAll(ctx)
	}

	m.session = domain.Session{Token: tok, User: &user}
	m.authz.SetBearer(tok)
	m.startValidationLocked(tok)

	m.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("session restored")
	return true, nil, nil
}

// Login authenticates against the API and establishes a session. Any failure
// leaves the manager logged out with storage and header cleared.
func (m *SessionManager) Login(ctx context.Context, creds domain.Credentials) error {
	m.log.Debug().Str("email", creds.Email).Msg("login attempt")

	res, err := m.login(ctx, creds)
	if err != nil {
		m.failLogin(ctx, err)
		return fmt.Errorf("login: %w", err)
	}

	m.mu.Lock()
	m.applyLocked(ctx, res, true)
	snap := m.session.Clone()
	m.mu.Unlock()

	m.log.Info().Int64("user_id", res.User.ID).Str("role", string(res.User.Role)).Msg("logged in")
	m.notify(domain.SessionEvent{Session: snap, Reason: domain.ReasonLogin})
	return nil
}

func (m *SessionManager) login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, err
	}
	res, err := m.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if !res.Complete() {
		return nil, domain.ErrInvalidServerResponse
	}
	return res, nil
}

func (m *SessionManager) failLogin(ctx context.Context, cause error) {
	m.mu.Lock()
	if err := m.clearLocked(ctx); err != nil {
		m.log.Error().Err(err).Msg("clearing storage after failed login")
	}
	m.mu.Unlock()

	m.log.Warn().Err(cause).Msg("login failed")
	m.notify(domain.SessionEvent{Reason: domain.ReasonLoginFailed})
}

// Logout clears memory, storage and the default header. Calling it while
// logged out is a no-op apart from re-clearing storage.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	wasIn := m.session.IsAuthenticated()
	err := m.clearLocked(ctx)
	m.mu.Unlock()

	if wasIn {
		m.log.Info().Msg("logged out")
		m.notify(domain.SessionEvent{Reason: domain.ReasonLogout})
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// UpdateProfile submits new profile fields and swaps in the reissued token
// and user. On failure the current session is left untouched.
func (m *SessionManager) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) error {
	current := m.Session()
	if !current.IsAuthenticated() {
		return fmt.Errorf("update profile: %w", domain.ErrNotAuthenticated)
	}
	if token.IsExpired(current.Token, m.now()) {
		m.expire(ctx, current.Token)
		return fmt.Errorf("update profile: %w", domain.ErrSessionExpired)
	}
	if err := validate.Struct(update); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	res, err := m.auth.UpdateProfile(ctx, update)
	if err != nil {
		m.log.Warn().Err(err).Msg("profile update failed")
		return fmt.Errorf("update profile: %w", err)
	}
	if !res.Complete() {
		m.log.Warn().Bool("has_token", res != nil && res.Token != "").Msg("profile update response incomplete")
		return fmt.Errorf("update profile: %w", domain.ErrInvalidServerResponse)
	}

	m.mu.Lock()
	if !m.session.IsAuthenticated() {
		// Logged out while the request was in flight.
		m.mu.Unlock()
		return fmt.Errorf("update profile: %w", domain.ErrNotAuthenticated)
	}
	m.applyLocked(ctx, res, false)
	snap := m.session.Clone()
	m.mu.Unlock()

	m.log.Info().Int64("user_id", res.User.ID).Msg("profile updated")
	m.notify(domain.SessionEvent{Session: snap, Reason: domain.ReasonProfileUpdated})
	return nil
}

// CheckExpiry runs one validation pass: an expired token is logged out. It
// reports whether the session was dropped.
func (m *SessionManager) CheckExpiry(ctx context.Context) bool {
	m.mu.Lock()
	tok := m.session.Token
	m.mu.Unlock()

	if tok == "" || !token.IsExpired(tok, m.now()) {
		return false
	}
	return m.expire(ctx, tok)
}

// expire logs out the session holding tok. A token that was replaced in the
// meantime is left alone.
func (m *SessionManager) expire(ctx context.Context, tok string) bool {
	m.mu.Lock()
	if m.session.Token != tok {
		m.mu.Unlock()
		return false
	}
	err := m.clearLocked(ctx)
	m.mu.Unlock()

	if err != nil {
		m.log.Error().Err(err).Msg("clearing storage for expired session")
	}
	m.log.Info().Msg("session expired, logged out")
	m.notify(domain.SessionEvent{Reason: domain.ReasonExpired})
	return true
}

// Close stops background validation and waits for it to exit. Sessions
// established afterwards are not validated in the background.
func (m *SessionManager) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopValidationLocked()
	m.mu.Unlock()
	m.wg.Wait()
}

// applyLocked installs res as the current session. Persisted writes are
// awaited; a storage failure is logged and memory stays authoritative.
func (m *SessionManager) applyLocked(ctx context.Context, res *domain.AuthResult, fresh bool) {
	user := *res.User
	m.session = domain.Session{Token: res.Token, User: &user}
	m.authz.SetBearer(res.Token)
	m.startValidationLocked(res.Token)

	if fresh {
		if err := m.removeAll(ctx); err != nil {
			m.log.Error().Err(err).Msg("clearing storage before persisting session")
		}
	}
	if err := m.persist(ctx, res.Token, &user); err != nil {
		m.log.Error().Err(err).Msg("persisting session")
	}
}

func (m *SessionManager) persist(ctx context.Context, tok string, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := m.storage.Set(ctx, ports.KeyToken, tok); err != nil {
		return err
	}
	if err := m.storage.Set(ctx, ports.KeyUser, string(raw)); err != nil {
		return err
	}
	return m.storage.Set(ctx, ports.KeyAppVersion, m.version)
}

// clearLocked resets memory, the default header, validation and storage.
func (m *SessionManager) clearLocked(ctx context.Context) error {
	m.session = domain.Session{}
	m.stopValidationLocked()
	m.authz.ClearBearer()
	return m.removeAll(ctx)
}

func (m *SessionManager) removeAll(ctx context.Context) error {
	return m.storage.Remove(ctx, ports.SessionKeys...)
}

func (m *SessionManager) read(ctx context.Context, key string) (string, error) {
	v, err := m.storage.Get(ctx, key)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return "", nil
	}
	return v, err
}
