package domain

// Session is the in-memory login state. Token and User are set and cleared
// together; a value with only one of them is never observable.
type Session struct {
	Token string
	User  *User
}

// IsAuthenticated reports whether both token and user are present.
func (s Session) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// IsAdmin reports whether the logged-in user is an Admin.
func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User.IsAdmin()
}

// State names the two states of the session machine.
func (s Session) State() State {
	if s.IsAuthenticated() {
		return StateLoggedIn
	}
	return StateLoggedOut
}

// Clone returns a copy that shares nothing with s.
func (s Session) Clone() Session {
	if s.User == nil {
		return Session{Token: s.Token}
	}
	u := *s.User
	return Session{Token: s.Token, User: &u}
}

type State string

const (
	StateLoggedOut State = "logged_out"
	StateLoggedIn  State = "logged_in"
)

// Reason explains why the session changed.
type Reason string

const (
	ReasonRestored        Reason = "restored"
	ReasonLogin           Reason = "login"
	ReasonLogout          Reason = "logout"
	ReasonExpired         Reason = "expired"
	ReasonVersionMismatch Reason = "version_mismatch"
	ReasonProfileUpdated  Reason = "profile_updated"
	ReasonUnauthorized    Reason = "unauthorized"
	ReasonLoginFailed     Reason = "login_failed"
)

// SessionEvent is delivered to subscribers after every transition.
type SessionEvent struct {
	Session Session
	Reason  Reason
}
