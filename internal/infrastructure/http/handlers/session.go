package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/token"
)

// SessionSource is the read side of the session manager.
type SessionSource interface {
	Session() domain.Session
	Version() string
}

// SessionHandler handles GET /session. The token itself is never exposed.
type SessionHandler struct {
	src SessionSource
}

func NewSessionHandler(src SessionSource) *SessionHandler {
	return &SessionHandler{src: src}
}

type sessionUser struct {
	ID       int64       `json:"id"`
	UserName string      `json:"userName"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

type sessionResponse struct {
	State     domain.State `json:"state"`
	Version   string       `json:"version"`
	User      *sessionUser `json:"user,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

func (h *SessionHandler) Get(c echo.Context) error {
	s := h.src.Session()
	res := sessionResponse{State: s.State(), Version: h.src.Version()}

	if s.IsAuthenticated() {
		res.User = &sessionUser{
			ID:       s.User.ID,
			UserName: s.User.UserName,
			Email:    s.User.Email,
			Role:     s.User.Role,
		}
		if exp, err := token.ExpiresAt(s.Token); err == nil {
			exp = exp.UTC()
			res.ExpiresAt = &exp
		}
	}
	return c.JSON(http.StatusOK, res)
}
