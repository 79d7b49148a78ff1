package authserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/librarydesk/library-client/internal/core/domain"
)

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, len(s.accounts))
	for _, id := range sortedIDs(s.accounts) {
		out = append(out, s.accounts[id].user)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return text(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, acc.user)
}

func (s *Server) createUser(c echo.Context) error {
	return s.register(c)
}

func (s *Server) setRole(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Role domain.Role `json:"role" validate:"required,oneof=Customer Admin"`
	}
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return text(c, http.StatusNotFound, "User not found")
	}
	acc.user.Role = req.Role
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	if id == callerID(c) {
		return badRequest(c, "You cannot delete your own account")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return text(c, http.StatusNotFound, "User not found")
	}
	delete(s.accounts, id)
	return c.NoContent(http.StatusNoContent)
}
