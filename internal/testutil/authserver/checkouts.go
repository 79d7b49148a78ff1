package authserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/librarydesk/library-client/internal/core/domain"
)

func (s *Server) listCheckouts(keep func(*domain.CheckOut, time.Time) bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		now := s.now()
		out := make([]domain.CheckOut, 0, len(s.checkouts))
		for _, id := range sortedIDs(s.checkouts) {
			co := s.checkouts[id]
			if keep == nil || keep(co, now) {
				out = append(out, s.viewLocked(co, now))
			}
		}
		return c.JSON(http.StatusOK, out)
	}
}

func (s *Server) userCheckouts(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	if userID == 0 {
		userID = callerID(c)
	}
	if userID != callerID(c) && callerRole(c) != domain.RoleAdmin {
		return c.NoContent(http.StatusForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]domain.CheckOut, 0)
	for _, id := range sortedIDs(s.checkouts) {
		if co := s.checkouts[id]; co.UserID == userID {
			out = append(out, s.viewLocked(co, now))
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getCheckout(c echo.Context) error {
	co, err := s.ownedCheckout(c)
	if co == nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.viewLocked(co, s.now()))
}

func (s *Server) createCheckout(c echo.Context) error {
	var req struct {
		BookID int64 `json:"bookId" validate:"gt=0"`
	}
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[req.BookID]
	if !ok {
		return text(c, http.StatusNotFound, "Book not found")
	}
	if !b.Available() {
		return badRequest(c, "Book is not available for checkout")
	}
	acc, ok := s.accounts[callerID(c)]
	if !ok {
		return c.NoContent(http.StatusUnauthorized)
	}

	now := s.now().UTC()
	s.nextID++
	co := &domain.CheckOut{
		ID:            s.nextID,
		BookID:        b.ID,
		BookTitle:     b.Title,
		CatalogNumber: b.CatalogNumber,
		UserID:        acc.user.ID,
		UserName:      acc.user.UserName,
		CheckOutDate:  now,
		DueDate:       now.Add(loanPeriod),
		Status:        domain.CheckOutActive,
	}
	b.AvailableCopies--
	s.checkouts[co.ID] = co
	return c.JSON(http.StatusCreated, co)
}

func (s *Server) returnCheckout(c echo.Context) error {
	co, err := s.ownedCheckout(c)
	if co == nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !co.IsCurrent() {
		return badRequest(c, "Book has already been returned")
	}
	now := s.now().UTC()
	co.ReturnDate = &now
	co.Status = domain.CheckOutReturned
	if b, ok := s.books[co.BookID]; ok {
		b.AvailableCopies++
	}
	return c.JSON(http.StatusOK, co)
}

func (s *Server) renewCheckout(c echo.Context) error {
	co, err := s.ownedCheckout(c)
	if co == nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !co.IsCurrent() {
		return badRequest(c, "Cannot renew a returned book")
	}
	if co.IsOverdue(now) {
		return badRequest(c, "Cannot renew an overdue book")
	}
	co.DueDate = co.DueDate.Add(loanPeriod)
	return c.JSON(http.StatusOK, co)
}

// ownedCheckout resolves :id to a loan the caller may act on. On failure it
// writes the response and returns a nil loan.
func (s *Server) ownedCheckout(c echo.Context) (*domain.CheckOut, error) {
	id, ok := pathID(c)
	if !ok {
		return nil, badRequest(c, "invalid id")
	}
	s.mu.Lock()
	co, ok := s.checkouts[id]
	s.mu.Unlock()
	if !ok {
		return nil, text(c, http.StatusNotFound, "Checkout not found")
	}
	if co.UserID != callerID(c) && callerRole(c) != domain.RoleAdmin {
		return nil, c.NoContent(http.StatusForbidden)
	}
	return co, nil
}

// viewLocked reports an unreturned loan past its due date as Overdue.
func (s *Server) viewLocked(co *domain.CheckOut, now time.Time) domain.CheckOut {
	v := *co
	if v.IsOverdue(now) {
		v.Status = domain.CheckOutOverdue
	}
	return v
}
