package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_AuthenticatedNeedsBothHalves(t *testing.T) {
	u := &User{ID: 1, Role: RoleCustomer}

	assert.False(t, Session{}.IsAuthenticated())
	assert.False(t, Session{Token: "t"}.IsAuthenticated())
	assert.False(t, Session{User: u}.IsAuthenticated())
	assert.True(t, Session{Token: "t", User: u}.IsAuthenticated())
	assert.Equal(t, StateLoggedIn, Session{Token: "t", User: u}.State())
	assert.Equal(t, StateLoggedOut, Session{User: u}.State())
}

func TestSession_IsAdmin(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	customer := &User{Role: RoleCustomer}

	assert.True(t, Session{Token: "t", User: admin}.IsAdmin())
	assert.False(t, Session{Token: "t", User: customer}.IsAdmin())
	assert.False(t, Session{User: admin}.IsAdmin())
}

func TestSession_CloneDoesNotShareUser(t *testing.T) {
	s := Session{Token: "t", User: &User{UserName: "alice"}}
	c := s.Clone()
	c.User.UserName = "mallory"
	assert.Equal(t, "alice", s.User.UserName)
}

func TestHTTPError_IsMapsStatus(t *testing.T) {
	cases := []struct {
		status int
		target error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
	}
	for _, tc := range cases {
		err := fmt.Errorf("op: %w", &HTTPError{Status: tc.status})
		assert.ErrorIs(t, err, tc.target, "status %d", tc.status)
	}
	assert.False(t, errors.Is(&HTTPError{Status: 500}, ErrUnauthorized))
}

func TestNetworkError_IsNetwork(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("login: %w", &NetworkError{Op: "POST /auth/login", Err: cause})

	assert.ErrorIs(t, err, ErrNetwork)
	assert.ErrorIs(t, err, cause)

	var apiErr APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestValidationError_MessageIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"password": "password is required",
		"email":    "email must be a valid email",
	}}
	assert.Equal(t, "validation failed: email must be a valid email; password is required", err.Error())
}

func TestCheckOut_DaysLeft(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		due  time.Time
		want int
	}{
		{now.Add(36 * time.Hour), 2},
		{now.Add(24 * time.Hour), 1},
		{now.Add(time.Hour), 1},
		{now, 0},
		{now.Add(-time.Hour), 0},
		{now.Add(-25 * time.Hour), -1},
	}
	for _, tc := range cases {
		c := CheckOut{DueDate: tc.due}
		assert.Equal(t, tc.want, c.DaysLeft(now), "due %s", tc.due)
	}
}

func TestCheckOut_Overdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	late := CheckOut{DueDate: now.Add(-48 * time.Hour)}
	assert.True(t, late.IsOverdue(now))

	returned := now.Add(-time.Hour)
	late.ReturnDate = &returned
	assert.False(t, late.IsOverdue(now))
	assert.True(t, late.ReturnedLate())
}

func TestFilterBooks(t *testing.T) {
	books := []Book{
		{Title: "Dune", Author: "Frank Herbert", Genre: GenreSciFi},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: GenreFantasy},
		{Title: "Foundation", Author: "Isaac Asimov", Genre: GenreSciFi},
	}

	assert.Len(t, FilterBooks(books, "", ""), 3)
	assert.Len(t, FilterBooks(books, "", GenreSciFi), 2)

	got := FilterBooks(books, "TOLKIEN", "")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "The Hobbit", got[0].Title)
	}
	assert.Empty(t, FilterBooks(books, "hobbit", GenreSciFi))
}
