// Package libraryapi holds typed clients for each Library API resource. They
// share one httpclient.Client, and with it the session interceptors.
package libraryapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/ports"
	"github.com/librarydesk/library-client/internal/core/validate"
	"github.com/librarydesk/library-client/internal/infrastructure/httpclient"
)

// MessageResponse is the {message} body of the password endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// AuthClient covers the /auth endpoints. It satisfies ports.AuthAPI.
type AuthClient struct {
	c *httpclient.Client
}

var _ ports.AuthAPI = (*AuthClient)(nil)

func NewAuthClient(c *httpclient.Client) *AuthClient {
	return &AuthClient{c: c}
}

// Login posts credentials. A 401 (wrong password) or 400 (credentials the
// server refuses to consider) is the expected answer to bad input, so it
// neither clears storage nor redirects; both map to
// domain.ErrInvalidCredentials with the HTTP error still wrapped.
func (a *AuthClient) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var res domain.AuthResult
	err := a.c.Post(httpclient.WithoutRedirect(ctx), "/auth/login", creds, &res)
	if rejectedCredentials(err) {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func rejectedCredentials(err error) bool {
	var he *domain.HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return he.Status == http.StatusUnauthorized || he.Status == http.StatusBadRequest
}

// UpdateProfile submits new profile fields and returns the reissued token.
func (a *AuthClient) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.AuthResult, error) {
	var res domain.AuthResult
	if err := a.c.Put(ctx, "/auth/profile", update, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates a customer account. It does not log in.
func (a *AuthClient) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, err
	}
	var user domain.User
	if err := a.c.Post(httpclient.WithoutRedirect(ctx), "/auth/register", reg, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthClient) ForgotPassword(ctx context.Context, email string) (string, error) {
	req := struct {
		Email string `json:"email" validate:"required,email"`
	}{Email: email}
	if err := validate.Struct(req); err != nil {
		return "", err
	}
	var res MessageResponse
	if err := a.c.Post(httpclient.WithoutRedirect(ctx), "/auth/forgot-password", req, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

func (a *AuthClient) ResetPassword(ctx context.Context, reset domain.PasswordReset) (string, error) {
	if err := validate.Struct(reset); err != nil {
		return "", err
	}
	var res MessageResponse
	if err := a.c.Post(httpclient.WithoutRedirect(ctx), "/auth/reset-password", reset, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// ChangePassword requires a session; a 401 here goes through the normal
// unauthorized handling.
func (a *AuthClient) ChangePassword(ctx context.Context, change domain.PasswordChange) (string, error) {
	if err := validate.Struct(change); err != nil {
		return "", err
	}
	var res MessageResponse
	if err := a.c.Post(ctx, "/auth/change-password", change, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}
