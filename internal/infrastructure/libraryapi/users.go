package libraryapi

import (
	"context"
	"fmt"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/validate"
	"github.com/librarydesk/library-client/internal/infrastructure/httpclient"
)

// UserClient covers the admin-only /users endpoints.
type UserClient struct {
	c *httpclient.Client
}

func NewUserClient(c *httpclient.Client) *UserClient {
	return &UserClient{c: c}
}

func (u *UserClient) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := u.c.Get(ctx, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserClient) Get(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	if err := u.c.Get(ctx, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserClient) Create(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, err
	}
	var user domain.User
	if err := u.c.Post(ctx, "/users", reg, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserClient) SetRole(ctx context.Context, id int64, role domain.Role) error {
	if !role.Valid() {
		return &domain.ValidationError{Fields: map[string]string{
			"role": fmt.Sprintf("role must be one of: %s %s", domain.RoleCustomer, domain.RoleAdmin),
		}}
	}
	body := struct {
		Role domain.Role `json:"role"`
	}{role}
	return u.c.Patch(ctx, fmt.Sprintf("/users/%d/role", id), body, nil)
}

func (u *UserClient) Delete(ctx context.Context, id int64) error {
	return u.c.Delete(ctx, fmt.Sprintf("/users/%d", id), nil)
}
