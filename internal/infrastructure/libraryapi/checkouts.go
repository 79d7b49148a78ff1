package libraryapi

import (
	"context"
	"fmt"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/infrastructure/httpclient"
)

type CheckOutClient struct {
	c *httpclient.Client
}

func NewCheckOutClient(c *httpclient.Client) *CheckOutClient {
	return &CheckOutClient{c: c}
}

// All lists every loan. Admin only.
func (k *CheckOutClient) All(ctx context.Context) ([]domain.CheckOut, error) {
	return k.list(ctx, "/checkouts")
}

// Active lists unreturned loans. Admin only.
func (k *CheckOutClient) Active(ctx context.Context) ([]domain.CheckOut, error) {
	return k.list(ctx, "/checkouts/active")
}

// Overdue lists loans past their due date. Admin only.
func (k *CheckOutClient) Overdue(ctx context.Context) ([]domain.CheckOut, error) {
	return k.list(ctx, "/checkouts/overdue")
}

// ForUser lists a user's loans. userID 0 means the caller, resolved by the
// server from the token.
func (k *CheckOutClient) ForUser(ctx context.Context, userID int64) ([]domain.CheckOut, error) {
	return k.list(ctx, fmt.Sprintf("/checkouts/user/%d", userID))
}

func (k *CheckOutClient) Get(ctx context.Context, id int64) (*domain.CheckOut, error) {
	var co domain.CheckOut
	if err := k.c.Get(ctx, fmt.Sprintf("/checkouts/%d", id), nil, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

// Create borrows one copy of a book for the caller.
func (k *CheckOutClient) Create(ctx context.Context, bookID int64) (*domain.CheckOut, error) {
	body := struct {
		BookID int64 `json:"bookId"`
	}{bookID}
	var co domain.CheckOut
	if err := k.c.Post(ctx, "/checkouts", body, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

func (k *CheckOutClient) Return(ctx context.Context, id int64) (*domain.CheckOut, error) {
	return k.action(ctx, id, "return")
}

func (k *CheckOutClient) Renew(ctx context.Context, id int64) (*domain.CheckOut, error) {
	return k.action(ctx, id, "renew")
}

func (k *CheckOutClient) action(ctx context.Context, id int64, verb string) (*domain.CheckOut, error) {
	var co domain.CheckOut
	if err := k.c.Post(ctx, fmt.Sprintf("/checkouts/%d/%s", id, verb), nil, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

func (k *CheckOutClient) list(ctx context.Context, path string) ([]domain.CheckOut, error) {
	var out []domain.CheckOut
	if err := k.c.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
