package libraryapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/validate"
	"github.com/librarydesk/library-client/internal/infrastructure/httpclient"
)

type BookClient struct {
	c *httpclient.Client
}

func NewBookClient(c *httpclient.Client) *BookClient {
	return &BookClient{c: c}
}

// List returns the catalog. A non-empty Search takes precedence over the
// other filter fields, matching the server.
func (b *BookClient) List(ctx context.Context, f domain.BookFilter) ([]domain.Book, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	} else {
		if f.Author != "" {
			q.Set("author", f.Author)
		}
		if f.Year > 0 {
			q.Set("year", strconv.Itoa(f.Year))
		}
		if f.Publisher != "" {
			q.Set("publisher", f.Publisher)
		}
		if f.Genre != "" {
			q.Set("genre", string(f.Genre))
		}
	}

	var books []domain.Book
	if err := b.c.Get(ctx, "/books", q, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (b *BookClient) Get(ctx context.Context, id int64) (*domain.Book, error) {
	var book domain.Book
	if err := b.c.Get(ctx, fmt.Sprintf("/books/%d", id), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (b *BookClient) GetByCatalogNumber(ctx context.Context, catalogNumber string) (*domain.Book, error) {
	var book domain.Book
	if err := b.c.Get(ctx, "/books/catalog/"+url.PathEscape(catalogNumber), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (b *BookClient) Create(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var book domain.Book
	if err := b.c.Post(ctx, "/books", in, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func (b *BookClient) Update(ctx context.Context, id int64, in domain.BookInput) (*domain.Book, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	var book domain.Book
	if err := b.c.Put(ctx, fmt.Sprintf("/books/%d", id), in, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// UpdateQuantity sets the total number of copies.
func (b *BookClient) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return &domain.ValidationError{Fields: map[string]string{"quantity": "quantity must be at least 0"}}
	}
	body := struct {
		Quantity int `json:"quantity"`
	}{quantity}
	return b.c.Patch(ctx, fmt.Sprintf("/books/%d/quantity", id), body, nil)
}

func (b *BookClient) Delete(ctx context.Context, id int64) error {
	return b.c.Delete(ctx, fmt.Sprintf("/books/%d", id), nil)
}
