package authserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/librarydesk/library-client/internal/core/domain"
)

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil
}

func (s *Server) listBooks(c echo.Context) error {
	search := strings.ToLower(c.QueryParam("search"))
	author := strings.ToLower(c.QueryParam("author"))
	publisher := strings.ToLower(c.QueryParam("publisher"))
	genre := domain.Genre(c.QueryParam("genre"))
	year, _ := strconv.Atoi(c.QueryParam("year"))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Book, 0, len(s.books))
	for _, id := range sortedIDs(s.books) {
		b := s.books[id]
		if search != "" {
			if !strings.Contains(strings.ToLower(b.Title), search) &&
				!strings.Contains(strings.ToLower(b.Author), search) &&
				!strings.Contains(strings.ToLower(b.CatalogNumber), search) {
				continue
			}
		} else {
			if author != "" && !strings.Contains(strings.ToLower(b.Author), author) {
				continue
			}
			if publisher != "" && !strings.Contains(strings.ToLower(b.Publisher), publisher) {
				continue
			}
			if year > 0 && b.PublishedYear != year {
				continue
			}
			if genre != "" && b.Genre != genre {
				continue
			}
		}
		out = append(out, *b)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getBook(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return text(c, http.StatusNotFound, "Book not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) getBookByCatalog(c echo.Context) error {
	number := c.Param("number")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if b.CatalogNumber == number {
			return c.JSON(http.StatusOK, b)
		}
	}
	return text(c, http.StatusNotFound, "Book not found")
}

type bookRequest struct {
	Title         string       `json:"title"         validate:"required"`
	Author        string       `json:"author"        validate:"required"`
	PublishedYear int          `json:"publishedYear" validate:"gt=0"`
	Publisher     string       `json:"publisher"     validate:"required"`
	Genre         domain.Genre `json:"genre"         validate:"required"`
	CatalogNumber string       `json:"catalogNumber"`
	TotalCopies   int          `json:"totalCopies"   validate:"gte=0"`
}

func (s *Server) createBook(c echo.Context) error {
	var req bookRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b := &domain.Book{
		ID:              s.nextID,
		Title:           req.Title,
		Author:          req.Author,
		PublishedYear:   req.PublishedYear,
		Publisher:       req.Publisher,
		Genre:           req.Genre,
		CatalogNumber:   req.CatalogNumber,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.TotalCopies,
	}
	if b.CatalogNumber == "" {
		b.CatalogNumber = "CAT-" + strconv.FormatInt(b.ID, 10)
	}
	s.books[b.ID] = b
	return c.JSON(http.StatusCreated, b)
}

func (s *Server) updateBook(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req bookRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return text(c, http.StatusNotFound, "Book not found")
	}
	b.Title, b.Author, b.PublishedYear = req.Title, req.Author, req.PublishedYear
	b.Publisher, b.Genre = req.Publisher, req.Genre
	return c.JSON(http.StatusOK, b)
}

func (s *Server) updateQuantity(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	var req struct {
		Quantity int `json:"quantity" validate:"gte=0"`
	}
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return text(c, http.StatusNotFound, "Book not found")
	}
	onLoan := b.TotalCopies - b.AvailableCopies
	if req.Quantity < onLoan {
		return badRequest(c, "Quantity cannot be less than the number of copies on loan")
	}
	b.TotalCopies = req.Quantity
	b.AvailableCopies = req.Quantity - onLoan
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteBook(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return badRequest(c, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return text(c, http.StatusNotFound, "Book not found")
	}
	for _, co := range s.checkouts {
		if co.BookID == id && co.IsCurrent() {
			return badRequest(c, "Cannot delete a book with active checkouts")
		}
	}
	delete(s.books, id)
	return c.NoContent(http.StatusNoContent)
}
