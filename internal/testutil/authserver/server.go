// Package authserver runs an in-process fake of the Library API for tests.
// It issues real HS256 tokens with an exp claim, hashes passwords with bcrypt
// and enforces roles, so clients can be exercised end to end.
package authserver

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/librarydesk/library-client/internal/core/domain"
)

const (
	defaultTokenTTL = time.Hour
	loanPeriod      = 14 * 24 * time.Hour
)

type account struct {
	user domain.User
	hash []byte
}

// Server is a running fake. Use URL as the client's API base URL.
type Server struct {
	URL string

	srv      *httptest.Server
	e        *echo.Echo
	tokenTTL time.Duration
	now      func() time.Time

	mu          sync.Mutex
	secret      []byte
	accounts    map[int64]*account
	books       map[int64]*domain.Book
	checkouts   map[int64]*domain.CheckOut
	resetTokens map[string]string
	nextID      int64
	loginHook   func(*domain.AuthResult)
	hits        map[string]int
}

type Option func(*Server)

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithClock replaces time.Now for token issue, verification and loan dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a fake API. The base URL ends in /api like the real service.
func New(opts ...Option) *Server {
	s := &Server{
		tokenTTL:    defaultTokenTTL,
		now:         time.Now,
		secret:      []byte("fake-library-secret"),
		accounts:    make(map[int64]*account),
		books:       make(map[int64]*domain.Book),
		checkouts:   make(map[int64]*domain.CheckOut),
		resetTokens: make(map[string]string),
		hits:        make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}

	s.e = s.router()
	s.srv = httptest.NewServer(s.e)
	s.URL = s.srv.URL + "/api"
	return s
}

func (s *Server) Close() { s.srv.Close() }

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newValidator()

	e.Use(echomiddleware.Recover())
	e.Use(s.countHits)

	api := e.Group("/api")
	auth := s.authenticate()
	admin := requireRole(domain.RoleAdmin)

	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)
	api.POST("/auth/forgot-password", s.forgotPassword)
	api.POST("/auth/reset-password", s.resetPassword)
	api.POST("/auth/change-password", s.changePassword, auth)
	api.PUT("/auth/profile", s.updateProfile, auth)

	api.GET("/books", s.listBooks)
	api.GET("/books/:id", s.getBook)
	api.GET("/books/catalog/:number", s.getBookByCatalog)
	api.POST("/books", s.createBook, auth, admin)
	api.PUT("/books/:id", s.updateBook, auth, admin)
	api.PATCH("/books/:id/quantity", s.updateQuantity, auth, admin)
	api.DELETE("/books/:id", s.deleteBook, auth, admin)

	api.GET("/checkouts", s.listCheckouts(nil), auth, admin)
	api.GET("/checkouts/active", s.listCheckouts(func(c *domain.CheckOut, _ time.Time) bool { return c.IsCurrent() }), auth, admin)
	api.GET("/checkouts/overdue", s.listCheckouts(func(c *domain.CheckOut, now time.Time) bool { return c.IsOverdue(now) }), auth, admin)
	api.GET("/checkouts/user/:id", s.userCheckouts, auth)
	api.GET("/checkouts/:id", s.getCheckout, auth)
	api.POST("/checkouts", s.createCheckout, auth)
	api.POST("/checkouts/:id/return", s.returnCheckout, auth)
	api.POST("/checkouts/:id/renew", s.renewCheckout, auth)

	api.GET("/users", s.listUsers, auth, admin)
	api.GET("/users/:id", s.getUser, auth, admin)
	api.POST("/users", s.createUser, auth, admin)
	api.PATCH("/users/:id/role", s.setRole, auth, admin)
	api.DELETE("/users/:id", s.deleteUser, auth, admin)

	return e
}

func (s *Server) countHits(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.hits[c.Request().Method+" "+c.Path()]++
		s.mu.Unlock()
		return next(c)
	}
}

// Hits returns how often a route was called, keyed like "POST /api/auth/login".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// AddUser registers an account directly and returns it.
func (s *Server) AddUser(email, userName, password string, role domain.Role) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, userName, password, role).user
}

// AddBook stores b with a fresh id and returns it.
func (s *Server) AddBook(b domain.Book) domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	if b.AvailableCopies == 0 {
		b.AvailableCopies = b.TotalCopies
	}
	s.books[b.ID] = &b
	return b
}

// Book returns the stored state of a book.
func (s *Server) Book(id int64) (domain.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return domain.Book{}, false
	}
	return *b, true
}

// Token issues a token for user expiring at exp.
func (s *Server) Token(user domain.User, exp time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.signLocked(user, exp)
	if err != nil {
		panic(err)
	}
	return tok
}

// RotateSecret invalidates every token issued so far; the next
// authenticated call answers 401.
func (s *Server) RotateSecret() {
	s.mu.Lock()
	s.secret = append([]byte("rotated-"), s.secret...)
	s.mu.Unlock()
}

// OnLogin lets a test tamper with a successful login response.
func (s *Server) OnLogin(fn func(*domain.AuthResult)) {
	s.mu.Lock()
	s.loginHook = fn
	s.mu.Unlock()
}

// ResetToken returns the pending password reset token for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetTokens[email]
}

func (s *Server) addUserLocked(email, userName, password string, role domain.Role) *account {
	s.nextID++
	acc := &account{
		user: domain.User{
			ID:        s.nextID,
			UserName:  userName,
			Email:     email,
			Role:      role,
			CreatedAt: s.now().UTC().Truncate(time.Second),
		},
		hash: mustHash(password),
	}
	s.accounts[acc.user.ID] = acc
	return acc
}

func (s *Server) findByEmailLocked(email string) *account {
	for _, a := range s.accounts {
		if a.user.Email == email {
			return a
		}
	}
	return nil
}

func (s *Server) findByUserNameLocked(name string) *account {
	for _, a := range s.accounts {
		if a.user.UserName == name {
			return a
		}
	}
	return nil
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// text answers with a plain string body, the way the real API reports
// errors.
func text(c echo.Context, status int, msg string) error {
	return c.String(status, msg)
}

func badRequest(c echo.Context, msg string) error { return text(c, http.StatusBadRequest, msg) }
