package authserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/librarydesk/library-client/internal/core/domain"
)

// echoValidator lets handlers call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

func newValidator() *echoValidator {
	return &echoValidator{v: validator.New()}
}

func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fmt.Sprintf("The %s field is invalid (%s).", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, " "))
		}
		return err
	}
	return nil
}

// bind decodes and validates the body, answering 400 itself on failure.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return false, badRequest(c, err.Error())
	}
	return true, nil
}

func mustHash(password string) []byte {
	// MinCost keeps the fake fast; it never guards real secrets.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func (s *Server) signLocked(user domain.User, exp time.Time) (string, error) {
	claims := jwt.MapClaims{
		"nameid":      strconv.FormatInt(user.ID, 10),
		"unique_name": user.UserName,
		"email":       user.Email,
		"role":        string(user.Role),
		"iat":         s.now().Unix(),
		"exp":         exp.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) issueLocked(user domain.User) (string, error) {
	return s.signLocked(user, s.now().Add(s.tokenTTL))
}

// authenticate validates the bearer token and stores the caller's id and
// role on the context.
func (s *Server) authenticate() echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
		jwt.WithExpirationRequired(),
	)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, raw, ok := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				return c.NoContent(http.StatusUnauthorized)
			}

			claims := jwt.MapClaims{}
			tkn, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				s.mu.Lock()
				defer s.mu.Unlock()
				return s.secret, nil
			})
			if err != nil || !tkn.Valid {
				return c.NoContent(http.StatusUnauthorized)
			}

			idStr, _ := claims["nameid"].(string)
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return c.NoContent(http.StatusUnauthorized)
			}
			role, _ := claims["role"].(string)

			c.Set("user_id", id)
			c.Set("role", domain.Role(role))
			return next(c)
		}
	}
}

func requireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := allowed[callerRole(c)]; !ok {
				return c.NoContent(http.StatusForbidden)
			}
			return next(c)
		}
	}
}

func callerID(c echo.Context) int64 {
	id, _ := c.Get("user_id").(int64)
	return id
}

func callerRole(c echo.Context) domain.Role {
	r, _ := c.Get("role").(domain.Role)
	return r
}

type registerRequest struct {
	Email           string `json:"email"           validate:"required,email"`
	Password        string `json:"password"        validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Password != req.ConfirmPassword {
		return badRequest(c, "Passwords do not match")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmailLocked(req.Email) != nil {
		return text(c, http.StatusConflict, "Email already in use")
	}
	acc := s.addUserLocked(req.Email, req.Email, req.Password, domain.RoleCustomer)
	return c.JSON(http.StatusCreated, acc.user)
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.findByEmailLocked(req.Email)
	if acc == nil || bcrypt.CompareHashAndPassword(acc.hash, []byte(req.Password)) != nil {
		return text(c, http.StatusUnauthorized, "Invalid email or password")
	}

	tok, err := s.issueLocked(acc.user)
	if err != nil {
		return err
	}
	user := acc.user
	res := &domain.AuthResult{Token: tok, User: &user}
	if s.loginHook != nil {
		s.loginHook(res)
	}
	return c.JSON(http.StatusOK, res)
}

type forgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

const forgotMessage = "If your email is registered, you will receive a password reset link."

func (s *Server) forgotPassword(c echo.Context) error {
	var req forgotRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	if acc := s.findByEmailLocked(req.Email); acc != nil {
		s.resetTokens[req.Email] = fmt.Sprintf("reset-%d-%d", acc.user.ID, s.now().UnixNano())
	}
	s.mu.Unlock()

	return c.JSON(http.StatusOK, map[string]string{"message": forgotMessage})
}

type resetRequest struct {
	Email              string `json:"email"              validate:"required,email"`
	Token              string `json:"token"              validate:"required"`
	NewPassword        string `json:"newPassword"        validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
}

func (s *Server) resetPassword(c echo.Context) error {
	var req resetRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return badRequest(c, "Passwords do not match")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.findByEmailLocked(req.Email)
	if acc == nil || s.resetTokens[req.Email] != req.Token {
		return badRequest(c, "Invalid or expired token")
	}
	delete(s.resetTokens, req.Email)
	acc.hash = mustHash(req.NewPassword)
	return c.JSON(http.StatusOK, map[string]string{"message": "Password has been reset successfully"})
}

type changeRequest struct {
	CurrentPassword    string `json:"currentPassword"    validate:"required"`
	NewPassword        string `json:"newPassword"        validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required"`
}

func (s *Server) changePassword(c echo.Context) error {
	var req changeRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return badRequest(c, "New passwords do not match")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[callerID(c)]
	if !ok {
		return c.NoContent(http.StatusUnauthorized)
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(req.CurrentPassword)) != nil {
		return badRequest(c, "Current password is incorrect")
	}
	acc.hash = mustHash(req.NewPassword)
	return c.JSON(http.StatusOK, map[string]string{"message": "Password has been changed successfully"})
}

type profileRequest struct {
	UserName string `json:"userName" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email"`
}

func (s *Server) updateProfile(c echo.Context) error {
	var req profileRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[callerID(c)]
	if !ok {
		return text(c, http.StatusNotFound, "User not found")
	}
	if other := s.findByEmailLocked(req.Email); other != nil && other != acc {
		return text(c, http.StatusConflict, "Email already in use by another account")
	}
	if other := s.findByUserNameLocked(req.UserName); other != nil && other != acc {
		return text(c, http.StatusConflict, "Username already in use by another account")
	}

	acc.user.UserName = req.UserName
	acc.user.Email = req.Email
	tok, err := s.issueLocked(acc.user)
	if err != nil {
		return err
	}
	user := acc.user
	return c.JSON(http.StatusOK, domain.AuthResult{Token: tok, User: &user, Message: "Profile updated successfully"})
}
