package domain

import "time"

// Role is the access level the API assigns to a user.
type Role string

const (
	RoleCustomer Role = "Customer"
	RoleAdmin    Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User is the account record returned by the auth and users endpoints.
type User struct {
	ID        int64     `json:"id"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user holds the Admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate carries the editable profile fields. The server reissues the
// token on success because the user name is embedded in its claims.
type ProfileUpdate struct {
	UserName string `json:"userName" validate:"required,min=3,max=50"`
	Email    string `json:"email"    validate:"required,email,max=255"`
}

// Registration is the self-service sign-up form.
type Registration struct {
	Email           string `json:"email"           validate:"required,email,max=255"`
	Password        string `json:"password"        validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// PasswordChange is submitted by a logged-in user.
type PasswordChange struct {
	CurrentPassword    string `json:"currentPassword"    validate:"required"`
	NewPassword        string `json:"newPassword"        validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

// PasswordReset completes the forgot-password flow with the emailed token.
type PasswordReset struct {
	Email              string `json:"email"              validate:"required,email"`
	Token              string `json:"token"              validate:"required"`
	NewPassword        string `json:"newPassword"        validate:"required,min=6"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

// AuthResult is the body of a successful login or profile update.
type AuthResult struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// Complete reports whether both halves of a session are present.
func (r *AuthResult) Complete() bool {
	return r != nil && r.Token != "" && r.User != nil
}
