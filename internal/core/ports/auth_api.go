package ports

import (
	"context"

	"github.com/librarydesk/library-client/internal/core/domain"
)

// AuthAPI is the slice of the remote API the session manager drives.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.AuthResult, error)
}

// Authorizer holds the process-wide default Authorization header of the
// HTTP client.
type Authorizer interface {
	SetBearer(token string)
	ClearBearer()
}
