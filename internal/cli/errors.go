package cli

import (
	"errors"

	"github.com/librarydesk/library-client/internal/core/domain"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	// exitAuth tells scripts to run `library login` again.
	exitAuth = 3
)

var errAdminRequired = errors.New("this command requires an administrator account")

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// resolveError maps a command failure to an exit code and the line printed
// to stderr.
func resolveError(err error) (int, string) {
	var ue usageError
	if errors.As(err, &ue) {
		return exitUsage, ue.msg
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return exitUsage, ve.Error()
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return exitAuth, "invalid email or password"
	case errors.Is(err, domain.ErrSessionExpired):
		return exitAuth, "your session has expired, run `library login` again"
	case errors.Is(err, domain.ErrNotAuthenticated):
		return exitAuth, "not logged in, run `library login` first"
	case errors.Is(err, domain.ErrUnauthorized):
		return exitAuth, "your session is no longer valid, run `library login` again"
	case errors.Is(err, errAdminRequired):
		return exitFailure, errAdminRequired.Error()
	case errors.Is(err, domain.ErrNetwork):
		return exitFailure, domain.ErrNetwork.Error()
	case errors.Is(err, domain.ErrInvalidServerResponse):
		return exitFailure, domain.ErrInvalidServerResponse.Error()
	}

	var he *domain.HTTPError
	if errors.As(err, &he) {
		switch {
		case he.Message != "":
			return exitFailure, he.Message
		case errors.Is(he, domain.ErrForbidden):
			return exitFailure, "access forbidden"
		case errors.Is(he, domain.ErrNotFound):
			return exitFailure, "not found"
		}
		return exitFailure, he.Error()
	}

	return exitFailure, err.Error()
}
