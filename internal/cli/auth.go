package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/version"
)

func runLogin(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var err error
	if *email, err = valueOrPrompt(env, *email, "Email"); err != nil {
		return err
	}
	if *password, err = valueOrPrompt(env, *password, "Password"); err != nil {
		return err
	}

	if err := env.App.Session.Login(ctx, domain.Credentials{Email: *email, Password: *password}); err != nil {
		return err
	}
	s := env.App.Session.Session()
	return printMessage(env, fmt.Sprintf("Logged in as %s (%s).", s.User.UserName, s.User.Role))
}

func runLogout(ctx context.Context, env *Env, _ []string) error {
	if !env.App.Session.IsAuthenticated() {
		return printMessage(env, "Not logged in.")
	}
	if err := env.App.Session.Logout(ctx); err != nil {
		return err
	}
	return printMessage(env, "Logged out.")
}

func runWhoami(_ context.Context, env *Env, _ []string) error {
	return printUser(env, env.App.Session.Session().User)
}

func runProfile(ctx context.Context, env *Env, args []string) error {
	current := env.App.Session.Session().User
	fs := newFlags(env, "profile")
	userName := fs.String("username", current.UserName, "new user name")
	email := fs.String("email", current.Email, "new email")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if err := env.App.Session.UpdateProfile(ctx, domain.ProfileUpdate{UserName: *userName, Email: *email}); err != nil {
		return err
	}
	return printUser(env, env.App.Session.Session().User)
}

func runRegister(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "register")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	reg := domain.Registration{Email: *email, Password: *password, ConfirmPassword: *password}
	if reg.Password == "" {
		var err error
		if reg.Password, err = prompt(env, "Password"); err != nil {
			return err
		}
		if reg.ConfirmPassword, err = prompt(env, "Confirm password"); err != nil {
			return err
		}
	}

	user, err := env.App.Auth.Register(ctx, reg)
	if err != nil {
		return err
	}
	return printMessage(env, fmt.Sprintf("Registered %s. Run `library login` to sign in.", user.Email))
}

func runChangePassword(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "change-password")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var change domain.PasswordChange
	var err error
	if change.CurrentPassword, err = prompt(env, "Current password"); err != nil {
		return err
	}
	if change.NewPassword, err = prompt(env, "New password"); err != nil {
		return err
	}
	if change.ConfirmNewPassword, err = prompt(env, "Confirm new password"); err != nil {
		return err
	}

	msg, err := env.App.Auth.ChangePassword(ctx, change)
	if err != nil {
		return err
	}
	return printMessage(env, msg)
}

func runForgotPassword(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "forgot-password")
	email := fs.String("email", "", "account email")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	msg, err := env.App.Auth.ForgotPassword(ctx, *email)
	if err != nil {
		return err
	}
	return printMessage(env, msg)
}

func runResetPassword(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "reset-password")
	email := fs.String("email", "", "account email")
	tok := fs.String("token", "", "reset token from the email")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	reset := domain.PasswordReset{Email: *email, Token: *tok}
	var err error
	if reset.NewPassword, err = prompt(env, "New password"); err != nil {
		return err
	}
	if reset.ConfirmNewPassword, err = prompt(env, "Confirm new password"); err != nil {
		return err
	}

	msg, err := env.App.Auth.ResetPassword(ctx, reset)
	if err != nil {
		return err
	}
	return printMessage(env, msg)
}

func runVersion(_ context.Context, env *Env, _ []string) error {
	if env.JSON {
		return printJSON(env.Out, map[string]string{"version": version.Version, "commit": version.Commit})
	}
	_, err := io.WriteString(env.Out, "library "+version.String()+"\n")
	return err
}
