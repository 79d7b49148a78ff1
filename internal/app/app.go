// Package app wires configuration, storage, the HTTP client, the API clients
// and the session manager into one container shared by every command.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/librarydesk/library-client/internal/core/domain"
	"github.com/librarydesk/library-client/internal/core/service"
	statushttp "github.com/librarydesk/library-client/internal/infrastructure/http"
	"github.com/librarydesk/library-client/internal/infrastructure/http/handlers"
	"github.com/librarydesk/library-client/internal/infrastructure/httpclient"
	"github.com/librarydesk/library-client/internal/infrastructure/libraryapi"
	"github.com/librarydesk/library-client/internal/infrastructure/metrics"
	"github.com/librarydesk/library-client/internal/infrastructure/storage"
	"github.com/librarydesk/library-client/internal/pkg/config"
	"github.com/librarydesk/library-client/internal/version"
)

// reloadTimeout bounds the session reload triggered by a 401.
const reloadTimeout = 10 * time.Second

type App struct {
	Config  *config.Config
	Log     zerolog.Logger
	Version string

	Storage   storage.Backend
	HTTP      *httpclient.Client
	Auth      *libraryapi.AuthClient
	Books     *libraryapi.BookClient
	CheckOuts *libraryapi.CheckOutClient
	Users     *libraryapi.UserClient
	Session   *service.SessionManager
	Metrics   *metrics.Recorder

	unsubscribe []func()
}

type Option func(*options)

type options struct {
	storage storage.Backend
	now     func() time.Time
}

// WithStorage injects a ready backend instead of opening the configured one.
func WithStorage(b storage.Backend) Option {
	return func(o *options) { o.storage = b }
}

// WithClock replaces time.Now for token expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New builds the container. Call Start to restore the persisted session and
// Close to release it.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Version: cfg.AppVersion,
		Metrics: metrics.NewRecorder(),
	}
	if a.Version == "" {
		a.Version = version.Version
	}

	a.Storage = o.storage
	if a.Storage == nil {
		b, err := storage.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Storage = b
	}

	client, err := httpclient.New(httpclient.Options{
		BaseURL:        cfg.APIURL,
		Timeout:        cfg.HTTPTimeout,
		UserAgent:      "library-client/" + a.Version,
		Storage:        a.Storage,
		OnUnauthorized: a.redirectToLogin,
		Observer:       a.Metrics,
		Now:            o.now,
		Logger:         log,
	})
	if err != nil {
		_ = a.Storage.Close(ctx)
		return nil, fmt.Errorf("http client: %w", err)
	}
	a.HTTP = client

	a.Auth = libraryapi.NewAuthClient(client)
	a.Books = libraryapi.NewBookClient(client)
	a.CheckOuts = libraryapi.NewCheckOutClient(client)
	a.Users = libraryapi.NewUserClient(client)

	a.Session = service.NewSessionManager(a.Auth, a.Storage, client, service.SessionManagerOptions{
		Version:            a.Version,
		ValidationInterval: cfg.ValidationInterval,
		Now:                o.now,
		Logger:             log,
	})
	a.unsubscribe = append(a.unsubscribe,
		a.Session.Subscribe(a.Metrics.SessionEvent),
		a.Session.Subscribe(a.logTransition),
	)
	return a, nil
}

// Start restores the persisted session.
func (a *App) Start(ctx context.Context) error {
	return a.Session.Initialize(ctx)
}

// Close stops background validation and releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.Session.Close()
	return a.Storage.Close(ctx)
}

// StatusRouter builds the local status endpoint served by `library watch`.
func (a *App) StatusRouter() *echo.Echo {
	return statushttp.NewRouter(statushttp.Deps{
		Session: a.Session,
		Checks:  map[string]handlers.Check{"storage": a.Storage.Ping},
		Logger:  a.Log,
	})
}

// redirectToLogin is the 401 hook. Storage has already lost token and user,
// so reloading drops the in-memory session the way a fresh start would.
func (a *App) redirectToLogin(ctx context.Context, reason domain.Reason) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reloadTimeout)
	defer cancel()
	if err := a.Session.Reload(ctx, reason); err != nil && !errors.Is(err, context.Canceled) {
		a.Log.Error().Err(err).Msg("reloading session after 401")
	}
}

func (a *App) logTransition(ev domain.SessionEvent) {
	e := a.Log.Debug().Str("reason", string(ev.Reason)).Str("state", string(ev.Session.State()))
	if ev.Session.User != nil {
		e = e.Int64("user_id", ev.Session.User.ID)
	}
	e.Msg("session changed")
}
