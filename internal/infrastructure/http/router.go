// Package http serves the local status endpoint of a long-running client.
package http

import (
	"context"
	"errors"
	"net"
	nethttp "net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/librarydesk/library-client/internal/infrastructure/http/handlers"
)

const shutdownTimeout = 5 * time.Second

// Deps are the collaborators the status routes read from.
type Deps struct {
	Session handlers.SessionSource
	Checks  map[string]handlers.Check
	Logger  zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// --- Global middleware ---
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(d.Logger))

	healthHandler := handlers.NewHealthHandler(d.Session.Version())
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Checks)
	sessionHandler := handlers.NewSessionHandler(d.Session)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/session", sessionHandler.Get)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	log = log.With().Str("component", "status").Logger()
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Dur("latency", v.Latency).
				Msg("status request")
			return nil
		},
	})
}

// Serve runs e on ln until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, e *echo.Echo, ln net.Listener) error {
	e.Listener = ln

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(""); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
