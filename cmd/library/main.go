// Command library is the command line client of the library management API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/librarydesk/library-client/internal/app"
	"github.com/librarydesk/library-client/internal/cli"
	"github.com/librarydesk/library-client/internal/pkg/config"
	"github.com/librarydesk/library-client/internal/version"
	"github.com/librarydesk/library-client/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: "+err.Error())
		return 2
	}

	ver := cfg.AppVersion
	if ver == "" {
		ver = version.Version
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Version: ver})

	newApp := func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, log)
	}
	return cli.New(newApp, os.Stdout, os.Stderr, os.Stdin).Run(ctx, os.Args[1:])
}
