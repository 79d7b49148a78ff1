package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/librarydesk/library-client/internal/core/domain"
	statushttp "github.com/librarydesk/library-client/internal/infrastructure/http"
	"github.com/librarydesk/library-client/internal/infrastructure/queue"
)

// runWatch keeps the session alive in the foreground: background validation
// runs, transitions are printed, and the status endpoint serves /health,
// /session and /metrics until the context is cancelled.
func runWatch(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "watch")
	addr := fs.String("addr", env.App.Config.StatusAddr, "status endpoint listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("status endpoint: %w", err)
	}

	s := env.App.Session.Session()
	if s.IsAuthenticated() {
		fmt.Fprintf(env.Out, "Watching session of %s, status on http://%s\n", s.User.UserName, ln.Addr())
	} else {
		fmt.Fprintf(env.Out, "Not logged in, status on http://%s\n", ln.Addr())
	}

	events := queue.NewDispatcher(func(_ context.Context, ev domain.SessionEvent) error {
		_, err := fmt.Fprintf(env.Out, "%s  %s (%s)\n", time.Now().Format(time.RFC3339), ev.Session.State(), ev.Reason)
		return err
	}, env.App.Log)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events.Start(ctx)
	unsubscribe := env.App.Session.Subscribe(events.Enqueue)

	err = statushttp.Serve(ctx, env.App.StatusRouter(), ln)
	unsubscribe()
	cancel()
	<-events.Done()
	return err
}
