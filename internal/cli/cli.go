// Package cli implements the `library` command line front end on top of the
// application container.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/librarydesk/library-client/internal/app"
	"github.com/librarydesk/library-client/internal/core/domain"
)

// AppFactory builds a fresh container for one invocation.
type AppFactory func(ctx context.Context) (*app.App, error)

// access is the guard a command runs behind.
type access int

const (
	public access = iota
	authenticated
	adminOnly
)

type command struct {
	name   string
	usage  string
	access access
	run    func(ctx context.Context, env *Env, args []string) error
}

// Env is what a command sees: the container plus the process streams.
type Env struct {
	App  *app.App
	Out  io.Writer
	Err  io.Writer
	In   *bufio.Reader
	JSON bool
}

// CLI dispatches subcommands.
type CLI struct {
	newApp   AppFactory
	out      io.Writer
	errOut   io.Writer
	in       io.Reader
	commands map[string]*command
}

func New(newApp AppFactory, out, errOut io.Writer, in io.Reader) *CLI {
	c := &CLI{newApp: newApp, out: out, errOut: errOut, in: in, commands: map[string]*command{}}
	for _, cmd := range commands() {
		c.commands[cmd.name] = cmd
	}
	return c
}

func commands() []*command {
	return []*command{
		{name: "login", usage: "login [-email E] [-password P]", access: public, run: runLogin},
		{name: "logout", usage: "logout", access: public, run: runLogout},
		{name: "whoami", usage: "whoami", access: authenticated, run: runWhoami},
		{name: "profile", usage: "profile [-username U] [-email E]", access: authenticated, run: runProfile},
		{name: "register", usage: "register -email E [-password P]", access: public, run: runRegister},
		{name: "change-password", usage: "change-password", access: authenticated, run: runChangePassword},
		{name: "forgot-password", usage: "forgot-password -email E", access: public, run: runForgotPassword},
		{name: "reset-password", usage: "reset-password -email E -token T", access: public, run: runResetPassword},
		{name: "books", usage: "books [-q TEXT] [-search S] [-author A] [-year Y] [-publisher P] [-genre G]", access: public, run: runBooks},
		{name: "book", usage: "book ID | book -catalog NUMBER", access: public, run: runBook},
		{name: "checkout", usage: "checkout BOOK_ID", access: authenticated, run: runCheckout},
		{name: "return", usage: "return CHECKOUT_ID", access: authenticated, run: runReturn},
		{name: "renew", usage: "renew CHECKOUT_ID", access: authenticated, run: runRenew},
		{name: "my-books", usage: "my-books [-all]", access: authenticated, run: runMyBooks},
		{name: "admin", usage: "admin users|checkouts|overdue|set-role|delete-user|add-book|delete-book|add-stock ...", access: adminOnly, run: runAdmin},
		{name: "watch", usage: "watch [-addr HOST:PORT]", access: public, run: runWatch},
		{name: "version", usage: "version", access: public, run: runVersion},
	}
}

// Run executes one command line and returns the process exit code.
func (c *CLI) Run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("library", flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	jsonOut := fs.Bool("json", false, "print results as JSON")
	fs.Usage = c.usage
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		c.usage()
		return exitUsage
	}
	cmd, ok := c.commands[rest[0]]
	if !ok {
		fmt.Fprintf(c.errOut, "unknown command %q\n\n", rest[0])
		c.usage()
		return exitUsage
	}

	if cmd.name == "version" {
		return c.report(runVersion(ctx, &Env{Out: c.out, JSON: *jsonOut}, nil))
	}

	a, err := c.newApp(ctx)
	if err != nil {
		return c.report(err)
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil {
			a.Log.Warn().Err(cerr).Msg("closing")
		}
	}()
	if err := a.Start(ctx); err != nil {
		return c.report(err)
	}

	if err := guard(cmd.access, a); err != nil {
		return c.report(err)
	}
	env := &Env{App: a, Out: c.out, Err: c.errOut, In: bufio.NewReader(c.in), JSON: *jsonOut}
	return c.report(cmd.run(ctx, env, rest[1:]))
}

// guard enforces login and the admin role before a command runs.
func guard(level access, a *app.App) error {
	switch level {
	case authenticated:
		if !a.Session.IsAuthenticated() {
			return domain.ErrNotAuthenticated
		}
	case adminOnly:
		if !a.Session.IsAuthenticated() {
			return domain.ErrNotAuthenticated
		}
		if !a.Session.IsAdmin() {
			return errAdminRequired
		}
	}
	return nil
}

func (c *CLI) report(err error) int {
	if err == nil {
		return exitOK
	}
	code, msg := resolveError(err)
	fmt.Fprintln(c.errOut, "error: "+msg)
	return code
}

func (c *CLI) usage() {
	fmt.Fprintln(c.errOut, "usage: library [-json] <command> [flags]")
	fmt.Fprintln(c.errOut)
	fmt.Fprintln(c.errOut, "commands:")
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(c.errOut, "  "+c.commands[name].usage)
	}
}

// newFlags returns a flag set whose parse errors are reported as usage
// errors.
func newFlags(env *Env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Err)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return usageError{err.Error()}
	}
	return nil
}

// prompt reads one line from stdin after printing label to stderr. Input
// is echoed; pass secrets with flags or a pipe for unattended use.
func prompt(env *Env, label string) (string, error) {
	fmt.Fprint(env.Err, label+": ")
	line, err := env.In.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", usageError{"missing " + strings.ToLower(label)}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// valueOrPrompt returns v, or asks for it when empty.
func valueOrPrompt(env *Env, v, label string) (string, error) {
	if v != "" {
		return v, nil
	}
	return prompt(env, label)
}

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, usageError{"expected " + what}
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError{fmt.Sprintf("invalid %s %q", what, args[0])}
	}
	return id, nil
}
