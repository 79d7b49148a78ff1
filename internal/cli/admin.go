package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/librarydesk/library-client/internal/core/domain"
)

type adminCommand struct {
	usage string
	run   func(ctx context.Context, env *Env, args []string) error
}

var adminCommands = map[string]adminCommand{
	"users":       {"users", adminUsers},
	"checkouts":   {"checkouts [-active]", adminCheckOuts},
	"overdue":     {"overdue", adminOverdue},
	"set-role":    {"set-role USER_ID Customer|Admin", adminSetRole},
	"delete-user": {"delete-user USER_ID", adminDeleteUser},
	"add-book":    {"add-book -title T -author A -year Y -publisher P -genre G -catalog C -copies N", adminAddBook},
	"delete-book": {"delete-book BOOK_ID", adminDeleteBook},
	"add-stock":   {"add-stock BOOK_ID COUNT", adminAddStock},
}

func runAdmin(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return usageError{"missing admin subcommand:" + adminUsage()}
	}
	sub, ok := adminCommands[args[0]]
	if !ok {
		return usageError{fmt.Sprintf("unknown admin subcommand %q:%s", args[0], adminUsage())}
	}
	return sub.run(ctx, env, args[1:])
}

func adminUsage() string {
	names := slices.Sorted(maps.Keys(adminCommands))
	var b strings.Builder
	for _, name := range names {
		b.WriteString("\n  library admin " + adminCommands[name].usage)
	}
	return b.String()
}

func adminUsers(ctx context.Context, env *Env, _ []string) error {
	users, err := env.App.Users.List(ctx)
	if err != nil {
		return err
	}
	return printUsers(env, users)
}

func adminCheckOuts(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "admin checkouts")
	active := fs.Bool("active", false, "only loans not yet returned")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	list := env.App.CheckOuts.All
	if *active {
		list = env.App.CheckOuts.Active
	}
	loans, err := list(ctx)
	if err != nil {
		return err
	}
	return printCheckOuts(env, loans, true)
}

func adminOverdue(ctx context.Context, env *Env, _ []string) error {
	loans, err := env.App.CheckOuts.Overdue(ctx)
	if err != nil {
		return err
	}
	return printCheckOuts(env, loans, true)
}

func adminSetRole(ctx context.Context, env *Env, args []string) error {
	if len(args) != 2 {
		return usageError{"usage: library admin set-role USER_ID Customer|Admin"}
	}
	id, err := parseID(args[:1], "user id")
	if err != nil {
		return err
	}
	role := domain.Role(args[1])
	if err := env.App.Users.SetRole(ctx, id, role); err != nil {
		return err
	}
	return printMessage(env, fmt.Sprintf("User %d is now %s.", id, role))
}

func adminDeleteUser(ctx context.Context, env *Env, args []string) error {
	id, err := parseID(args, "user id")
	if err != nil {
		return err
	}
	if id == env.App.Session.Session().User.ID {
		return usageError{"you cannot delete your own account"}
	}
	if err := env.App.Users.Delete(ctx, id); err != nil {
		return err
	}
	return printMessage(env, fmt.Sprintf("User %d deleted.", id))
}

func adminAddBook(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "admin add-book")
	var in domain.BookInput
	var genre string
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.Author, "author", "", "author")
	fs.IntVar(&in.PublishedYear, "year", 0, "publication year")
	fs.StringVar(&in.Publisher, "publisher", "", "publisher")
	fs.StringVar(&genre, "genre", string(domain.GenreOther), "genre")
	fs.StringVar(&in.CatalogNumber, "catalog", "", "catalog number")
	fs.IntVar(&in.TotalCopies, "copies", 1, "number of copies")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	in.Genre = domain.Genre(genre)

	book, err := env.App.Books.Create(ctx, in)
	if err != nil {
		return err
	}
	return printBook(env, book)
}

func adminDeleteBook(ctx context.Context, env *Env, args []string) error {
	id, err := parseID(args, "book id")
	if err != nil {
		return err
	}
	if err := env.App.Books.Delete(ctx, id); err != nil {
		return err
	}
	return printMessage(env, fmt.Sprintf("Book %d deleted.", id))
}

// adminAddStock raises (or with a negative count lowers) the total copies.
func adminAddStock(ctx context.Context, env *Env, args []string) error {
	if len(args) != 2 {
		return usageError{"usage: library admin add-stock BOOK_ID COUNT"}
	}
	id, err := parseID(args[:1], "book id")
	if err != nil {
		return err
	}
	delta, err := strconv.Atoi(args[1])
	if err != nil {
		return usageError{fmt.Sprintf("invalid count %q", args[1])}
	}

	book, err := env.App.Books.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := env.App.Books.UpdateQuantity(ctx, id, book.TotalCopies+delta); err != nil {
		return err
	}
	return printMessage(env, fmt.Sprintf("%q now has %d copies.", book.Title, book.TotalCopies+delta))
}
