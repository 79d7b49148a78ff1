package cli

import (
	"context"

	"github.com/librarydesk/library-client/internal/core/domain"
)

func runBooks(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "books")
	var f domain.BookFilter
	fs.StringVar(&f.Search, "search", "", "server side search on title, author and catalog number")
	fs.StringVar(&f.Author, "author", "", "server side author filter")
	fs.IntVar(&f.Year, "year", 0, "server side publication year filter")
	fs.StringVar(&f.Publisher, "publisher", "", "server side publisher filter")
	query := fs.String("q", "", "match title or author")
	genre := fs.String("genre", "", "only this genre")
	available := fs.Bool("available", false, "only books with a free copy")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	books, err := env.App.Books.List(ctx, f)
	if err != nil {
		return err
	}
	books = domain.FilterBooks(books, *query, domain.Genre(*genre))
	if *available {
		out := books[:0]
		for _, b := range books {
			if b.Available() {
				out = append(out, b)
			}
		}
		books = out
	}
	return printBooks(env, books)
}

func runBook(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "book")
	catalog := fs.String("catalog", "", "look up by catalog number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	var (
		book *domain.Book
		err  error
	)
	if *catalog != "" {
		book, err = env.App.Books.GetByCatalogNumber(ctx, *catalog)
	} else {
		var id int64
		if id, err = parseID(fs.Args(), "book id"); err != nil {
			return err
		}
		book, err = env.App.Books.Get(ctx, id)
	}
	if err != nil {
		return err
	}
	return printBook(env, book)
}

func runCheckout(ctx context.Context, env *Env, args []string) error {
	id, err := parseID(args, "book id")
	if err != nil {
		return err
	}
	loan, err := env.App.CheckOuts.Create(ctx, id)
	if err != nil {
		return err
	}
	return printCheckOut(env, "Checked out", loan)
}

func runReturn(ctx context.Context, env *Env, args []string) error {
	id, err := parseID(args, "checkout id")
	if err != nil {
		return err
	}
	loan, err := env.App.CheckOuts.Return(ctx, id)
	if err != nil {
		return err
	}
	return printCheckOut(env, "Returned", loan)
}

func runRenew(ctx context.Context, env *Env, args []string) error {
	id, err := parseID(args, "checkout id")
	if err != nil {
		return err
	}
	loan, err := env.App.CheckOuts.Renew(ctx, id)
	if err != nil {
		return err
	}
	return printCheckOut(env, "Renewed", loan)
}

// runMyBooks lists the caller's loans, current ones only unless -all.
func runMyBooks(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "my-books")
	all := fs.Bool("all", false, "include returned books")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	loans, err := env.App.CheckOuts.ForUser(ctx, 0)
	if err != nil {
		return err
	}
	if !*all {
		current := make([]domain.CheckOut, 0, len(loans))
		for _, c := range loans {
			if c.IsCurrent() {
				current = append(current, c)
			}
		}
		loans = current
	}
	return printCheckOuts(env, loans, false)
}
