package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/librarydesk/library-client/internal/core/domain"
)

const dateLayout = "2006-01-02"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func printUser(env *Env, u *domain.User) error {
	if env.JSON {
		return printJSON(env.Out, u)
	}
	tw := table(env.Out)
	fmt.Fprintf(tw, "ID:\t%d\n", u.ID)
	fmt.Fprintf(tw, "User name:\t%s\n", u.UserName)
	fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	fmt.Fprintf(tw, "Role:\t%s\n", u.Role)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Member since:\t%s\n", u.CreatedAt.Format(dateLayout))
	}
	return tw.Flush()
}

func printUsers(env *Env, users []domain.User) error {
	if env.JSON {
		return printJSON(env.Out, users)
	}
	tw := table(env.Out)
	fmt.Fprintln(tw, "ID\tUSER NAME\tEMAIL\tROLE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.UserName, u.Email, u.Role)
	}
	return tw.Flush()
}

func printBooks(env *Env, books []domain.Book) error {
	if env.JSON {
		return printJSON(env.Out, books)
	}
	if len(books) == 0 {
		fmt.Fprintln(env.Out, "No books found.")
		return nil
	}
	tw := table(env.Out)
	fmt.Fprintln(tw, "ID\tCATALOG\tTITLE\tAUTHOR\tYEAR\tGENRE\tAVAILABLE")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%d/%d\n",
			b.ID, b.CatalogNumber, b.Title, b.Author, b.PublishedYear, b.Genre, b.AvailableCopies, b.TotalCopies)
	}
	return tw.Flush()
}

func printBook(env *Env, b *domain.Book) error {
	if env.JSON {
		return printJSON(env.Out, b)
	}
	tw := table(env.Out)
	fmt.Fprintf(tw, "ID:\t%d\n", b.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", b.Title)
	fmt.Fprintf(tw, "Author:\t%s\n", b.Author)
	fmt.Fprintf(tw, "Published:\t%d, %s\n", b.PublishedYear, b.Publisher)
	fmt.Fprintf(tw, "Genre:\t%s\n", b.Genre)
	fmt.Fprintf(tw, "Catalog number:\t%s\n", b.CatalogNumber)
	fmt.Fprintf(tw, "Copies:\t%d of %d available\n", b.AvailableCopies, b.TotalCopies)
	return tw.Flush()
}

// loanState renders the due column the way the My Books page does.
func loanState(c domain.CheckOut, now time.Time) string {
	if !c.IsCurrent() {
		if c.ReturnedLate() {
			return "returned late " + c.ReturnDate.Format(dateLayout)
		}
		return "returned " + c.ReturnDate.Format(dateLayout)
	}
	switch days := c.DaysLeft(now); {
	case days < 0:
		return "overdue by " + plural(-days, "day")
	case days == 0:
		return "due today"
	default:
		return plural(days, "day") + " left"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

func printCheckOuts(env *Env, loans []domain.CheckOut, withUser bool) error {
	if env.JSON {
		return printJSON(env.Out, loans)
	}
	if len(loans) == 0 {
		fmt.Fprintln(env.Out, "No checkouts.")
		return nil
	}
	now := time.Now()
	tw := table(env.Out)
	if withUser {
		fmt.Fprintln(tw, "ID\tBOOK\tUSER\tCHECKED OUT\tDUE\tSTATE")
	} else {
		fmt.Fprintln(tw, "ID\tBOOK\tCHECKED OUT\tDUE\tSTATE")
	}
	for _, c := range loans {
		book := fmt.Sprintf("%s (%s)", c.BookTitle, c.CatalogNumber)
		if withUser {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, book, c.UserName,
				c.CheckOutDate.Format(dateLayout), c.DueDate.Format(dateLayout), loanState(c, now))
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, book,
			c.CheckOutDate.Format(dateLayout), c.DueDate.Format(dateLayout), loanState(c, now))
	}
	return tw.Flush()
}

func printCheckOut(env *Env, verb string, c *domain.CheckOut) error {
	if env.JSON {
		return printJSON(env.Out, c)
	}
	fmt.Fprintf(env.Out, "%s %q (loan %d), due %s.\n", verb, c.BookTitle, c.ID, c.DueDate.Format(dateLayout))
	return nil
}

func printMessage(env *Env, msg string) error {
	if env.JSON {
		return printJSON(env.Out, map[string]string{"message": msg})
	}
	fmt.Fprintln(env.Out, msg)
	return nil
}
