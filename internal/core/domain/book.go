package domain

import "strings"

type Genre string

const (
	GenreFiction     Genre = "Fiction"
	GenreNonFiction  Genre = "NonFiction"
	GenreMystery     Genre = "Mystery"
	GenreSciFi       Genre = "SciFi"
	GenreFantasy     Genre = "Fantasy"
	GenreRomance     Genre = "Romance"
	GenreHorror      Genre = "Horror"
	GenreThriller    Genre = "Thriller"
	GenreBiography   Genre = "Biography"
	GenreHistory     Genre = "History"
	GenreChildren    Genre = "Children"
	GenreScience     Genre = "Science"
	GenrePhilosophy  Genre = "Philosophy"
	GenrePsychology  Genre = "Psychology"
	GenreProgramming Genre = "Programming"
	GenreBusiness    Genre = "Business"
	GenreSelfHelp    Genre = "SelfHelp"
	GenreTravel      Genre = "Travel"
	GenreArt         Genre = "Art"
	GenreCooking     Genre = "Cooking"
	GenreOther       Genre = "Other"
)

// Book is a catalog title with its stock counters.
type Book struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	PublishedYear   int    `json:"publishedYear"`
	Publisher       string `json:"publisher"`
	Genre           Genre  `json:"genre"`
	CatalogNumber   string `json:"catalogNumber"`
	TotalCopies     int    `json:"totalCopies"`
	AvailableCopies int    `json:"availableCopies"`
}

// Available reports whether at least one copy can be checked out.
func (b Book) Available() bool {
	return b.AvailableCopies > 0
}

// BookInput is used for both create and update; CatalogNumber and
// TotalCopies are ignored by the update endpoint.
type BookInput struct {
	Title         string `json:"title"                   validate:"required,max=200"`
	Author        string `json:"author"                  validate:"required,max=100"`
	PublishedYear int    `json:"publishedYear"           validate:"required,gt=0"`
	Publisher     string `json:"publisher"               validate:"required,max=100"`
	Genre         Genre  `json:"genre"                   validate:"required"`
	CatalogNumber string `json:"catalogNumber,omitempty"`
	TotalCopies   int    `json:"totalCopies,omitempty"   validate:"gte=0"`
}

// BookFilter narrows the catalog listing server side.
type BookFilter struct {
	Search    string
	Author    string
	Year      int
	Publisher string
	Genre     Genre
}

// FilterBooks applies the catalog page's local filter: optional genre, then a
// case-insensitive substring match on title or author.
func FilterBooks(books []Book, query string, genre Genre) []Book {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if genre != "" && b.Genre != genre {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(b.Title), q) &&
			!strings.Contains(strings.ToLower(b.Author), q) {
			continue
		}
		out = append(out, b)
	}
	return out
}
