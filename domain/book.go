package domain

import (
	"time"

	pkgerrors "booklib-backend/pkg/errors"
)

// DefaultGenre is assigned when a book is created without a genre.
const DefaultGenre = "Unknown"

// Placeholder values written when a book is created from a bare ISBN
// before metadata has been fetched. The metadata fetcher treats them
// as empty and replaces them.
const (
	PlaceholderTitle  = "Fetching Title..."
	PlaceholderAuthor = "Fetching Author..."
)

// Book is a single bibliographic record, shared across users.
// At most one Book exists per ISBN.
type Book struct {
	ID            string    `json:"id"`
	ISBN          string    `json:"isbn"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewBook creates a book record, filling placeholder fields so a bare
// ISBN can be added before its metadata arrives
func NewBook(isbn, title, author, genre, coverImageURL, description string) (*Book, error) {
	if isbn == "" {
		return nil, pkgerrors.NewValidationError("isbn is required")
	}
	if !ValidISBN(isbn) {
		return nil, pkgerrors.NewValidationError("isbn must be 10 or 13 digits")
	}
	if title == "" {
		title = PlaceholderTitle
	}
	if author == "" {
		author = PlaceholderAuthor
	}
	if genre == "" {
		genre = DefaultGenre
	}

	return &Book{
		ISBN:          isbn,
		Title:         title,
		Author:        author,
		Genre:         genre,
		CoverImageURL: coverImageURL,
		Description:   description,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// ValidISBN reports whether s is a 10- or 13-digit ISBN (hyphens stripped)
func ValidISBN(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '-':
			// allowed separator
		default:
			return false
		}
	}
	return digits == 10 || digits == 13
}

// NormalizeISBN strips hyphens so lookups compare raw digit strings
func NormalizeISBN(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r != '-' {
			out = append(out, r)
		}
	}
	return string(out)
}

// BookUpdate carries a partial update of a Book. Nil fields are
// left untouched.
type BookUpdate struct {
	Title         *string
	Author        *string
	Genre         *string
	CoverImageURL *string
	Description   *string
}

// Empty reports whether the update carries no changes
func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Genre == nil &&
		u.CoverImageURL == nil && u.Description == nil
}
