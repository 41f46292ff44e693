package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "booklib-backend/pkg/errors"
)

func TestValidISBN(t *testing.T) {
	tests := []struct {
		name string
		isbn string
		want bool
	}{
		{"ten digits", "0306406152", true},
		{"thirteen digits", "9780306406157", true},
		{"hyphenated thirteen", "978-0-306-40615-7", true},
		{"hyphenated ten", "0-306-40615-2", true},
		{"eleven digits", "03064061521", false},
		{"letters", "97803064061X", false},
		{"empty", "", false},
		{"spaces", "978 0306406157", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidISBN(tt.isbn))
		})
	}
}

func TestNormalizeISBN(t *testing.T) {
	assert.Equal(t, "9780306406157", NormalizeISBN("978-0-306-40615-7"))
	assert.Equal(t, "0306406152", NormalizeISBN("0306406152"))
}

func TestNewBook_FillsPlaceholders(t *testing.T) {
	book, err := NewBook("9780306406157", "", "", "", "", "")
	require.NoError(t, err)

	assert.Equal(t, PlaceholderTitle, book.Title)
	assert.Equal(t, PlaceholderAuthor, book.Author)
	assert.Equal(t, DefaultGenre, book.Genre)
	assert.Empty(t, book.ID)
	assert.False(t, book.CreatedAt.IsZero())
}

func TestNewBook_KeepsProvidedFields(t *testing.T) {
	book, err := NewBook("9780306406157", "Dune", "Frank Herbert", "Science Fiction", "", "A desert planet")
	require.NoError(t, err)

	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, "Science Fiction", book.Genre)
	assert.Equal(t, "A desert planet", book.Description)
}

func TestNewBook_RejectsBadISBN(t *testing.T) {
	_, err := NewBook("not-an-isbn", "", "", "", "", "")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewBook("", "", "", "", "", "")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestBookUpdate_Empty(t *testing.T) {
	assert.True(t, BookUpdate{}.Empty())

	title := "x"
	assert.False(t, BookUpdate{Title: &title}.Empty())
}
