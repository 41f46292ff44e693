package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, isbn, title, author, genre, cover_image_url, description, created_at`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b         domain.Book
		id        int64
		createdAt string
	)

	if err := scanner.Scan(&id, &b.ISBN, &b.Title, &b.Author, &b.Genre,
		&b.CoverImageURL, &b.Description, &createdAt); err != nil {
		return nil, err
	}

	b.ID = formatID(id)
	var err error
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook persists a book. At most one record exists per ISBN: when
// a record already holds the same ISBN it is returned instead of
// inserting a duplicate.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	existing, err := s.GetBookByISBN(ctx, book.ISBN)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO books (isbn, title, author, genre, cover_image_url, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book.ISBN, book.Title, book.Author, book.Genre,
		book.CoverImageURL, book.Description, formatTime(book.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent insert of the same ISBN.
			return s.GetBookByISBN(ctx, book.ISBN)
		}
		return nil, pkgerrors.NewInternalError("failed to create book").WithCause(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read new book id").WithCause(err)
	}

	created := *book
	created.ID = formatID(id)
	return &created, nil
}

// GetBook retrieves a book by ID, returning (nil, nil) when absent.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, key)
	return s.bookFromRow(row)
}

// GetBookByISBN retrieves a book by its unique ISBN.
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = ?`, isbn)
	return s.bookFromRow(row)
}

// UpdateBook merges non-nil fields into an existing book.
func (s *Store) UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.Book, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("book")
	}

	var (
		sets []string
		args []any
	)
	appendSet := func(column string, value *string) {
		if value != nil {
			sets = append(sets, fmt.Sprintf("%s = ?", column))
			args = append(args, *value)
		}
	}
	appendSet("title", update.Title)
	appendSet("author", update.Author)
	appendSet("genre", update.Genre)
	appendSet("cover_image_url", update.CoverImageURL)
	appendSet("description", update.Description)

	if len(sets) > 0 {
		args = append(args, key)
		res, err := s.db.ExecContext(ctx,
			`UPDATE books SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to update book").WithCause(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to update book").WithCause(err)
		}
		if affected == 0 {
			return nil, pkgerrors.NewNotFoundError("book")
		}
	}

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, pkgerrors.NewNotFoundError("book")
	}
	return book, nil
}

func (s *Store) bookFromRow(row *sql.Row) (*domain.Book, error) {
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to load book").WithCause(err)
	}
	return book, nil
}
