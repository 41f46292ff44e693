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

// userBookColumns is the ordered list of columns selected in user_book
// queries. Must match the scan order in scanUserBook.
const userBookColumns = `id, user_id, book_id, status, rating, sync_state, date_added`

// scanUserBook scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.UserBook.
func scanUserBook(scanner interface{ Scan(dest ...any) error }) (*domain.UserBook, error) {
	var (
		ub        domain.UserBook
		id        int64
		userID    int64
		bookID    int64
		status    string
		rating    sql.NullInt64
		syncState string
		dateAdded string
	)

	if err := scanner.Scan(&id, &userID, &bookID, &status, &rating, &syncState, &dateAdded); err != nil {
		return nil, err
	}

	ub.ID = formatID(id)
	ub.UserID = formatID(userID)
	ub.BookID = formatID(bookID)
	ub.Status = domain.ReadingStatus(status)
	ub.SyncState = domain.SyncState(syncState)
	if rating.Valid {
		// Ratings round-trip as plain integers at the adapter boundary.
		r := int(rating.Int64)
		ub.Rating = &r
	}

	var err error
	ub.DateAdded, err = parseTime(dateAdded)
	if err != nil {
		return nil, err
	}
	return &ub, nil
}

// CreateUserBook assigns an ID and persists the row. The (user, book)
// pair must not already exist.
func (s *Store) CreateUserBook(ctx context.Context, userBook *domain.UserBook) (*domain.UserBook, error) {
	existing, err := s.FindUserBook(ctx, userBook.UserID, userBook.BookID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewDuplicateError("book is already in your library")
	}

	userKey, ok := parseID(userBook.UserID)
	if !ok {
		return nil, pkgerrors.NewValidationError("invalid user reference")
	}
	bookKey, ok := parseID(userBook.BookID)
	if !ok {
		return nil, pkgerrors.NewValidationError("invalid book reference")
	}

	var rating any
	if userBook.Rating != nil {
		rating = *userBook.Rating
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO user_books (user_id, book_id, status, rating, sync_state, date_added)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userKey, bookKey, string(userBook.Status), rating,
		string(userBook.SyncState), formatTime(userBook.DateAdded),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.NewDuplicateError("book is already in your library")
		}
		return nil, pkgerrors.NewInternalError("failed to create user book").WithCause(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read new user book id").WithCause(err)
	}

	created := *userBook
	created.ID = formatID(id)
	return &created, nil
}

// GetUserBook retrieves a row by ID, returning (nil, nil) when absent.
func (s *Store) GetUserBook(ctx context.Context, id string) (*domain.UserBook, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books WHERE id = ?`, key)
	return s.userBookFromRow(row)
}

// FindUserBook retrieves the row joining a user and a book.
func (s *Store) FindUserBook(ctx context.Context, userID, bookID string) (*domain.UserBook, error) {
	userKey, ok := parseID(userID)
	if !ok {
		return nil, nil
	}
	bookKey, ok := parseID(bookID)
	if !ok {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books WHERE user_id = ? AND book_id = ?`,
		userKey, bookKey)
	return s.userBookFromRow(row)
}

// ListForOwner returns the user's rows with their books in one join,
// ordered by date added ascending with ties broken by row ID.
func (s *Store) ListForOwner(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	userKey, ok := parseID(userID)
	if !ok {
		return []domain.LibraryEntry{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ub.id, ub.user_id, ub.book_id, ub.status, ub.rating, ub.sync_state, ub.date_added,
		        b.id, b.isbn, b.title, b.author, b.genre, b.cover_image_url, b.description, b.created_at
		 FROM user_books ub
		 JOIN books b ON b.id = ub.book_id
		 WHERE ub.user_id = ?
		 ORDER BY ub.date_added ASC, ub.id ASC`,
		userKey)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to list library").WithCause(err)
	}
	defer rows.Close()

	entries := []domain.LibraryEntry{}
	for rows.Next() {
		var (
			ubID, ownerID, bookID   int64
			status, sync, dateAdded string
			rating                  sql.NullInt64
			bID                     int64
			b                       domain.Book
			bCreatedAt              string
		)
		if err := rows.Scan(&ubID, &ownerID, &bookID, &status, &rating, &sync, &dateAdded,
			&bID, &b.ISBN, &b.Title, &b.Author, &b.Genre, &b.CoverImageURL, &b.Description, &bCreatedAt); err != nil {
			return nil, pkgerrors.NewInternalError("failed to list library").WithCause(err)
		}

		ub := domain.UserBook{
			ID:        formatID(ubID),
			UserID:    formatID(ownerID),
			BookID:    formatID(bookID),
			Status:    domain.ReadingStatus(status),
			SyncState: domain.SyncState(sync),
		}
		if rating.Valid {
			r := int(rating.Int64)
			ub.Rating = &r
		}
		if ub.DateAdded, err = parseTime(dateAdded); err != nil {
			return nil, pkgerrors.NewInternalError("failed to list library").WithCause(err)
		}

		b.ID = formatID(bID)
		if b.CreatedAt, err = parseTime(bCreatedAt); err != nil {
			return nil, pkgerrors.NewInternalError("failed to list library").WithCause(err)
		}

		entries = append(entries, domain.LibraryEntry{UserBook: ub, Book: b})
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewInternalError("failed to list library").WithCause(err)
	}

	return entries, nil
}

// UpdateUserBook merges non-nil fields into an existing row.
func (s *Store) UpdateUserBook(ctx context.Context, id string, update domain.UserBookUpdate) (*domain.UserBook, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, pkgerrors.NewNotFoundError("book")
	}

	var (
		sets []string
		args []any
	)
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.ClearRating {
		sets = append(sets, "rating = NULL")
	} else if update.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *update.Rating)
	}
	if update.SyncState != nil {
		sets = append(sets, "sync_state = ?")
		args = append(args, string(*update.SyncState))
	}

	if len(sets) > 0 {
		args = append(args, key)
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`UPDATE user_books SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to update user book").WithCause(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, pkgerrors.NewInternalError("failed to update user book").WithCause(err)
		}
		if affected == 0 {
			return nil, pkgerrors.NewNotFoundError("book")
		}
	}

	userBook, err := s.GetUserBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if userBook == nil {
		return nil, pkgerrors.NewNotFoundError("book")
	}
	return userBook, nil
}

// DeleteUserBook removes a row. Deleting a nonexistent ID is a no-op.
func (s *Store) DeleteUserBook(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_books WHERE id = ?`, key); err != nil {
		return pkgerrors.NewInternalError("failed to delete user book").WithCause(err)
	}
	return nil
}

// DeleteUserBooksForOwner removes every row owned by the user. The
// explicit cascade used on account deletion.
func (s *Store) DeleteUserBooksForOwner(ctx context.Context, userID string) error {
	userKey, ok := parseID(userID)
	if !ok {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_books WHERE user_id = ?`, userKey); err != nil {
		return pkgerrors.NewInternalError("failed to delete user books").WithCause(err)
	}
	return nil
}

func (s *Store) userBookFromRow(row *sql.Row) (*domain.UserBook, error) {
	userBook, err := scanUserBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to load user book").WithCause(err)
	}
	return userBook, nil
}
