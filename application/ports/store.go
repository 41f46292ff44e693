package ports

import (
	"context"

	"booklib-backend/domain"
)

// UserStore defines persistence for user accounts.
// This is a port in hexagonal architecture - the services don't know
// which backend implements it.
//
// Lookup methods return (nil, nil) when no record matches; only
// operations that require an existing record return a not-found error.
type UserStore interface {
	// CreateUser assigns an ID and persists the user. It fails with a
	// duplicate error when the username or email is already taken
	// (case-sensitive comparison).
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// GetUserByEmail retrieves a user by its unique email
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByUsername retrieves a user by its unique username
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// DeleteUser removes a user. Deleting a nonexistent ID is not an error.
	DeleteUser(ctx context.Context, id string) error
}

// BookStore defines persistence for shared book records
type BookStore interface {
	// CreateBook persists a book, reusing an existing record when one
	// already holds the same ISBN (idempotent per ISBN).
	CreateBook(ctx context.Context, book *domain.Book) (*domain.Book, error)

	// GetBook retrieves a book by ID
	GetBook(ctx context.Context, id string) (*domain.Book, error)

	// GetBookByISBN retrieves a book by its unique ISBN
	GetBookByISBN(ctx context.Context, isbn string) (*domain.Book, error)

	// UpdateBook merges non-nil fields into an existing book and returns
	// the result. It fails with a not-found error when the ID does not exist.
	UpdateBook(ctx context.Context, id string, update domain.BookUpdate) (*domain.Book, error)
}

// UserBookStore defines persistence for the user-to-book relationship
type UserBookStore interface {
	// CreateUserBook assigns an ID and persists the row. It fails with a
	// duplicate error when the (user, book) pair already exists.
	CreateUserBook(ctx context.Context, userBook *domain.UserBook) (*domain.UserBook, error)

	// GetUserBook retrieves a row by ID
	GetUserBook(ctx context.Context, id string) (*domain.UserBook, error)

	// FindUserBook retrieves the row joining a user and a book
	FindUserBook(ctx context.Context, userID, bookID string) (*domain.UserBook, error)

	// ListForOwner returns the user's rows enriched with their books,
	// ordered by date-added ascending with ties broken by ID. Rows whose
	// book record is missing are skipped.
	ListForOwner(ctx context.Context, userID string) ([]domain.LibraryEntry, error)

	// UpdateUserBook merges non-nil fields into an existing row and returns
	// the result. It fails with a not-found error when the ID does not exist.
	UpdateUserBook(ctx context.Context, id string, update domain.UserBookUpdate) (*domain.UserBook, error)

	// DeleteUserBook removes a row. Deleting a nonexistent ID is not an error.
	DeleteUserBook(ctx context.Context, id string) error

	// DeleteUserBooksForOwner removes every row owned by the user. This is
	// the explicit cascade used when an account is deleted; neither backend
	// relies on implicit referential cleanup.
	DeleteUserBooksForOwner(ctx context.Context, userID string) error
}

// Store is the full Entity Store Adapter: uniform CRUD and query access
// over Users, Books, and UserBook relationships regardless of the
// physical backend.
type Store interface {
	UserStore
	BookStore
	UserBookStore
}
