package services

import (
	"context"

	"go.uber.org/zap"

	"booklib-backend/application/ports"
	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// LibraryService handles the per-user book collection
type LibraryService struct {
	store      ports.Store
	dispatcher ports.MetadataDispatcher
	logger     *zap.Logger
}

// NewLibraryService creates a library service
func NewLibraryService(store ports.Store, dispatcher ports.MetadataDispatcher, logger *zap.Logger) *LibraryService {
	return &LibraryService{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// AddBookInput carries the fields accepted when adding a book
type AddBookInput struct {
	ISBN          string
	Title         string
	Author        string
	Genre         string
	CoverImageURL string
	Description   string
	Status        domain.ReadingStatus
	Rating        *int
}

// AddBook creates (or reuses) the Book for the given ISBN, creates the
// caller's UserBook row with a pending sync state, and dispatches a
// metadata fetch. The HTTP response never waits for the fetch.
//
// Book creation and UserBook creation are two independent writes: if
// the second fails, the Book may remain without a referencing row.
// That is a recoverable state, not an error to unwind.
func (s *LibraryService) AddBook(ctx context.Context, userID string, in AddBookInput) (*domain.LibraryEntry, error) {
	isbn := domain.NormalizeISBN(in.ISBN)

	book, err := domain.NewBook(isbn, in.Title, in.Author, in.Genre, in.CoverImageURL, in.Description)
	if err != nil {
		return nil, err
	}
	book, err = s.store.CreateBook(ctx, book)
	if err != nil {
		return nil, err
	}

	userBook, err := domain.NewUserBook(userID, book.ID, in.Status, in.Rating)
	if err != nil {
		return nil, err
	}
	userBook, err = s.store.CreateUserBook(ctx, userBook)
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.Dispatch(ctx, userBook.ID); err != nil {
		// The row stays pending; a failed dispatch must not fail the add.
		s.logger.Error("Failed to dispatch metadata fetch",
			zap.String("userBookID", userBook.ID),
			zap.Error(err),
		)
	}

	s.logger.Info("Book added to library",
		zap.String("userID", userID),
		zap.String("bookID", book.ID),
		zap.String("isbn", book.ISBN),
	)

	return &domain.LibraryEntry{UserBook: *userBook, Book: *book}, nil
}

// ListBooks returns the user's library ordered by date added
func (s *LibraryService) ListBooks(ctx context.Context, userID string) ([]domain.LibraryEntry, error) {
	return s.store.ListForOwner(ctx, userID)
}

// GetEntry returns a single library row, enforcing ownership
func (s *LibraryService) GetEntry(ctx context.Context, userID, userBookID string) (*domain.LibraryEntry, error) {
	userBook, err := s.ownedUserBook(ctx, userID, userBookID)
	if err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, userBook.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, pkgerrors.NewNotFoundError("book")
	}

	return &domain.LibraryEntry{UserBook: *userBook, Book: *book}, nil
}

// UpdateEntryInput carries a manual edit of a library row and its book
type UpdateEntryInput struct {
	Title         *string
	Author        *string
	Genre         *string
	CoverImageURL *string
	Description   *string
	Status        *domain.ReadingStatus
	Rating        *int
	ClearRating   bool
}

// UpdateEntry applies a manual edit. The edit marks the row synced:
// the user has supplied the fields the fetcher would have.
func (s *LibraryService) UpdateEntry(ctx context.Context, userID, userBookID string, in UpdateEntryInput) (*domain.LibraryEntry, error) {
	userBook, err := s.ownedUserBook(ctx, userID, userBookID)
	if err != nil {
		return nil, err
	}

	if in.Status != nil && !in.Status.Valid() {
		return nil, pkgerrors.NewValidationError("status must be one of: not-started, in-progress, finished")
	}
	if err := domain.ValidateRating(in.Rating); err != nil {
		return nil, err
	}

	bookUpdate := domain.BookUpdate{
		Title:         in.Title,
		Author:        in.Author,
		Genre:         in.Genre,
		CoverImageURL: in.CoverImageURL,
		Description:   in.Description,
	}
	book, err := s.store.GetBook(ctx, userBook.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, pkgerrors.NewNotFoundError("book")
	}
	if !bookUpdate.Empty() {
		book, err = s.store.UpdateBook(ctx, userBook.BookID, bookUpdate)
		if err != nil {
			return nil, err
		}
	}

	synced := domain.SyncSynced
	userBook, err = s.store.UpdateUserBook(ctx, userBookID, domain.UserBookUpdate{
		Status:      in.Status,
		Rating:      in.Rating,
		ClearRating: in.ClearRating,
		SyncState:   &synced,
	})
	if err != nil {
		return nil, err
	}

	return &domain.LibraryEntry{UserBook: *userBook, Book: *book}, nil
}

// DeleteEntry removes a library row, enforcing ownership. The shared
// Book record stays.
func (s *LibraryService) DeleteEntry(ctx context.Context, userID, userBookID string) error {
	if _, err := s.ownedUserBook(ctx, userID, userBookID); err != nil {
		return err
	}
	return s.store.DeleteUserBook(ctx, userBookID)
}

// ownedUserBook loads a UserBook and verifies the caller owns it
func (s *LibraryService) ownedUserBook(ctx context.Context, userID, userBookID string) (*domain.UserBook, error) {
	userBook, err := s.store.GetUserBook(ctx, userBookID)
	if err != nil {
		return nil, err
	}
	if userBook == nil {
		return nil, pkgerrors.NewNotFoundError("book")
	}
	if userBook.UserID != userID {
		return nil, pkgerrors.NewForbiddenError("you are not authorized to access this book")
	}
	return userBook, nil
}
