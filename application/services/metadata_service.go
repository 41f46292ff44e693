package services

import (
	"context"

	"go.uber.org/zap"

	"booklib-backend/application/ports"
	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// MetadataService enriches Book records from an external metadata
// provider. The same Fetch runs in both dispatch modes; it never knows
// whether a goroutine or a queue worker invoked it.
type MetadataService struct {
	store    ports.Store
	provider ports.MetadataProvider
	logger   *zap.Logger
}

// NewMetadataService creates a metadata service
func NewMetadataService(store ports.Store, provider ports.MetadataProvider, logger *zap.Logger) *MetadataService {
	return &MetadataService{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

// Fetch looks up metadata for the Book behind a pending UserBook and
// records the outcome:
//
//   - provider match: merge enriched fields into the Book (only fields
//     the user has not filled in) and mark the row synced;
//   - provider completes with no match: mark the row failed, a terminal
//     state with no automatic re-enqueue;
//   - transport failure or timeout: return an unavailable error so the
//     dispatching transport decides (queue redelivery, or inline
//     failure marking).
//
// A missing row and a non-pending row are both no-ops: the row may
// have been deleted, or already resolved by a manual edit.
func (s *MetadataService) Fetch(ctx context.Context, userBookID string) error {
	userBook, err := s.store.GetUserBook(ctx, userBookID)
	if err != nil {
		return err
	}
	if userBook == nil {
		s.logger.Info("UserBook gone before metadata fetch", zap.String("userBookID", userBookID))
		return nil
	}
	if userBook.SyncState != domain.SyncPending {
		s.logger.Info("Skipping metadata fetch for non-pending row",
			zap.String("userBookID", userBookID),
			zap.String("syncState", string(userBook.SyncState)),
		)
		return nil
	}

	book, err := s.store.GetBook(ctx, userBook.BookID)
	if err != nil {
		return err
	}
	if book == nil {
		s.logger.Info("Book gone before metadata fetch", zap.String("bookID", userBook.BookID))
		return nil
	}

	s.logger.Info("Fetching metadata",
		zap.String("userBookID", userBookID),
		zap.String("isbn", book.ISBN),
	)

	meta, err := s.provider.Lookup(ctx, book.ISBN)
	if err != nil {
		if ctx.Err() != nil {
			// Budget exhausted: surface as a transport failure so the
			// row is never left pending indefinitely.
			return pkgerrors.NewUnavailableError("metadata lookup timed out").WithCause(ctx.Err())
		}
		return err
	}

	if meta == nil {
		return s.markFailed(ctx, userBook, book)
	}

	if update := enrichment(book, meta); !update.Empty() {
		if _, err := s.store.UpdateBook(ctx, book.ID, update); err != nil {
			return err
		}
	}

	synced := domain.SyncSynced
	if _, err := s.store.UpdateUserBook(ctx, userBookID, domain.UserBookUpdate{SyncState: &synced}); err != nil {
		return err
	}

	s.logger.Info("Metadata synced",
		zap.String("userBookID", userBookID),
		zap.String("isbn", book.ISBN),
	)
	return nil
}

// MarkFailed transitions a still-pending row to failed. Inline dispatch
// uses it when Fetch reports a transport failure and no redelivery
// mechanism exists.
func (s *MetadataService) MarkFailed(ctx context.Context, userBookID string) error {
	userBook, err := s.store.GetUserBook(ctx, userBookID)
	if err != nil {
		return err
	}
	if userBook == nil || userBook.SyncState != domain.SyncPending {
		return nil
	}

	book, err := s.store.GetBook(ctx, userBook.BookID)
	if err != nil {
		return err
	}
	return s.markFailed(ctx, userBook, book)
}

// markFailed records the terminal failed state and settles any
// placeholder fields left from a bare-ISBN add.
func (s *MetadataService) markFailed(ctx context.Context, userBook *domain.UserBook, book *domain.Book) error {
	if book != nil {
		update := domain.BookUpdate{}
		if book.Title == domain.PlaceholderTitle {
			unknown := "Unknown"
			update.Title = &unknown
		}
		if book.Author == domain.PlaceholderAuthor {
			unknown := "Unknown"
			update.Author = &unknown
		}
		if !update.Empty() {
			if _, err := s.store.UpdateBook(ctx, book.ID, update); err != nil {
				return err
			}
		}
	}

	failed := domain.SyncFailed
	if _, err := s.store.UpdateUserBook(ctx, userBook.ID, domain.UserBookUpdate{SyncState: &failed}); err != nil {
		return err
	}

	s.logger.Info("Metadata fetch failed terminally", zap.String("userBookID", userBook.ID))
	return nil
}

// enrichment builds a Book update from provider metadata, filling only
// fields the user has not supplied. Placeholder title/author count as
// unfilled. User-entered data is never clobbered.
func enrichment(book *domain.Book, meta *ports.BookMetadata) domain.BookUpdate {
	update := domain.BookUpdate{}

	if meta.Title != "" && (book.Title == "" || book.Title == domain.PlaceholderTitle) {
		update.Title = &meta.Title
	}
	if meta.Author != "" && (book.Author == "" || book.Author == domain.PlaceholderAuthor) {
		update.Author = &meta.Author
	}
	if meta.Genre != "" && (book.Genre == "" || book.Genre == domain.DefaultGenre) {
		update.Genre = &meta.Genre
	}
	if meta.CoverImageURL != "" && book.CoverImageURL == "" {
		update.CoverImageURL = &meta.CoverImageURL
	}
	if meta.Description != "" && book.Description == "" {
		update.Description = &meta.Description
	}

	return update
}
