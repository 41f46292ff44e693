package domain

import (
	"time"

	pkgerrors "booklib-backend/pkg/errors"
)

// ReadingStatus tracks where a user is with a book
type ReadingStatus string

const (
	StatusNotStarted ReadingStatus = "not-started"
	StatusInProgress ReadingStatus = "in-progress"
	StatusFinished   ReadingStatus = "finished"
)

// Valid reports whether the status is a member of the enumeration
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusFinished:
		return true
	}
	return false
}

// SyncState tracks metadata-enrichment progress for a UserBook.
// The only legal transitions are pending -> synced and pending -> failed;
// neither terminal state is ever reversed.
type SyncState string

const (
	SyncPending SyncState = "pending"
	SyncSynced  SyncState = "synced"
	SyncFailed  SyncState = "failed"
)

// Valid reports whether the sync state is a member of the enumeration
func (s SyncState) Valid() bool {
	switch s {
	case SyncPending, SyncSynced, SyncFailed:
		return true
	}
	return false
}

// UserBook joins a User to a Book and carries the per-user reading state.
// A given (user, book) pair appears at most once.
type UserBook struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	BookID    string        `json:"book_id"`
	Status    ReadingStatus `json:"status"`
	Rating    *int          `json:"rating,omitempty"`
	SyncState SyncState     `json:"sync_state"`
	DateAdded time.Time     `json:"date_added"`
}

// NewUserBook creates a pending library row for a user and book
func NewUserBook(userID, bookID string, status ReadingStatus, rating *int) (*UserBook, error) {
	if userID == "" || bookID == "" {
		return nil, pkgerrors.NewValidationError("user and book references are required")
	}
	if status == "" {
		status = StatusNotStarted
	}
	if !status.Valid() {
		return nil, pkgerrors.NewValidationError("status must be one of: not-started, in-progress, finished")
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}

	return &UserBook{
		UserID:    userID,
		BookID:    bookID,
		Status:    status,
		Rating:    rating,
		SyncState: SyncPending,
		DateAdded: time.Now().UTC(),
	}, nil
}

// ValidateRating checks the optional 1-5 rating bound
func ValidateRating(rating *int) error {
	if rating == nil {
		return nil
	}
	if *rating < 1 || *rating > 5 {
		return pkgerrors.NewValidationError("rating must be between 1 and 5")
	}
	return nil
}

// UserBookUpdate carries a partial update of a UserBook. Nil fields
// are left untouched; ClearRating removes an existing rating.
type UserBookUpdate struct {
	Status      *ReadingStatus
	Rating      *int
	ClearRating bool
	SyncState   *SyncState
}

// LibraryEntry is a UserBook enriched with its Book record, the shape
// returned by list-for-owner queries.
type LibraryEntry struct {
	UserBook UserBook `json:"user_book"`
	Book     Book     `json:"book"`
}
