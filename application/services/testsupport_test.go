package services

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"booklib-backend/application/ports"
	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// memStore is an in-memory Store implementation for service tests.
// It follows the adapter contract: (nil, nil) on missing lookups,
// idempotent deletes, not-found on updates of missing rows.
type memStore struct {
	mu        sync.Mutex
	nextID    int
	users     map[string]*domain.User
	books     map[string]*domain.Book
	userBooks map[string]*domain.UserBook
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*domain.User{},
		books:     map[string]*domain.Book{},
		userBooks: map[string]*domain.UserBook{},
	}
}

func (m *memStore) newID() string {
	m.nextID++
	return strconv.Itoa(m.nextID)
}

func (m *memStore) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, pkgerrors.NewDuplicateError("username already exists")
		}
		if u.Email == user.Email {
			return nil, pkgerrors.NewDuplicateError("email already exists")
		}
	}

	created := *user
	created.ID = m.newID()
	m.users[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, id)
	return nil
}

func (m *memStore) CreateBook(_ context.Context, book *domain.Book) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.books {
		if b.ISBN == book.ISBN {
			out := *b
			return &out, nil
		}
	}

	created := *book
	created.ID = m.newID()
	m.books[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memStore) GetBook(_ context.Context, id string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return nil, nil
	}
	out := *b
	return &out, nil
}

func (m *memStore) GetBookByISBN(_ context.Context, isbn string) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.books {
		if b.ISBN == isbn {
			out := *b
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateBook(_ context.Context, id string, update domain.BookUpdate) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("book")
	}
	if update.Title != nil {
		b.Title = *update.Title
	}
	if update.Author != nil {
		b.Author = *update.Author
	}
	if update.Genre != nil {
		b.Genre = *update.Genre
	}
	if update.CoverImageURL != nil {
		b.CoverImageURL = *update.CoverImageURL
	}
	if update.Description != nil {
		b.Description = *update.Description
	}
	out := *b
	return &out, nil
}

func (m *memStore) CreateUserBook(_ context.Context, userBook *domain.UserBook) (*domain.UserBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ub := range m.userBooks {
		if ub.UserID == userBook.UserID && ub.BookID == userBook.BookID {
			return nil, pkgerrors.NewDuplicateError("book is already in your library")
		}
	}

	created := *userBook
	created.ID = m.newID()
	m.userBooks[created.ID] = &created
	out := created
	return &out, nil
}

func (m *memStore) GetUserBook(_ context.Context, id string) (*domain.UserBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ub, ok := m.userBooks[id]
	if !ok {
		return nil, nil
	}
	out := *ub
	return &out, nil
}

func (m *memStore) FindUserBook(_ context.Context, userID, bookID string) (*domain.UserBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ub := range m.userBooks {
		if ub.UserID == userID && ub.BookID == bookID {
			out := *ub
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListForOwner(_ context.Context, userID string) ([]domain.LibraryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []*domain.UserBook
	for _, ub := range m.userBooks {
		if ub.UserID == userID {
			rows = append(rows, ub)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].DateAdded.Equal(rows[j].DateAdded) {
			return rows[i].DateAdded.Before(rows[j].DateAdded)
		}
		return rows[i].ID < rows[j].ID
	})

	entries := []domain.LibraryEntry{}
	for _, ub := range rows {
		b, ok := m.books[ub.BookID]
		if !ok {
			continue
		}
		entries = append(entries, domain.LibraryEntry{UserBook: *ub, Book: *b})
	}
	return entries, nil
}

func (m *memStore) UpdateUserBook(_ context.Context, id string, update domain.UserBookUpdate) (*domain.UserBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ub, ok := m.userBooks[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("book")
	}
	if update.Status != nil {
		ub.Status = *update.Status
	}
	if update.ClearRating {
		ub.Rating = nil
	} else if update.Rating != nil {
		r := *update.Rating
		ub.Rating = &r
	}
	if update.SyncState != nil {
		ub.SyncState = *update.SyncState
	}
	out := *ub
	return &out, nil
}

func (m *memStore) DeleteUserBook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.userBooks, id)
	return nil
}

func (m *memStore) DeleteUserBooksForOwner(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ub := range m.userBooks {
		if ub.UserID == userID {
			delete(m.userBooks, id)
		}
	}
	return nil
}

var _ ports.Store = (*memStore)(nil)

// fakeProvider serves canned metadata keyed by ISBN.
type fakeProvider struct {
	mu      sync.Mutex
	meta    map[string]*ports.BookMetadata
	err     error
	lookups int
}

func (p *fakeProvider) Lookup(_ context.Context, isbn string) (*ports.BookMetadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lookups++
	if p.err != nil {
		return nil, p.err
	}
	return p.meta[isbn], nil
}

func (p *fakeProvider) lookupCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lookups
}

// hangingProvider blocks until the lookup context expires, simulating
// an upstream that accepts the request and never answers.
type hangingProvider struct{}

func (hangingProvider) Lookup(ctx context.Context, _ string) (*ports.BookMetadata, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// fakeDispatcher records dispatched row IDs.
type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []string
	err        error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, userBookID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	d.dispatched = append(d.dispatched, userBookID)
	return nil
}

func (d *fakeDispatcher) ids() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dispatched...)
}
