package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, username, email, password_hash, created_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		id        int64
		createdAt string
	)

	if err := scanner.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		return nil, err
	}

	u.ID = formatID(id)
	var err error
	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser assigns an ID and persists the user. Username and email
// uniqueness is checked with a lookup first; the UNIQUE constraints
// backstop concurrent inserts.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	existing, err := s.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewDuplicateError("username already exists")
	}
	existing, err = s.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.NewDuplicateError("email already exists")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, formatTime(user.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, pkgerrors.NewDuplicateError("username or email already exists")
		}
		return nil, pkgerrors.NewInternalError("failed to create user").WithCause(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read new user id").WithCause(err)
	}

	created := *user
	created.ID = formatID(id)
	return &created, nil
}

// GetUser retrieves a user by ID, returning (nil, nil) when absent.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, key)
	return s.userFromRow(row)
}

// GetUserByEmail retrieves a user by its unique email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return s.userFromRow(row)
}

// GetUserByUsername retrieves a user by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return s.userFromRow(row)
}

// DeleteUser removes a user. Deleting a nonexistent ID is a no-op.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	key, ok := parseID(id)
	if !ok {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, key); err != nil {
		return pkgerrors.NewInternalError("failed to delete user").WithCause(err)
	}
	return nil
}

func (s *Store) userFromRow(row *sql.Row) (*domain.User, error) {
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to load user").WithCause(err)
	}
	return user, nil
}
