package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgerrors "booklib-backend/pkg/errors"
)

// User is an account that owns a library of UserBook rows.
// IDs cross the store boundary as strings; each backend assigns
// them with its own strategy.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a user with a freshly hashed password
func NewUser(username, email, password string) (*User, error) {
	if username == "" {
		return nil, pkgerrors.NewValidationError("username is required")
	}
	if email == "" {
		return nil, pkgerrors.NewValidationError("email is required")
	}
	if password == "" {
		return nil, pkgerrors.NewValidationError("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to hash password").WithCause(err)
	}

	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CheckPassword verifies a candidate password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
