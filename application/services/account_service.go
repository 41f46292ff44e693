package services

import (
	"context"

	"go.uber.org/zap"

	"booklib-backend/application/ports"
	"booklib-backend/domain"
	pkgerrors "booklib-backend/pkg/errors"
)

// AccountService handles registration, login checks, and account removal
type AccountService struct {
	store  ports.Store
	logger *zap.Logger
}

// NewAccountService creates an account service
func NewAccountService(store ports.Store, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
	}
}

// Register creates a new user account. Username and email must be
// unique; comparison is case-sensitive.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(username, email, password)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("userID", created.ID),
		zap.String("username", created.Username),
	)
	return created, nil
}

// Login verifies credentials and returns the matching user.
// A missing user and a wrong password produce the same error so the
// response does not reveal which one failed.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, pkgerrors.NewUnauthorizedError("invalid email or password")
	}
	return user, nil
}

// DeleteAccount removes a user and explicitly cascades to its UserBook
// rows first. Shared Book records are left in place; other users may
// reference them.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.store.DeleteUserBooksForOwner(ctx, userID); err != nil {
		return err
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.String("userID", userID))
	return nil
}
