package services

import (
	"context"
	"errors"

	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/model"
	"github.com/arborhq/arbor/internal/store"
)

// UserService handles registration and credential checks.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

// Register creates a user with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, model.ErrValidation
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.store.Users().Create(ctx, &model.User{Username: username, PasswordHash: hash})
}

// Authenticate verifies credentials and returns the user. Wrong username
// and wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrForbidden
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, model.ErrForbidden
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}
