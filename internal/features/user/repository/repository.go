package repository

import (
	"context"
	"errors"

	"thrum-backend/internal/features/user/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type UserRepository interface {
	// GetOrCreate returns the user row for the address, creating it with a
	// zero balance when missing. Address must already be normalized.
	GetOrCreate(ctx context.Context, address string) (*models.User, error)
	GetByAddress(ctx context.Context, address string) (*models.User, error)
	TopByCredits(ctx context.Context, limit int) ([]*models.User, error)
}
