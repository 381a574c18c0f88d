package repository

import (
	"context"
	"errors"

	"thrum-backend/internal/features/pool/models"
)

var (
	// ErrNoFreeAddress is returned by ClaimFree when every active address
	// is already bound to a user.
	ErrNoFreeAddress = errors.New("no free pool address")
)

type PoolRepository interface {
	// GetAssigned returns the active address currently bound to the user,
	// or nil when the user holds no assignment.
	GetAssigned(ctx context.Context, userAddress string) (*models.PoolAddress, error)

	// ClaimFree atomically binds one unassigned active address to the
	// user. The claim must be conditional on the address still being
	// unassigned so concurrent callers can never share an address.
	ClaimFree(ctx context.Context, userAddress string) (*models.PoolAddress, error)

	// Import inserts addresses as unassigned/active, skipping any already
	// present. Returns the number actually inserted.
	Import(ctx context.Context, addresses []string) (int, error)
}
