package repository

import (
	"context"

	"thrum-backend/internal/features/deposit/models"
)

type DepositRepository interface {
	// Upsert inserts the observed transaction or refreshes its mutable
	// fields (value, block, confirmations, error flag). Rows that already
	// completed the credit transition are left untouched.
	Upsert(ctx context.Context, deposit *models.Deposit) error

	GetByHash(ctx context.Context, txHash string) (*models.Deposit, error)

	// Credit performs the atomic credit transition: it sets
	// credited=true/credited_amount=amount only if the row is still
	// uncredited, and increments the user balance in the same database
	// transaction. Returns whether this call won the transition; a lost
	// race is a no-op, not an error.
	Credit(ctx context.Context, txHash, userAddress string, amount int64) (bool, error)

	// MarkCompliance persists the compliance outcome for a deposit.
	MarkCompliance(ctx context.Context, txHash, fromAddress, status, reason string) error

	ListByDepositAddress(ctx context.Context, depositAddress string) ([]*models.Deposit, error)
}
