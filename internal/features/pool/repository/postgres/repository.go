package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"thrum-backend/internal/features/pool/models"
	"thrum-backend/internal/features/pool/repository"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.PoolRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetAssigned(ctx context.Context, userAddress string) (*models.PoolAddress, error) {
	query := `
		SELECT address, assigned_to, assigned_at, is_active
		FROM deposit_pool
		WHERE assigned_to = $1 AND is_active
		LIMIT 1
	`

	var addr models.PoolAddress
	err := r.db.QueryRowContext(ctx, query, userAddress).Scan(
		&addr.Address, &addr.AssignedTo, &addr.AssignedAt, &addr.IsActive)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assigned address: %w", err)
	}

	return &addr, nil
}

// ClaimFree binds one free address in a single conditional UPDATE. The
// inner SELECT picks a candidate, the outer WHERE re-checks it is still
// unassigned, and SKIP LOCKED steers concurrent claimers to different
// rows instead of serializing on the same one. The NOT EXISTS guard only
// short-circuits the common already-assigned case; under READ COMMITTED
// two same-user claims can both pass it on different rows, so the
// one-active-assignment-per-user invariant is held by the partial unique
// index on deposit_pool. The loser of that race gets a unique violation,
// reported as ErrNoFreeAddress so the caller re-reads the winner's
// assignment.
func (r *postgresRepository) ClaimFree(ctx context.Context, userAddress string) (*models.PoolAddress, error) {
	query := `
		UPDATE deposit_pool
		SET assigned_to = $1, assigned_at = NOW()
		WHERE assigned_to IS NULL
		AND NOT EXISTS (
			SELECT 1 FROM deposit_pool WHERE assigned_to = $1 AND is_active
		)
		AND address = (
			SELECT address
			FROM deposit_pool
			WHERE assigned_to IS NULL AND is_active
			ORDER BY address
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING address, assigned_to, assigned_at, is_active
	`

	var addr models.PoolAddress
	err := r.db.QueryRowContext(ctx, query, userAddress).Scan(
		&addr.Address, &addr.AssignedTo, &addr.AssignedAt, &addr.IsActive)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNoFreeAddress
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, repository.ErrNoFreeAddress
		}
		return nil, fmt.Errorf("failed to claim pool address: %w", err)
	}

	return &addr, nil
}

func (r *postgresRepository) Import(ctx context.Context, addresses []string) (int, error) {
	query := `
		INSERT INTO deposit_pool (address, assigned_to, assigned_at, is_active)
		VALUES ($1, NULL, NULL, TRUE)
		ON CONFLICT (address) DO NOTHING
	`

	inserted := 0
	for _, address := range addresses {
		res, err := r.db.ExecContext(ctx, query, address)
		if err != nil {
			return inserted, fmt.Errorf("failed to import pool address %s: %w", address, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(rows)
	}

	return inserted, nil
}
