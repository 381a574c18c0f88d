package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"thrum-backend/internal/features/deposit/models"
	"thrum-backend/internal/features/deposit/repository"

	_ "github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.DepositRepository {
	return &postgresRepository{db: db}
}

// Upsert refreshes the observation fields on every reconciliation pass.
// The WHERE guard freezes rows that completed the credit transition.
func (r *postgresRepository) Upsert(ctx context.Context, deposit *models.Deposit) error {
	query := `
		INSERT INTO deposits
			(tx_hash, user_address, deposit_address, value_wei, block_number, confirmations, is_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tx_hash) DO UPDATE SET
			value_wei     = EXCLUDED.value_wei,
			block_number  = EXCLUDED.block_number,
			confirmations = EXCLUDED.confirmations,
			is_error      = EXCLUDED.is_error,
			updated_at    = NOW()
		WHERE deposits.credited = FALSE
	`

	_, err := r.db.ExecContext(ctx, query,
		deposit.TxHash, deposit.UserAddress, deposit.DepositAddress,
		deposit.ValueWei, deposit.BlockNumber, deposit.Confirmations, deposit.IsError)
	if err != nil {
		return fmt.Errorf("failed to upsert deposit: %w", err)
	}

	return nil
}

func (r *postgresRepository) GetByHash(ctx context.Context, txHash string) (*models.Deposit, error) {
	query := `
		SELECT tx_hash, user_address, deposit_address, value_wei, block_number,
			confirmations, is_error, credited, credited_amount, credited_at,
			COALESCE(from_address, ''), COALESCE(compliance_status, ''), COALESCE(compliance_reason, ''),
			created_at, updated_at
		FROM deposits
		WHERE tx_hash = $1
	`

	var d models.Deposit
	err := r.db.QueryRowContext(ctx, query, txHash).Scan(
		&d.TxHash, &d.UserAddress, &d.DepositAddress, &d.ValueWei, &d.BlockNumber,
		&d.Confirmations, &d.IsError, &d.Credited, &d.CreditedAmount, &d.CreditedAt,
		&d.FromAddress, &d.ComplianceStatus, &d.ComplianceReason,
		&d.CreatedAt, &d.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}

	return &d, nil
}

// Credit is the only write path that mutates a balance. The conditional
// UPDATE is the concurrency-safety mechanism from the ledger design:
// when two reconciliation calls race on one hash exactly one sees
// RowsAffected == 1, and only that one increments the balance. Both
// writes share a transaction so a crash cannot separate them.
func (r *postgresRepository) Credit(ctx context.Context, txHash, userAddress string, amount int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin credit transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE deposits
		SET credited = TRUE, credited_amount = $2, credited_at = NOW(), updated_at = NOW()
		WHERE tx_hash = $1 AND credited = FALSE
	`, txHash, amount)
	if err != nil {
		return false, fmt.Errorf("failed to mark deposit credited: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Lost the race or already credited: nothing to do.
		return false, nil
	}

	if amount > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (address, credits)
			VALUES ($1, $2)
			ON CONFLICT (address) DO UPDATE SET credits = users.credits + EXCLUDED.credits
		`, userAddress, amount)
		if err != nil {
			return false, fmt.Errorf("failed to increment user credits: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit credit transaction: %w", err)
	}

	return true, nil
}

func (r *postgresRepository) MarkCompliance(ctx context.Context, txHash, fromAddress, status, reason string) error {
	query := `
		UPDATE deposits
		SET from_address = COALESCE(NULLIF($2, ''), from_address),
			compliance_status = $3,
			compliance_reason = $4,
			updated_at = NOW()
		WHERE tx_hash = $1
	`

	_, err := r.db.ExecContext(ctx, query, txHash, fromAddress, status, reason)
	if err != nil {
		return fmt.Errorf("failed to mark deposit compliance: %w", err)
	}

	return nil
}

func (r *postgresRepository) ListByDepositAddress(ctx context.Context, depositAddress string) ([]*models.Deposit, error) {
	query := `
		SELECT tx_hash, user_address, deposit_address, value_wei, block_number,
			confirmations, is_error, credited, credited_amount, credited_at,
			COALESCE(from_address, ''), COALESCE(compliance_status, ''), COALESCE(compliance_reason, ''),
			created_at, updated_at
		FROM deposits
		WHERE deposit_address = $1
		ORDER BY block_number DESC, tx_hash
	`

	rows, err := r.db.QueryContext(ctx, query, depositAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []*models.Deposit
	for rows.Next() {
		var d models.Deposit
		err := rows.Scan(
			&d.TxHash, &d.UserAddress, &d.DepositAddress, &d.ValueWei, &d.BlockNumber,
			&d.Confirmations, &d.IsError, &d.Credited, &d.CreditedAmount, &d.CreditedAt,
			&d.FromAddress, &d.ComplianceStatus, &d.ComplianceReason,
			&d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, &d)
	}

	return deposits, nil
}
