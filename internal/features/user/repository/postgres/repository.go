package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"thrum-backend/internal/features/user/models"
	"thrum-backend/internal/features/user/repository"

	_ "github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.UserRepository {
	return &postgresRepository{db: db}
}

// GetOrCreate inserts the user on first sight and returns the current row.
// The upsert is a no-op for existing users so a concurrent first login
// cannot create two rows or reset a balance.
func (r *postgresRepository) GetOrCreate(ctx context.Context, address string) (*models.User, error) {
	query := `
		INSERT INTO users (address, credits)
		VALUES ($1, 0)
		ON CONFLICT (address) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, address); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return r.GetByAddress(ctx, address)
}

func (r *postgresRepository) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	query := `
		SELECT address, credits, created_at
		FROM users
		WHERE address = $1
	`

	var user models.User
	err := r.db.QueryRowContext(ctx, query, address).Scan(
		&user.Address, &user.Credits, &user.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *postgresRepository) TopByCredits(ctx context.Context, limit int) ([]*models.User, error) {
	query := `
		SELECT address, credits, created_at
		FROM users
		ORDER BY credits DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.Address, &user.Credits, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, nil
}
