package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"thrum-backend/internal/features/compliance/models"
	"thrum-backend/internal/features/compliance/repository"

	_ "github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.AuditRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) AppendConsent(ctx context.Context, event *models.ConsentEvent) error {
	query := `
		INSERT INTO consent_events
			(user_address, kind, value_wei, tier, terms_version, privacy_version, disclosures_version, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.UserAddress, event.Kind, event.ValueWei, nullIfEmpty(event.Tier),
		event.TermsVersion, event.PrivacyVersion, event.DisclosuresVersion,
		nullIfEmpty(event.IP), nullIfEmpty(event.UserAgent))
	if err != nil {
		return fmt.Errorf("failed to append consent event: %w", err)
	}

	return nil
}

func (r *postgresRepository) AppendScreening(ctx context.Context, event *models.ScreeningEvent) error {
	query := `
		INSERT INTO screening_events (subject_type, subject_value, matched, source)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.SubjectType, event.SubjectValue, event.Matched, event.Source)
	if err != nil {
		return fmt.Errorf("failed to append screening event: %w", err)
	}

	return nil
}

func (r *postgresRepository) LatestMatchingConsent(ctx context.Context, userAddress, kind string, valueWei int64, cutoff time.Time) (*models.ConsentEvent, error) {
	query := `
		SELECT id, user_address, kind, value_wei, COALESCE(tier, ''),
			COALESCE(terms_version, ''), COALESCE(privacy_version, ''), COALESCE(disclosures_version, ''),
			created_at
		FROM consent_events
		WHERE user_address = $1 AND kind = $2 AND value_wei = $3 AND created_at >= $4
		ORDER BY id DESC
		LIMIT 1
	`

	var event models.ConsentEvent
	err := r.db.QueryRowContext(ctx, query, userAddress, kind, valueWei, cutoff).Scan(
		&event.ID, &event.UserAddress, &event.Kind, &event.ValueWei, &event.Tier,
		&event.TermsVersion, &event.PrivacyVersion, &event.DisclosuresVersion,
		&event.CreatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query consent events: %w", err)
	}

	return &event, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
