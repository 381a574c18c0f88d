package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements are idempotent so the service can bootstrap an empty
// database on startup. Append-only tables (consent_events, screening_events)
// never receive UPDATE or DELETE from application code.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		address    TEXT PRIMARY KEY,
		credits    BIGINT NOT NULL DEFAULT 0 CHECK (credits >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS deposit_pool (
		address     TEXT PRIMARY KEY,
		assigned_to TEXT,
		assigned_at TIMESTAMPTZ,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	// One active assignment per user, enforced by the database so
	// concurrent claims steered to different rows cannot both commit.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_pool_one_active_per_user
		ON deposit_pool (assigned_to)
		WHERE assigned_to IS NOT NULL AND is_active`,

	`CREATE TABLE IF NOT EXISTS deposits (
		tx_hash           TEXT PRIMARY KEY,
		user_address      TEXT NOT NULL,
		deposit_address   TEXT NOT NULL,
		value_wei         BIGINT NOT NULL DEFAULT 0,
		block_number      BIGINT NOT NULL DEFAULT 0,
		confirmations     BIGINT NOT NULL DEFAULT 0,
		is_error          BOOLEAN NOT NULL DEFAULT FALSE,
		credited          BOOLEAN NOT NULL DEFAULT FALSE,
		credited_amount   BIGINT NOT NULL DEFAULT 0,
		credited_at       TIMESTAMPTZ,
		from_address      TEXT,
		compliance_status TEXT,
		compliance_reason TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deposits_user ON deposits (user_address)`,
	`CREATE INDEX IF NOT EXISTS idx_deposits_address ON deposits (deposit_address)`,

	`CREATE TABLE IF NOT EXISTS consent_events (
		id                  BIGSERIAL PRIMARY KEY,
		user_address        TEXT NOT NULL,
		kind                TEXT NOT NULL,
		value_wei           BIGINT,
		tier                TEXT,
		terms_version       TEXT,
		privacy_version     TEXT,
		disclosures_version TEXT,
		ip                  TEXT,
		user_agent          TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_consent_user_kind ON consent_events (user_address, kind, created_at)`,

	`CREATE TABLE IF NOT EXISTS screening_events (
		id            BIGSERIAL PRIMARY KEY,
		subject_type  TEXT NOT NULL,
		subject_value TEXT NOT NULL,
		matched       BOOLEAN NOT NULL,
		source        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates all tables the service needs if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
