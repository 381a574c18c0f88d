package repository

import (
	"context"
	"time"

	"thrum-backend/internal/features/compliance/models"
)

// AuditRepository persists the append-only compliance trail. Rows are
// write-once: there are no update or delete operations by design.
type AuditRepository interface {
	AppendConsent(ctx context.Context, event *models.ConsentEvent) error
	AppendScreening(ctx context.Context, event *models.ScreeningEvent) error

	// LatestMatchingConsent returns the most recent consent event for the
	// user with the given kind and exact declared value, created at or
	// after cutoff. Nil without error when none exists.
	LatestMatchingConsent(ctx context.Context, userAddress, kind string, valueWei int64, cutoff time.Time) (*models.ConsentEvent, error)
}

// SnapshotStore holds the singleton sanctions snapshot. Replace is
// last-writer-wins, a concurrent refresh losing the race is acceptable
// within the TTL tolerance.
type SnapshotStore interface {
	Get(ctx context.Context) (*models.SanctionsSnapshot, error)
	Replace(ctx context.Context, snapshot *models.SanctionsSnapshot) error
}
