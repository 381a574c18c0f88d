package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thrum-backend/internal/common/ethaddr"
	"thrum-backend/internal/common/logger"
	"thrum-backend/internal/features/compliance/models"
	"thrum-backend/internal/features/compliance/repository"
)

// ErrDataUnavailable means the sanctions source could not be reached and
// no snapshot has ever been cached. It is distinct from "not matched" and
// propagates through every sanctions-dependent call.
var ErrDataUnavailable = errors.New("sanctions data unavailable")

// AddressFetcher pulls the raw sanctioned address set from the external
// source(s). Implemented by platform/ofac.
type AddressFetcher interface {
	FetchAddresses(ctx context.Context) (map[string]struct{}, string, error)
}

// SanctionsChecker maintains the TTL-bounded snapshot of the sanctioned
// address set with stale fallback.
type SanctionsChecker struct {
	store   repository.SnapshotStore
	fetcher AddressFetcher
	ttl     time.Duration

	now func() time.Time
}

func NewSanctionsChecker(store repository.SnapshotStore, fetcher AddressFetcher, ttl time.Duration) *SanctionsChecker {
	return &SanctionsChecker{
		store:   store,
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
	}
}

// IsSanctioned validates the address shape, refreshes the snapshot when
// needed and tests membership. Malformed input is never sanctioned and
// never touches the cache.
func (c *SanctionsChecker) IsSanctioned(ctx context.Context, address string) (bool, error) {
	addr := ethaddr.Normalize(address)
	if addr == "" {
		return false, nil
	}

	snapshot, err := c.refreshIfNeeded(ctx)
	if err != nil {
		return false, err
	}

	_, matched := snapshot.Addresses[addr]
	return matched, nil
}

// refreshIfNeeded returns the current snapshot, fetching a replacement
// when it is past its TTL. A failed refresh falls back to the stale
// snapshot when one exists; only a cold cache with an unreachable source
// is an error.
func (c *SanctionsChecker) refreshIfNeeded(ctx context.Context) (*models.SanctionsSnapshot, error) {
	stale, err := c.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sanctions snapshot: %w", err)
	}

	// A snapshot aged exactly to the TTL already counts as expired.
	if stale != nil && c.now().Sub(stale.UpdatedAt) < c.ttl {
		return stale, nil
	}

	addrs, digest, err := c.fetcher.FetchAddresses(ctx)
	if err != nil {
		if stale != nil {
			logger.Warn().Err(err).
				Time("snapshot_updated_at", stale.UpdatedAt).
				Msg("sanctions refresh failed, serving stale snapshot")
			return stale, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	fresh := &models.SanctionsSnapshot{
		UpdatedAt: c.now(),
		SHA256:    digest,
		Addresses: addrs,
	}

	if err := c.store.Replace(ctx, fresh); err != nil {
		// The fetched set is still good for this call even if persisting
		// it failed; the next caller will fetch again.
		logger.Error().Err(err).Msg("failed to persist sanctions snapshot")
	} else {
		logger.Info().
			Int("addresses", len(addrs)).
			Str("sha256", digest).
			Msg("sanctions snapshot refreshed")
	}

	return fresh, nil
}
