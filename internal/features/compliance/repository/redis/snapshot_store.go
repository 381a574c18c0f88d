package redis

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"thrum-backend/internal/features/compliance/models"
	"thrum-backend/internal/features/compliance/repository"
	rplatform "thrum-backend/internal/platform/redis"

	goredis "github.com/redis/go-redis/v9"
)

const snapshotKey = "compliance:sanctions:snapshot"

// snapshotPayload is the stored form. The key carries no redis TTL on
// purpose: an expired-but-present snapshot is the stale fallback when the
// upstream source is down, freshness is judged by UpdatedAt in code.
type snapshotPayload struct {
	UpdatedAt int64    `json:"updated_at"`
	SHA256    string   `json:"sha256"`
	Addresses []string `json:"addresses"`
}

// SnapshotStore keeps the singleton sanctions snapshot in Redis so every
// service instance shares one cache.
type SnapshotStore struct {
	client *rplatform.Client
}

func NewSnapshotStore(client *rplatform.Client) repository.SnapshotStore {
	return &SnapshotStore{client: client}
}

func (s *SnapshotStore) Get(ctx context.Context) (*models.SanctionsSnapshot, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	addrs := make(map[string]struct{}, len(payload.Addresses))
	for _, a := range payload.Addresses {
		addrs[a] = struct{}{}
	}

	return &models.SanctionsSnapshot{
		UpdatedAt: time.Unix(payload.UpdatedAt, 0),
		SHA256:    payload.SHA256,
		Addresses: addrs,
	}, nil
}

// Replace overwrites the snapshot wholesale. Last writer wins.
func (s *SnapshotStore) Replace(ctx context.Context, snapshot *models.SanctionsSnapshot) error {
	addrs := make([]string, 0, len(snapshot.Addresses))
	for a := range snapshot.Addresses {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)

	raw, err := json.Marshal(snapshotPayload{
		UpdatedAt: snapshot.UpdatedAt.Unix(),
		SHA256:    snapshot.SHA256,
		Addresses: addrs,
	})
	if err != nil {
		return err
	}

	return s.client.Set(ctx, snapshotKey, raw, 0).Err()
}
