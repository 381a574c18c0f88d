package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrum-backend/internal/features/pool/models"
	"thrum-backend/internal/features/pool/repository"
)

const (
	poolUserA = "0x1111111111111111111111111111111111111111"
	poolUserB = "0x2222222222222222222222222222222222222222"
	poolAddr1 = "0xaaaa111111111111111111111111111111111111"
	poolAddr2 = "0xbbbb222222222222222222222222222222222222"
)

// fakePoolRepo reproduces the single-conditional-write claim semantics
// of the postgres repository under a mutex.
type fakePoolRepo struct {
	mu    sync.Mutex
	addrs map[string]*models.PoolAddress
}

func newFakePoolRepo(addresses ...string) *fakePoolRepo {
	repo := &fakePoolRepo{addrs: make(map[string]*models.PoolAddress)}
	for _, a := range addresses {
		repo.addrs[a] = &models.PoolAddress{Address: a, IsActive: true}
	}
	return repo
}

func (f *fakePoolRepo) GetAssigned(_ context.Context, userAddress string) (*models.PoolAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, pa := range f.addrs {
		if pa.IsActive && pa.AssignedTo != nil && *pa.AssignedTo == userAddress {
			cp := *pa
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePoolRepo) ClaimFree(_ context.Context, userAddress string) (*models.PoolAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Mirror the repository guard: a user already holding an address
	// never claims a second one.
	for _, pa := range f.addrs {
		if pa.IsActive && pa.AssignedTo != nil && *pa.AssignedTo == userAddress {
			return nil, repository.ErrNoFreeAddress
		}
	}

	for _, pa := range f.addrs {
		if pa.IsActive && pa.AssignedTo == nil {
			user := userAddress
			now := time.Now()
			pa.AssignedTo = &user
			pa.AssignedAt = &now
			cp := *pa
			return &cp, nil
		}
	}
	return nil, repository.ErrNoFreeAddress
}

func (f *fakePoolRepo) Import(_ context.Context, addresses []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inserted := 0
	for _, a := range addresses {
		if _, ok := f.addrs[a]; ok {
			continue
		}
		f.addrs[a] = &models.PoolAddress{Address: a, IsActive: true}
		inserted++
	}
	return inserted, nil
}

func TestGetOrAssign_Idempotent(t *testing.T) {
	svc := NewPoolService(newFakePoolRepo(poolAddr1, poolAddr2))

	first, err := svc.GetOrAssign(context.Background(), poolUserA)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.GetOrAssign(context.Background(), poolUserA)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGetOrAssign_DistinctUsersDistinctAddresses(t *testing.T) {
	svc := NewPoolService(newFakePoolRepo(poolAddr1, poolAddr2))

	a, err := svc.GetOrAssign(context.Background(), poolUserA)
	require.NoError(t, err)
	b, err := svc.GetOrAssign(context.Background(), poolUserB)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestGetOrAssign_Exhausted(t *testing.T) {
	svc := NewPoolService(newFakePoolRepo(poolAddr1))

	_, err := svc.GetOrAssign(context.Background(), poolUserA)
	require.NoError(t, err)

	_, err = svc.GetOrAssign(context.Background(), poolUserB)
	assert.ErrorIs(t, err, ErrPoolExhausted)

	// Exhaustion for a new user never disturbs the existing binding.
	addr, err := svc.GetOrAssign(context.Background(), poolUserA)
	require.NoError(t, err)
	assert.Equal(t, poolAddr1, addr)
}

func TestGetOrAssign_ConcurrentUsersNeverShare(t *testing.T) {
	svc := NewPoolService(newFakePoolRepo(poolAddr1))

	type outcome struct {
		addr string
		err  error
	}
	results := make(chan outcome, 2)

	var wg sync.WaitGroup
	for _, user := range []string{poolUserA, poolUserB} {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			addr, err := svc.GetOrAssign(context.Background(), u)
			results <- outcome{addr, err}
		}(user)
	}
	wg.Wait()
	close(results)

	var wins, exhausted int
	for r := range results {
		switch {
		case r.err == nil:
			assert.Equal(t, poolAddr1, r.addr)
			wins++
		default:
			assert.ErrorIs(t, r.err, ErrPoolExhausted)
			exhausted++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, exhausted)
}

func TestGetOrAssign_ConcurrentSameUserSingleAddress(t *testing.T) {
	repo := newFakePoolRepo(poolAddr1, poolAddr2)
	svc := NewPoolService(repo)

	const callers = 8
	addrs := make(chan string, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr, err := svc.GetOrAssign(context.Background(), poolUserA)
			assert.NoError(t, err)
			addrs <- addr
		}()
	}
	wg.Wait()
	close(addrs)

	seen := make(map[string]struct{})
	for a := range addrs {
		seen[a] = struct{}{}
	}
	assert.Len(t, seen, 1)

	// The second pool address is still free.
	free := 0
	for _, pa := range repo.addrs {
		if pa.AssignedTo == nil {
			free++
		}
	}
	assert.Equal(t, 1, free)
}

// selfRacePoolRepo simulates losing the database-level self-race: the
// first read sees no assignment, the claim hits the one-active-per-user
// unique index, and the re-read finds the winner's row.
type selfRacePoolRepo struct {
	reads int
}

func (f *selfRacePoolRepo) GetAssigned(_ context.Context, userAddress string) (*models.PoolAddress, error) {
	f.reads++
	if f.reads == 1 {
		return nil, nil
	}
	user := userAddress
	return &models.PoolAddress{Address: poolAddr1, AssignedTo: &user, IsActive: true}, nil
}

func (f *selfRacePoolRepo) ClaimFree(_ context.Context, _ string) (*models.PoolAddress, error) {
	return nil, repository.ErrNoFreeAddress
}

func (f *selfRacePoolRepo) Import(_ context.Context, _ []string) (int, error) {
	return 0, nil
}

func TestGetOrAssign_LostSelfRaceReturnsWinner(t *testing.T) {
	repo := &selfRacePoolRepo{}
	svc := NewPoolService(repo)

	addr, err := svc.GetOrAssign(context.Background(), poolUserA)
	require.NoError(t, err)
	assert.Equal(t, poolAddr1, addr)
	assert.Equal(t, 2, repo.reads)
}

func TestGetOrAssign_InvalidAddress(t *testing.T) {
	svc := NewPoolService(newFakePoolRepo(poolAddr1))

	_, err := svc.GetOrAssign(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestImport_NormalizesAndDeduplicates(t *testing.T) {
	repo := newFakePoolRepo(poolAddr1)
	svc := NewPoolService(repo)

	listing := "0xAAAA111111111111111111111111111111111111\n" + // duplicate of seeded, mixed case
		poolAddr2 + "\n" +
		"  " + poolAddr2 + "  \n" + // duplicate within listing
		"not-an-address\n" +
		"\n"

	inserted, err := svc.Import(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Len(t, repo.addrs, 2)
}

func TestImport_EmptyListing(t *testing.T) {
	svc := NewPoolService(newFakePoolRepo())

	inserted, err := svc.Import(context.Background(), "\n\nnot-an-address\n")
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
