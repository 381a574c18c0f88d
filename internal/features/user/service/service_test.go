package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thrum-backend/internal/features/user/models"
	"thrum-backend/internal/features/user/repository"
)

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) GetOrCreate(_ context.Context, address string) (*models.User, error) {
	if u, ok := f.users[address]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.User{Address: address}
	f.users[address] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByAddress(_ context.Context, address string) (*models.User, error) {
	u, ok := f.users[address]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) TopByCredits(_ context.Context, limit int) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Credits > out[j].Credits })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestGetOrCreateUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo)

	// Mixed-case input lands on the canonical lowercase row.
	user, err := svc.GetOrCreateUser(context.Background(), "0xDeadBeefDeadBeefDeadBeefDeadBeefDeadBeef")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef", user.Address)
	assert.Zero(t, user.Credits)

	again, err := svc.GetOrCreateUser(context.Background(), "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, user.Address, again.Address)
	assert.Len(t, repo.users, 1)
}

func TestGetOrCreateUser_InvalidAddress(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.GetOrCreateUser(context.Background(), "0x123")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestGetUser_NotFound(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	_, err := svc.GetUser(context.Background(), "0x1111111111111111111111111111111111111111")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetTopUsers(t *testing.T) {
	repo := newFakeUserRepo()
	repo.users["0x1111111111111111111111111111111111111111"] = &models.User{
		Address: "0x1111111111111111111111111111111111111111", Credits: 5,
	}
	repo.users["0x2222222222222222222222222222222222222222"] = &models.User{
		Address: "0x2222222222222222222222222222222222222222", Credits: 10,
	}
	svc := NewUserService(repo)

	top, err := svc.GetTopUsers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(10), top[0].Credits)

	// Out-of-range limits fall back to the default.
	top, err = svc.GetTopUsers(context.Background(), -3)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}
