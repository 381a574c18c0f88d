package service

import (
	"context"
	"errors"
	"strings"

	"thrum-backend/internal/common/ethaddr"
	"thrum-backend/internal/common/logger"
	"thrum-backend/internal/features/pool/repository"
)

var (
	// ErrPoolExhausted means no unassigned active address remains. This is
	// an operational condition, the pool needs replenishment by an
	// operator, retrying will not help.
	ErrPoolExhausted = errors.New("deposit pool exhausted")

	ErrInvalidAddress = errors.New("invalid wallet address")
)

type PoolService interface {
	// GetOrAssign returns the deposit address bound to the user,
	// claiming one from the pool on first call.
	GetOrAssign(ctx context.Context, userAddress string) (string, error)

	// Import loads pool addresses from a newline-separated listing,
	// deduplicated against existing entries.
	Import(ctx context.Context, listing string) (int, error)
}

type poolService struct {
	repo repository.PoolRepository
}

func NewPoolService(repo repository.PoolRepository) PoolService {
	return &poolService{
		repo: repo,
	}
}

func (s *poolService) GetOrAssign(ctx context.Context, userAddress string) (string, error) {
	user := ethaddr.Normalize(userAddress)
	if user == "" {
		return "", ErrInvalidAddress
	}

	// Idempotent fast path: the user may already hold an assignment.
	existing, err := s.repo.GetAssigned(ctx, user)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.Address, nil
	}

	claimed, err := s.repo.ClaimFree(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrNoFreeAddress) {
			// A concurrent call for the same user may have claimed an
			// address between our read and the claim.
			existing, rerr := s.repo.GetAssigned(ctx, user)
			if rerr == nil && existing != nil {
				return existing.Address, nil
			}

			logger.Warn().Str("user", user).Msg("deposit pool exhausted")
			return "", ErrPoolExhausted
		}
		return "", err
	}

	logger.Info().Str("user", user).Str("deposit_address", claimed.Address).Msg("pool address assigned")
	return claimed.Address, nil
}

func (s *poolService) Import(ctx context.Context, listing string) (int, error) {
	var addresses []string
	for _, line := range strings.Split(listing, "\n") {
		addr := ethaddr.Normalize(strings.TrimSpace(line))
		if addr == "" {
			continue
		}
		addresses = append(addresses, addr)
	}

	if len(addresses) == 0 {
		return 0, nil
	}

	return s.repo.Import(ctx, addresses)
}
