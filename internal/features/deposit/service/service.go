package service

import (
	"context"
	"errors"
	"math/big"

	"thrum-backend/internal/common/ethaddr"
	"thrum-backend/internal/common/logger"
	compmodels "thrum-backend/internal/features/compliance/models"
	"thrum-backend/internal/features/deposit/models"
	"thrum-backend/internal/features/deposit/repository"
	"thrum-backend/internal/platform/etherscan"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrChainUnavailable wraps transport failures from the chain source.
	// Retryable; nothing has been persisted when it is returned.
	ErrChainUnavailable = errors.New("chain source unavailable")

	// ErrComplianceUnavailable wraps gate failures (audit or cache storage
	// down). Retryable; credits applied before the failure stay applied.
	ErrComplianceUnavailable = errors.New("compliance evaluation unavailable")
)

// ChainClient is the external collaborator contract: the transaction
// history of an address, unordered and with possible duplicate delivery
// across polls.
type ChainClient interface {
	TxListByAddress(ctx context.Context, address string) ([]etherscan.Transaction, error)
}

// ComplianceGate evaluates a deposit before it is credited. Wiring one in
// is optional: reconciliation and compliance are composable stages, and a
// nil gate credits on confirmation policy alone.
type ComplianceGate interface {
	ApplyDepositCompliance(ctx context.Context, userAddress, txHash, fromAddress string, valueWei int64) (compmodels.Decision, error)
}

type Config struct {
	MinConfirmations int64
	WeiPerCredit     int64
	MaxTxValueWei    int64
}

type DepositService interface {
	// Reconcile polls the chain source for the deposit address, upserts
	// the ledger and applies any credits that became due. Safe to call
	// repeatedly and concurrently for the same user/address; returns the
	// credits newly applied by this call.
	Reconcile(ctx context.Context, userAddress, depositAddress string) (int64, error)

	ListByDepositAddress(ctx context.Context, depositAddress string) ([]*models.Deposit, error)
}

type depositService struct {
	repo  repository.DepositRepository
	chain ChainClient
	gate  ComplianceGate
	cfg   Config
}

func NewDepositService(repo repository.DepositRepository, chain ChainClient, gate ComplianceGate, cfg Config) DepositService {
	return &depositService{
		repo:  repo,
		chain: chain,
		gate:  gate,
		cfg:   cfg,
	}
}

func (s *depositService) Reconcile(ctx context.Context, userAddress, depositAddress string) (int64, error) {
	user := ethaddr.Normalize(userAddress)
	depositAddr := ethaddr.Normalize(depositAddress)
	if user == "" || depositAddr == "" {
		return 0, ErrInvalidAddress
	}

	txs, err := s.chain.TxListByAddress(ctx, depositAddr)
	if err != nil {
		return 0, errors.Join(ErrChainUnavailable, err)
	}

	var newCredits int64
	for _, tx := range txs {
		applied, err := s.reconcileTx(ctx, user, depositAddr, tx)
		if err != nil {
			return newCredits, err
		}
		newCredits += applied
	}

	return newCredits, nil
}

func (s *depositService) reconcileTx(ctx context.Context, user, depositAddr string, tx etherscan.Transaction) (int64, error) {
	// Only inbound transfers to the watched address count; anything else
	// in the history is ignored.
	if tx.To != depositAddr || !ethaddr.IsTxHash(tx.Hash) {
		return 0, nil
	}

	observed := &models.Deposit{
		TxHash:         tx.Hash,
		UserAddress:    user,
		DepositAddress: depositAddr,
		ValueWei:       clampValue(tx.ValueWei, s.cfg.MaxTxValueWei),
		BlockNumber:    tx.BlockNumber,
		Confirmations:  tx.Confirmations,
		IsError:        tx.IsError,
	}

	if err := s.repo.Upsert(ctx, observed); err != nil {
		return 0, err
	}

	// Re-read for the authoritative credited state: a concurrent call may
	// have completed the transition between our upsert and now.
	row, err := s.repo.GetByHash(ctx, tx.Hash)
	if err != nil {
		return 0, err
	}
	if row == nil || row.Credited || row.IsError || row.Confirmations < s.cfg.MinConfirmations {
		return 0, nil
	}

	credits := row.ValueWei / s.cfg.WeiPerCredit
	if credits <= 0 {
		// Dust: mark credited with amount zero so the hash is never
		// reprocessed.
		if _, err := s.repo.Credit(ctx, row.TxHash, user, 0); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if s.gate != nil {
		decision, err := s.gate.ApplyDepositCompliance(ctx, user, row.TxHash, tx.From, row.ValueWei)
		if err != nil {
			logger.Error().Err(err).Str("tx_hash", row.TxHash).Msg("compliance evaluation failed")
			return 0, errors.Join(ErrComplianceUnavailable, err)
		}
		if !decision.Allowed {
			logger.Info().
				Str("tx_hash", row.TxHash).
				Str("status", decision.Status).
				Msg("deposit held by compliance")
			return 0, nil
		}
	}

	won, err := s.repo.Credit(ctx, row.TxHash, user, credits)
	if err != nil {
		return 0, err
	}
	if !won {
		return 0, nil
	}

	logger.Info().
		Str("user", user).
		Str("tx_hash", row.TxHash).
		Int64("credits", credits).
		Msg("deposit credited")
	return credits, nil
}

func (s *depositService) ListByDepositAddress(ctx context.Context, depositAddress string) ([]*models.Deposit, error) {
	addr := ethaddr.Normalize(depositAddress)
	if addr == "" {
		return nil, ErrInvalidAddress
	}

	deposits, err := s.repo.ListByDepositAddress(ctx, addr)
	if err != nil {
		return nil, err
	}
	if deposits == nil {
		// An address with no history renders as an empty JSON list.
		deposits = []*models.Deposit{}
	}
	return deposits, nil
}

// clampValue parses the untrusted decimal wei string and caps it at max.
// Values arrive as strings because they can exceed int64 before clamping.
func clampValue(valueWei string, max int64) int64 {
	v, ok := new(big.Int).SetString(valueWei, 10)
	if !ok || v.Sign() < 0 {
		return 0
	}
	if v.Cmp(big.NewInt(max)) > 0 {
		return max
	}
	return v.Int64()
}
