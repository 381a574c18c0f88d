package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"thrum-backend/internal/common/ethaddr"
	"thrum-backend/internal/common/logger"
	"thrum-backend/internal/features/compliance/models"
	"thrum-backend/internal/features/compliance/repository"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")

	// ErrSanctionsMatch is returned by GuardNotSanctioned when enforcement
	// is on and the subject is on the sanctioned set.
	ErrSanctionsMatch = errors.New("sanctions match")
)

// DepositMarker persists the compliance outcome on the deposit row.
// Implemented by the deposit repository; a narrow interface keeps the
// two features composable.
type DepositMarker interface {
	MarkCompliance(ctx context.Context, txHash, fromAddress, status, reason string) error
}

type Config struct {
	EnforceSanctions bool
	ConsentLookback  time.Duration

	TermsVersion       string
	PrivacyVersion     string
	DisclosuresVersion string
}

type ConsentInput struct {
	UserAddress string
	Kind        string
	ValueWei    *int64
	Tier        string
	IP          string
	UserAgent   string
}

type ComplianceService interface {
	RecordConsent(ctx context.Context, input ConsentInput) error
	HasMatchingPurchaseConsent(ctx context.Context, userAddress string, valueWei int64) (bool, error)

	// ApplyDepositCompliance runs sanctions screening and the consent gate
	// for one observed deposit and persists the outcome on the deposit
	// row. It never returns an error for a held or blocked outcome, only
	// for storage failures.
	ApplyDepositCompliance(ctx context.Context, userAddress, txHash, fromAddress string, valueWei int64) (models.Decision, error)

	// GuardNotSanctioned screens an address outside the deposit pipeline
	// (e.g. at wallet connect), recording the screening event.
	GuardNotSanctioned(ctx context.Context, address, subjectType string) error
}

type complianceService struct {
	audit     repository.AuditRepository
	sanctions *SanctionsChecker
	deposits  DepositMarker
	cfg       Config

	now func() time.Time
}

func NewComplianceService(audit repository.AuditRepository, sanctions *SanctionsChecker, deposits DepositMarker, cfg Config) ComplianceService {
	if cfg.ConsentLookback <= 0 {
		cfg.ConsentLookback = 2 * time.Hour
	}
	return &complianceService{
		audit:     audit,
		sanctions: sanctions,
		deposits:  deposits,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *complianceService) RecordConsent(ctx context.Context, input ConsentInput) error {
	addr := ethaddr.Normalize(input.UserAddress)
	if addr == "" {
		return ErrInvalidAddress
	}

	event := &models.ConsentEvent{
		UserAddress:        addr,
		Kind:               input.Kind,
		ValueWei:           input.ValueWei,
		Tier:               input.Tier,
		TermsVersion:       s.cfg.TermsVersion,
		PrivacyVersion:     s.cfg.PrivacyVersion,
		DisclosuresVersion: s.cfg.DisclosuresVersion,
		IP:                 input.IP,
		UserAgent:          input.UserAgent,
	}

	return s.audit.AppendConsent(ctx, event)
}

func (s *complianceService) HasMatchingPurchaseConsent(ctx context.Context, userAddress string, valueWei int64) (bool, error) {
	cutoff := s.now().Add(-s.cfg.ConsentLookback)

	event, err := s.audit.LatestMatchingConsent(ctx, strings.ToLower(userAddress), models.ConsentKindPurchase, valueWei, cutoff)
	if err != nil {
		return false, err
	}

	return event != nil, nil
}

func (s *complianceService) ApplyDepositCompliance(ctx context.Context, userAddress, txHash, fromAddress string, valueWei int64) (models.Decision, error) {
	user := strings.ToLower(userAddress)
	hash := strings.ToLower(txHash)
	from := strings.ToLower(fromAddress)

	matched, err := s.sanctions.IsSanctioned(ctx, from)
	if err != nil {
		// Screening could not complete. The check is recorded as
		// unmatched (it did not run to a match) and the deposit is held
		// only when enforcement is on.
		decision := models.Decision{Allowed: true, Status: models.StatusOK}
		if s.cfg.EnforceSanctions {
			decision = models.Decision{
				Allowed: false,
				Status:  models.StatusHeldScreeningUnavailable,
			}
		}
		decision.Reason = "sanctions screening unavailable"

		if aerr := s.recordScreening(ctx, models.SubjectTxFrom, from, false); aerr != nil {
			return decision, aerr
		}
		if merr := s.deposits.MarkCompliance(ctx, hash, from, decision.Status, decision.Reason); merr != nil {
			return decision, merr
		}
		return decision, nil
	}

	if aerr := s.recordScreening(ctx, models.SubjectTxFrom, from, matched); aerr != nil {
		return models.Decision{}, aerr
	}

	if matched {
		if s.cfg.EnforceSanctions {
			decision := models.Decision{
				Allowed: false,
				Status:  models.StatusBlockedSanctions,
				Reason:  "OFAC match on tx.from",
			}
			if err := s.deposits.MarkCompliance(ctx, hash, from, decision.Status, decision.Reason); err != nil {
				return decision, err
			}
			return decision, nil
		}

		// Enforcement disabled: allow crediting but retain the match in
		// the audit reason.
		decision := models.Decision{
			Allowed: true,
			Status:  models.StatusOK,
			Reason:  "OFAC match on tx.from (enforcement disabled)",
		}
		if err := s.deposits.MarkCompliance(ctx, hash, from, decision.Status, decision.Reason); err != nil {
			return decision, err
		}
		return decision, nil
	}

	// Consent gate.
	if valueWei <= 0 {
		decision := models.Decision{
			Allowed: false,
			Status:  models.StatusHeldNoConsent,
			Reason:  "invalid deposit value",
		}
		if err := s.deposits.MarkCompliance(ctx, hash, from, decision.Status, decision.Reason); err != nil {
			return decision, err
		}
		return decision, nil
	}

	hasConsent, err := s.HasMatchingPurchaseConsent(ctx, user, valueWei)
	if err != nil {
		return models.Decision{}, err
	}
	if !hasConsent {
		decision := models.Decision{
			Allowed: false,
			Status:  models.StatusHeldNoConsent,
			Reason:  "no matching purchase consent for value",
		}
		if err := s.deposits.MarkCompliance(ctx, hash, from, decision.Status, decision.Reason); err != nil {
			return decision, err
		}
		return decision, nil
	}

	decision := models.Decision{Allowed: true, Status: models.StatusOK}
	if err := s.deposits.MarkCompliance(ctx, hash, from, decision.Status, ""); err != nil {
		return decision, err
	}
	return decision, nil
}

func (s *complianceService) GuardNotSanctioned(ctx context.Context, address, subjectType string) error {
	matched, err := s.sanctions.IsSanctioned(ctx, address)
	if err != nil {
		return err
	}

	if aerr := s.recordScreening(ctx, subjectType, strings.ToLower(address), matched); aerr != nil {
		return aerr
	}

	if s.cfg.EnforceSanctions && matched {
		return ErrSanctionsMatch
	}
	return nil
}

func (s *complianceService) recordScreening(ctx context.Context, subjectType, subjectValue string, matched bool) error {
	err := s.audit.AppendScreening(ctx, &models.ScreeningEvent{
		SubjectType:  subjectType,
		SubjectValue: subjectValue,
		Matched:      matched,
		Source:       models.ScreeningSource,
	})
	if err != nil {
		logger.Error().Err(err).
			Str("subject", subjectValue).
			Bool("matched", matched).
			Msg("failed to record screening event")
	}
	return err
}
