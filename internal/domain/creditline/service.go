package creditline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const defaultCASRetries = 5

// Service exposes the ledger operations: available credit plus the
// hold/release mutating primitives with bounded conflict retry.
type Service struct {
	repo    *Repository
	retries int
}

func NewService(repo *Repository, casRetries int) *Service {
	if casRetries <= 0 {
		casRetries = defaultCASRetries
	}
	return &Service{repo: repo, retries: casRetries}
}

func (s *Service) Create(ctx context.Context, bankID, driverID uuid.UUID, limit decimal.Decimal) (*CreditLine, error) {
	if !limit.IsPositive() {
		return nil, ErrInvalidAmount
	}
	return s.repo.Create(ctx, bankID, driverID, limit)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*CreditLine, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByBankDriver(ctx context.Context, bankID, driverID uuid.UUID) (*CreditLine, error) {
	return s.repo.GetByBankDriver(ctx, bankID, driverID)
}

// AvailableCredit returns max(0, limit - utilized) for the driver's line.
func (s *Service) AvailableCredit(ctx context.Context, driverID uuid.UUID) (decimal.Decimal, error) {
	cl, err := s.repo.GetByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, ErrCreditLineNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return cl.Available(), nil
}

// Hold reserves amount against the line, retrying version conflicts.
func (s *Service) Hold(ctx context.Context, creditLineID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	err := s.withRetry(ctx, func() error {
		return s.repo.Hold(ctx, creditLineID, amount)
	})
	if err != nil {
		return err
	}
	log.Info().Str("credit_line_id", creditLineID.String()).Str("amount", amount.String()).Msg("credit hold placed")
	return nil
}

// Release frees amount back to the line, retrying version conflicts.
func (s *Service) Release(ctx context.Context, creditLineID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	err := s.withRetry(ctx, func() error {
		return s.repo.Release(ctx, creditLineID, amount)
	})
	if err != nil {
		return err
	}
	log.Info().Str("credit_line_id", creditLineID.String()).Str("amount", amount.String()).Msg("credit hold released")
	return nil
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
		err = fn()
		if !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

// LimitForProfile derives a risk tier and starting credit limit from the
// driver's vehicle profile. Roughly eight tank fills per month.
func LimitForProfile(tankCapacityLiters, consumptionLPerKm float64) (RiskTier, decimal.Decimal) {
	if tankCapacityLiters <= 0 {
		tankCapacityLiters = 60.0
	}
	if consumptionLPerKm <= 0 {
		consumptionLPerKm = 0.12
	}

	estMonthlyLiters := tankCapacityLiters * 8

	switch {
	case estMonthlyLiters <= 400 && consumptionLPerKm <= 0.1:
		return RiskTierLow, decimal.NewFromInt(5000)
	case estMonthlyLiters >= 1000 || consumptionLPerKm >= 0.18:
		return RiskTierHigh, decimal.NewFromInt(20000)
	default:
		return RiskTierMedium, decimal.NewFromInt(10000)
	}
}
