package creditrequest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/driver"
)

// Service manages credit line applications and bank decisions
type Service struct {
	repo    *Repository
	lines   *creditline.Service
	drivers *driver.Repository
}

// NewService creates credit request service
func NewService(repo *Repository, lines *creditline.Service, drivers *driver.Repository) *Service {
	return &Service{repo: repo, lines: lines, drivers: drivers}
}

// Create files a pending request from a driver. requestedAmount is what
// the driver wants to spend now, requestedLimit the line size asked for.
func (s *Service) Create(ctx context.Context, driverID, bankID uuid.UUID, stationID *uuid.UUID, requestedAmount, requestedLimit decimal.Decimal) (*CreditRequest, error) {
	if !requestedAmount.IsPositive() || !requestedLimit.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return nil, err
	}

	req := &CreditRequest{
		ID:              uuid.New(),
		DriverID:        driverID,
		BankID:          bankID,
		RequestedAmount: requestedAmount,
		RequestedLimit:  requestedLimit,
		Status:          StatusPending,
		CreatedAt:       time.Now(),
	}
	if stationID != nil {
		req.StationID = uuid.NullUUID{UUID: *stationID, Valid: true}
	}

	if err := s.repo.Create(ctx, req); err != nil {
		log.Error().Err(err).
			Str("driver_id", driverID.String()).
			Msg("Failed to create credit request")
		return nil, ErrInternal
	}
	return req, nil
}

// ListPending returns pending requests for bank review
func (s *Service) ListPending(ctx context.Context, bankID *uuid.UUID, limit, offset int) ([]*CreditRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListPending(ctx, bankID, limit, offset)
}

// ListByDriver returns a driver's own requests
func (s *Service) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*CreditRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByDriver(ctx, driverID, limit, offset)
}

// Approve grants a pending request and opens the credit line. The
// granted limit is the reviewer's override when given, otherwise the
// limit derived from the driver's vehicle profile capped at the
// requested limit.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, overrideLimit *decimal.Decimal) (*CreditRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	d, err := s.drivers.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}

	tier, profileLimit := creditline.LimitForProfile(d.TankCapacityLiters, d.ConsumptionLPerKm)

	granted := profileLimit
	if granted.GreaterThan(req.RequestedLimit) {
		granted = req.RequestedLimit
	}
	if overrideLimit != nil {
		if !overrideLimit.IsPositive() {
			return nil, ErrInvalidAmount
		}
		granted = *overrideLimit
	}

	line, err := s.lines.Create(ctx, req.BankID, req.DriverID, granted)
	if err != nil {
		log.Error().Err(err).
			Str("request_id", requestID.String()).
			Msg("Failed to open credit line for approved request")
		return nil, ErrInternal
	}

	if err := s.repo.MarkApproved(ctx, req.ID, string(tier), granted, line.ID); err != nil {
		return nil, err
	}

	// Bind the driver to the funding bank so authorizations resolve it.
	if err := s.drivers.SetPreferredBank(ctx, req.DriverID, req.BankID); err != nil {
		log.Warn().Err(err).
			Str("driver_id", req.DriverID.String()).
			Msg("Failed to set preferred bank after approval")
	}

	return s.repo.GetByID(ctx, req.ID)
}

// Reject declines a pending request
func (s *Service) Reject(ctx context.Context, requestID uuid.UUID, reason string) (*CreditRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, ErrAlreadyDecided
	}

	if err := s.repo.MarkRejected(ctx, req.ID, reason); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, req.ID)
}
