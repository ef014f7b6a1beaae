package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/driver"
)

// Notifier is the best-effort event sink fired after authorize/settle.
// Failures are never allowed to fail the surrounding operation.
type Notifier interface {
	AuthorizationIssued(ctx context.Context, driverID, transactionID uuid.UUID, amount decimal.Decimal)
	TransactionSettled(ctx context.Context, driverID, transactionID uuid.UUID, amount decimal.Decimal)
}

// Policy captures the behaviors the reference system left open.
type Policy struct {
	// ScanConsumesToken marks the token used at first successful scan
	// (first scan wins) instead of at settlement.
	ScanConsumesToken bool
	// EnforceStationMatch rejects scans from a station other than the one
	// the token was issued for.
	EnforceStationMatch bool
	// TokenTTL is the default authorization validity window.
	TokenTTL time.Duration
	// CASRetries bounds retries on credit line version conflicts.
	CASRetries int
}

func (p Policy) retries() int {
	if p.CASRetries > 0 {
		return p.CASRetries
	}
	return 5
}

func (p Policy) tokenTTL() time.Duration {
	if p.TokenTTL > 0 {
		return p.TokenTTL
	}
	return 30 * time.Minute
}

// Service implements authorization issuance, scan validation and settlement.
type Service struct {
	repo     *Repository
	lines    *creditline.Repository
	drivers  *driver.Repository
	notifier Notifier
	policy   Policy
}

func NewService(repo *Repository, lines *creditline.Repository, drivers *driver.Repository, notifier Notifier, policy Policy) *Service {
	return &Service{repo: repo, lines: lines, drivers: drivers, notifier: notifier, policy: policy}
}

// IssueAuthorization reserves credit and hands back a single-use token
// bound to a fresh AUTHORIZED transaction. Hold, transaction and token
// are one atomic unit of work.
func (s *Service) IssueAuthorization(ctx context.Context, driverID, stationID uuid.UUID, amount decimal.Decimal, ttl time.Duration) (*IssuedAuthorization, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	d, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.PreferredBankID == nil {
		return nil, ErrNoFundingSource
	}

	cl, err := s.lines.GetByBankDriver(ctx, *d.PreferredBankID, driverID)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = s.policy.tokenTTL()
	}

	var issued *IssuedAuthorization
	err = s.withCASRetry(ctx, func() error {
		issued, err = s.issueOnce(ctx, cl.ID, *d.PreferredBankID, driverID, stationID, amount, ttl)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transaction_id", issued.Transaction.ID.String()).
		Str("driver_id", driverID.String()).
		Str("amount", amount.String()).
		Msg("authorization issued")

	if s.notifier != nil {
		s.notifier.AuthorizationIssued(ctx, driverID, issued.Transaction.ID, amount)
	}
	return issued, nil
}

func (s *Service) issueOnce(ctx context.Context, creditLineID, bankID, driverID, stationID uuid.UUID, amount decimal.Decimal, ttl time.Duration) (*IssuedAuthorization, error) {
	tx, err := s.repo.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.lines.HoldTx(ctx, tx, creditLineID, amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Transaction{
		ID:               uuid.New(),
		IdempotencyKey:   uuid.New().String(),
		BankID:           bankID,
		StationID:        stationID,
		DriverID:         driverID,
		CreditLineID:     creditLineID,
		AuthorizedAmount: amount,
		Status:           StatusAuthorized,
		AuthorizedAt:     now,
	}
	if err := s.repo.insertTx(ctx, tx, t); err != nil {
		return nil, err
	}

	signature, err := NewSignature()
	if err != nil {
		return nil, ErrInternal
	}

	tok := &AuthorizationToken{
		ID:               uuid.New(),
		TransactionID:    t.ID,
		DriverID:         driverID,
		StationID:        stationID,
		BankID:           bankID,
		Signature:        signature,
		AuthorizedAmount: amount,
		ExpiresAt:        now.Add(ttl),
	}
	if err := s.repo.insertTokenTx(ctx, tx, tok); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, ErrInternal
	}

	payload, err := EncodePayload(TokenPayload{TransactionID: t.ID, Signature: signature})
	if err != nil {
		return nil, ErrInternal
	}

	return &IssuedAuthorization{Transaction: t, Token: payload, ExpiresAt: tok.ExpiresAt}, nil
}

// ValidateScan resolves a scanned payload back to its AUTHORIZED
// transaction. Read-only unless ScanConsumesToken is on, so stations
// may safely retry.
func (s *Service) ValidateScan(ctx context.Context, payload string, stationID uuid.UUID) (*ScanResult, error) {
	p, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tok, err := s.repo.FindLiveToken(ctx, p.TransactionID, p.Signature, now)
	if err != nil {
		return nil, err
	}

	if s.policy.EnforceStationMatch && stationID != uuid.Nil && tok.StationID != stationID {
		return nil, ErrStationMismatch
	}

	t, err := s.repo.GetByID(ctx, tok.TransactionID)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusAuthorized {
		return nil, ErrInvalidTransactionState
	}

	if s.policy.ScanConsumesToken {
		// First scan wins; a concurrent scan that lost the race is
		// rejected the same way an expired token would be.
		if err := s.repo.ConsumeToken(ctx, tok.ID, now); err != nil {
			return nil, err
		}
	}

	return &ScanResult{
		TransactionID:    t.ID,
		DriverID:         t.DriverID,
		AuthorizedAmount: t.AuthorizedAmount,
	}, nil
}

// Settle captures a final amount against an AUTHORIZED transaction and
// releases the unused portion of the hold. Terminal and non-retryable.
func (s *Service) Settle(ctx context.Context, transactionID uuid.UUID, amount decimal.Decimal) (*Transaction, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	var settled *Transaction
	err := s.withCASRetry(ctx, func() error {
		var err error
		settled, err = s.settleOnce(ctx, transactionID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("transaction_id", transactionID.String()).
		Str("settled_amount", amount.String()).
		Msg("transaction settled")

	if s.notifier != nil {
		s.notifier.TransactionSettled(ctx, settled.DriverID, settled.ID, amount)
	}
	return settled, nil
}

func (s *Service) settleOnce(ctx context.Context, transactionID uuid.UUID, amount decimal.Decimal) (*Transaction, error) {
	tx, err := s.repo.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	t, err := s.repo.getForUpdateTx(ctx, tx, transactionID)
	if err != nil {
		return nil, err
	}

	switch t.Status {
	case StatusSettled:
		return nil, ErrAlreadySettled
	case StatusVoided:
		return nil, ErrTransactionVoided
	}

	if amount.GreaterThan(t.AuthorizedAmount) {
		return nil, ErrSettledAmountExceedsAuthorized
	}

	now := time.Now().UTC()
	unused := t.AuthorizedAmount.Sub(amount)
	if err := s.lines.ReleaseTx(ctx, tx, t.CreditLineID, unused); err != nil {
		return nil, err
	}

	if err := s.repo.markSettledTx(ctx, tx, t.ID, amount, now); err != nil {
		return nil, err
	}
	if err := s.repo.markTokenUsedByTransactionTx(ctx, tx, t.ID, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, ErrInternal
	}

	t.SettledAmount = decimal.NewNullDecimal(amount)
	t.Status = StatusSettled
	t.SettledAt.Time = now
	t.SettledAt.Valid = true
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByIdempotencyKey lets a caller that lost the issue response recover
// the transaction created under its key instead of issuing twice.
func (s *Service) GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error) {
	return s.repo.GetByIdempotencyKey(ctx, key)
}

func (s *Service) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]Transaction, error) {
	return s.repo.ListByDriver(ctx, driverID, limit, offset)
}

func (s *Service) withCASRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.policy.retries(); attempt++ {
		err = fn()
		if !errors.Is(err, creditline.ErrVersionConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
