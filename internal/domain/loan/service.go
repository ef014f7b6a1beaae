package loan

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/transaction"
)

// gracePeriod is how long a driver has to repay newly rolled-up debt.
const gracePeriod = 30 * 24 * time.Hour

// Notifier is the best-effort event sink fired after a repayment lands.
type Notifier interface {
	LoanRepaid(ctx context.Context, driverID, loanID uuid.UUID, amount, newBalance decimal.Decimal)
}

// Service converts settled transactions into loan principal and records
// repayments against it.
type Service struct {
	repo         *Repository
	lines        *creditline.Repository
	transactions *transaction.Repository
	notifier     Notifier
	retries      int
}

func NewService(repo *Repository, lines *creditline.Repository, transactions *transaction.Repository, notifier Notifier, casRetries int) *Service {
	if casRetries <= 0 {
		casRetries = 5
	}
	return &Service{repo: repo, lines: lines, transactions: transactions, notifier: notifier, retries: casRetries}
}

// RollUpSettledTransaction folds a settled transaction into the driver's
// open loan, or opens one. At most one roll-up per transaction is ever
// applied; repeats fail with ErrAlreadyRolledUp.
func (s *Service) RollUpSettledTransaction(ctx context.Context, transactionID uuid.UUID) (*Loan, error) {
	t, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if t.Status != transaction.StatusSettled || !t.SettledAmount.Valid {
		return nil, ErrTransactionNotSettled
	}

	amount := t.SettledAmount.Decimal

	tx, err := s.repo.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	l, err := s.repo.getActiveForUpdateTx(ctx, tx, t.BankID, t.DriverID)
	switch {
	case err == nil:
		if err := s.repo.accumulateTx(ctx, tx, l.ID, amount); err != nil {
			return nil, err
		}
		l.PrincipalAmount = l.PrincipalAmount.Add(amount)
		l.OutstandingBalance = l.OutstandingBalance.Add(amount)
	case errors.Is(err, ErrLoanNotFound):
		l = &Loan{
			ID:                 uuid.New(),
			CreditLineID:       t.CreditLineID,
			BankID:             t.BankID,
			DriverID:           t.DriverID,
			PrincipalAmount:    amount,
			OutstandingBalance: amount,
			InterestRate:       decimal.Zero,
			Status:             StatusActive,
			DueDate:            time.Now().UTC().Add(gracePeriod),
		}
		if err := s.repo.insertTx(ctx, tx, l); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.repo.insertRollupTx(ctx, tx, t.ID, l.ID, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, ErrInternal
	}

	log.Info().
		Str("loan_id", l.ID.String()).
		Str("transaction_id", t.ID.String()).
		Str("amount", amount.String()).
		Msg("settled transaction rolled into loan")
	return l, nil
}

// RecordRepayment applies a payment: appends the immutable repayment row,
// reduces the balance and frees the same amount on the credit line.
func (s *Service) RecordRepayment(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, method, reference string) (*RepaymentResult, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var result *RepaymentResult
	err := s.withCASRetry(ctx, func() error {
		var err error
		result, err = s.repayOnce(ctx, loanID, amount, method, reference)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("loan_id", loanID.String()).
		Str("amount", amount.String()).
		Str("new_balance", result.NewBalance.String()).
		Msg("loan repayment recorded")
	return result, nil
}

func (s *Service) repayOnce(ctx context.Context, loanID uuid.UUID, amount decimal.Decimal, method, reference string) (*RepaymentResult, error) {
	tx, err := s.repo.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	l, err := s.repo.getForUpdateTx(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	if amount.GreaterThan(l.OutstandingBalance) {
		return nil, ErrRepaymentExceedsBalance
	}

	now := time.Now().UTC()
	repayment := &LoanRepayment{
		ID:            uuid.New(),
		LoanID:        l.ID,
		Amount:        amount,
		PaymentMethod: method,
		RepaidAt:      now,
	}
	if reference != "" {
		repayment.PaymentReference = sql.NullString{String: reference, Valid: true}
	}
	if err := s.repo.insertRepaymentTx(ctx, tx, repayment); err != nil {
		return nil, err
	}

	newBalance := l.OutstandingBalance.Sub(amount)
	status := l.Status
	paidOffAt := l.PaidOffAt

	switch {
	case newBalance.IsZero():
		status = StatusPaidOff
		paidOffAt = sql.NullTime{Time: now, Valid: true}
	case l.DueDate.Before(now):
		// Opportunistic overdue check; no background scheduler owns this.
		status = StatusOverdue
	}

	if err := s.repo.updateBalanceTx(ctx, tx, l.ID, newBalance, status, paidOffAt); err != nil {
		return nil, err
	}

	if err := s.lines.ReleaseTx(ctx, tx, l.CreditLineID, amount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, ErrInternal
	}

	if s.notifier != nil {
		s.notifier.LoanRepaid(ctx, l.DriverID, l.ID, amount, newBalance)
	}

	return &RepaymentResult{NewBalance: newBalance, Status: status}, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Loan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, driverID uuid.UUID, status Status, limit, offset int) ([]Loan, error) {
	return s.repo.List(ctx, driverID, status, limit, offset)
}

// GetStatement returns the loan with its full repayment history.
func (s *Service) GetStatement(ctx context.Context, loanID uuid.UUID) (*Statement, error) {
	l, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	repayments, err := s.repo.ListRepayments(ctx, loanID)
	if err != nil {
		return nil, err
	}

	return &Statement{
		Loan:        l,
		TotalRepaid: l.PrincipalAmount.Sub(l.OutstandingBalance),
		Repayments:  repayments,
	}, nil
}

// UpdateDueDate extends or shortens the due date and re-checks overdue.
func (s *Service) UpdateDueDate(ctx context.Context, loanID uuid.UUID, dueDate time.Time) (*Loan, error) {
	tx, err := s.repo.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	l, err := s.repo.getForUpdateTx(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}

	status := l.Status
	if status == StatusOverdue && dueDate.After(time.Now().UTC()) {
		status = StatusActive
	}
	if dueDate.Before(time.Now().UTC()) && l.OutstandingBalance.IsPositive() {
		status = StatusOverdue
	}

	if err := s.repo.updateDueDateTx(ctx, tx, l.ID, dueDate, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, ErrInternal
	}

	l.DueDate = dueDate
	l.Status = status
	return l, nil
}

func (s *Service) withCASRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.retries; attempt++ {
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
