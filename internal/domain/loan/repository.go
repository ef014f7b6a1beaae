package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const queryTimeout = 3 * time.Second

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	return tx, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Loan, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var l Loan
	err := r.db.GetContext(ctx2, &l, `SELECT * FROM loans WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get loan", ErrInternal)
	}
	return &l, nil
}

func (r *Repository) List(ctx context.Context, driverID uuid.UUID, status Status, limit, offset int) ([]Loan, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	query := `SELECT * FROM loans WHERE driver_id = $1`
	args := []interface{}{driverID}
	idx := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, status)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	loans := make([]Loan, 0)
	if err := r.db.SelectContext(ctx2, &loans, query, args...); err != nil {
		return nil, fmt.Errorf("%w: list loans", ErrInternal)
	}
	return loans, nil
}

func (r *Repository) ListRepayments(ctx context.Context, loanID uuid.UUID) ([]LoanRepayment, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	repayments := make([]LoanRepayment, 0)
	err := r.db.SelectContext(ctx2, &repayments, `
		SELECT * FROM loan_repayments WHERE loan_id = $1 ORDER BY repaid_at
	`, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: list repayments", ErrInternal)
	}
	return repayments, nil
}

// getForUpdateTx locks the loan row for the duration of the tx.
func (r *Repository) getForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Loan, error) {
	var l Loan
	err := tx.GetContext(ctx, &l, `SELECT * FROM loans WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock loan row", ErrInternal)
	}
	return &l, nil
}

// getActiveForUpdateTx locks the open ACTIVE loan of a (bank, driver)
// pair, if one exists.
func (r *Repository) getActiveForUpdateTx(ctx context.Context, tx *sqlx.Tx, bankID, driverID uuid.UUID) (*Loan, error) {
	var l Loan
	err := tx.GetContext(ctx, &l, `
		SELECT * FROM loans
		WHERE bank_id = $1 AND driver_id = $2 AND status = $3
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE
	`, bankID, driverID, StatusActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLoanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock active loan", ErrInternal)
	}
	return &l, nil
}

func (r *Repository) insertTx(ctx context.Context, tx *sqlx.Tx, l *Loan) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loans (
			id, credit_line_id, bank_id, driver_id, principal_amount,
			outstanding_balance, interest_rate, status, due_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, l.ID, l.CreditLineID, l.BankID, l.DriverID, l.PrincipalAmount,
		l.OutstandingBalance, l.InterestRate, l.Status, l.DueDate)
	if err != nil {
		return fmt.Errorf("%w: insert loan", ErrInternal)
	}
	return nil
}

func (r *Repository) accumulateTx(ctx context.Context, tx *sqlx.Tx, loanID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET principal_amount = principal_amount + $2,
		    outstanding_balance = outstanding_balance + $2
		WHERE id = $1
	`, loanID, amount)
	if err != nil {
		return fmt.Errorf("%w: accumulate loan", ErrInternal)
	}
	return nil
}

// insertRollupTx records that a transaction was converted to debt. The
// unique constraint on transaction_id is the idempotency guard: a repeat
// roll-up maps to ErrAlreadyRolledUp.
func (r *Repository) insertRollupTx(ctx context.Context, tx *sqlx.Tx, transactionID, loanID uuid.UUID, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loan_rollups (transaction_id, loan_id, amount)
		VALUES ($1, $2, $3)
	`, transactionID, loanID, amount)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyRolledUp
		}
		return fmt.Errorf("%w: insert rollup", ErrInternal)
	}
	return nil
}

func (r *Repository) insertRepaymentTx(ctx context.Context, tx *sqlx.Tx, p *LoanRepayment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO loan_repayments (id, loan_id, amount, payment_method, payment_reference, repaid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.LoanID, p.Amount, p.PaymentMethod, p.PaymentReference, p.RepaidAt)
	if err != nil {
		return fmt.Errorf("%w: insert repayment", ErrInternal)
	}
	return nil
}

func (r *Repository) updateBalanceTx(ctx context.Context, tx *sqlx.Tx, loanID uuid.UUID, balance decimal.Decimal, status Status, paidOffAt sql.NullTime) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET outstanding_balance = $2, status = $3, paid_off_at = $4
		WHERE id = $1
	`, loanID, balance, status, paidOffAt)
	if err != nil {
		return fmt.Errorf("%w: update loan balance", ErrInternal)
	}
	return nil
}

func (r *Repository) updateDueDateTx(ctx context.Context, tx *sqlx.Tx, loanID uuid.UUID, dueDate time.Time, status Status) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE loans SET due_date = $2, status = $3 WHERE id = $1
	`, loanID, dueDate, status)
	if err != nil {
		return fmt.Errorf("%w: update loan due date", ErrInternal)
	}
	return nil
}
