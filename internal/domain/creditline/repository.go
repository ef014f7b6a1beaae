package creditline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const queryTimeout = 3 * time.Second

// Repository provides credit line storage and the hold/release primitives.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a credit line for a (bank, driver) pair. Creation is
// idempotent: an existing pair is returned unchanged.
func (r *Repository) Create(ctx context.Context, bankID, driverID uuid.UUID, limit decimal.Decimal) (*CreditLine, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO credit_lines (id, bank_id, driver_id, credit_limit, utilized_amount, version)
		VALUES ($1, $2, $3, $4, 0, 0)
		ON CONFLICT (bank_id, driver_id) DO NOTHING
	`, uuid.New(), bankID, driverID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: insert credit line", ErrInternal)
	}

	return r.GetByBankDriver(ctx, bankID, driverID)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*CreditLine, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var cl CreditLine
	err := r.db.GetContext(ctx2, &cl, `SELECT * FROM credit_lines WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCreditLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get credit line", ErrInternal)
	}
	return &cl, nil
}

func (r *Repository) GetByDriver(ctx context.Context, driverID uuid.UUID) (*CreditLine, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var cl CreditLine
	err := r.db.GetContext(ctx2, &cl, `
		SELECT * FROM credit_lines WHERE driver_id = $1 ORDER BY created_at DESC LIMIT 1
	`, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCreditLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get credit line by driver", ErrInternal)
	}
	return &cl, nil
}

func (r *Repository) GetByBankDriver(ctx context.Context, bankID, driverID uuid.UUID) (*CreditLine, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var cl CreditLine
	err := r.db.GetContext(ctx2, &cl, `
		SELECT * FROM credit_lines WHERE bank_id = $1 AND driver_id = $2
	`, bankID, driverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCreditLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get credit line by bank/driver", ErrInternal)
	}
	return &cl, nil
}

// HoldTx reserves amount against the line inside an external transaction.
// The write is a compare-and-swap on version: a lost race returns
// ErrVersionConflict and the caller retries its whole unit of work.
func (r *Repository) HoldTx(ctx context.Context, tx *sqlx.Tx, creditLineID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	var cl CreditLine
	err := tx.GetContext(ctx, &cl, `SELECT * FROM credit_lines WHERE id = $1`, creditLineID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCreditLineNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: read credit line", ErrInternal)
	}

	if cl.UtilizedAmount.Add(amount).GreaterThan(cl.CreditLimit) {
		return ErrInsufficientCredit
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE credit_lines
		SET utilized_amount = utilized_amount + $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
	`, creditLineID, amount, cl.Version)
	if err != nil {
		return fmt.Errorf("%w: hold credit", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrVersionConflict
	}

	return nil
}

// ReleaseTx frees up to amount inside an external transaction. Utilization
// never goes below zero: the released amount is clamped to what is held.
func (r *Repository) ReleaseTx(ctx context.Context, tx *sqlx.Tx, creditLineID uuid.UUID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	var cl CreditLine
	err := tx.GetContext(ctx, &cl, `SELECT * FROM credit_lines WHERE id = $1`, creditLineID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCreditLineNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: read credit line", ErrInternal)
	}

	release := amount
	if release.GreaterThan(cl.UtilizedAmount) {
		release = cl.UtilizedAmount
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE credit_lines
		SET utilized_amount = utilized_amount - $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3
	`, creditLineID, release, cl.Version)
	if err != nil {
		return fmt.Errorf("%w: release credit", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrVersionConflict
	}

	return nil
}

// Hold reserves amount in its own transaction.
func (r *Repository) Hold(ctx context.Context, creditLineID uuid.UUID, amount decimal.Decimal) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.HoldTx(ctx, tx, creditLineID, amount)
	})
}

// Release frees amount in its own transaction.
func (r *Repository) Release(ctx context.Context, creditLineID uuid.UUID, amount decimal.Decimal) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		return r.ReleaseTx(ctx, tx, creditLineID, amount)
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}
	return nil
}
