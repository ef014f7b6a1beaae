package transaction

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

// Repository stores transactions and their authorization tokens.
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

func (r *Repository) insertTx(ctx context.Context, tx *sqlx.Tx, t *Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, idempotency_key, bank_id, station_id, driver_id, credit_line_id,
			authorized_amount, status, authorized_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, t.ID, t.IdempotencyKey, t.BankID, t.StationID, t.DriverID, t.CreditLineID,
		t.AuthorizedAmount, t.Status, t.AuthorizedAt)
	if err != nil {
		return fmt.Errorf("%w: insert transaction", ErrInternal)
	}
	return nil
}

func (r *Repository) insertTokenTx(ctx context.Context, tx *sqlx.Tx, tok *AuthorizationToken) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO authorization_tokens (
			id, transaction_id, driver_id, station_id, bank_id, signature,
			authorized_amount, expires_at, is_used
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
	`, tok.ID, tok.TransactionID, tok.DriverID, tok.StationID, tok.BankID,
		tok.Signature, tok.AuthorizedAmount, tok.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%w: insert authorization token", ErrInternal)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx2, &t, `SELECT * FROM transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction", ErrInternal)
	}
	return &t, nil
}

// GetByIdempotencyKey returns the transaction created under key, if any.
// Re-submitting a key yields the existing transaction, never a duplicate.
func (r *Repository) GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var t Transaction
	err := r.db.GetContext(ctx2, &t, `SELECT * FROM transactions WHERE idempotency_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get transaction by idempotency key", ErrInternal)
	}
	return &t, nil
}

func (r *Repository) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT * FROM transactions
		WHERE driver_id = $1
		ORDER BY authorized_at DESC
		LIMIT $2 OFFSET $3
	`, driverID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions", ErrInternal)
	}
	return transactions, nil
}

// getForUpdateTx locks the transaction row for the duration of the tx.
func (r *Repository) getForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Transaction, error) {
	var t Transaction
	err := tx.GetContext(ctx, &t, `SELECT * FROM transactions WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock transaction row", ErrInternal)
	}
	return &t, nil
}

func (r *Repository) markSettledTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, amount decimal.Decimal, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET settled_amount = $2, status = $3, settled_at = $4
		WHERE id = $1
	`, id, amount, StatusSettled, at)
	if err != nil {
		return fmt.Errorf("%w: mark transaction settled", ErrInternal)
	}
	return nil
}

func (r *Repository) markVoidedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE transactions SET status = $2 WHERE id = $1
	`, id, StatusVoided)
	if err != nil {
		return fmt.Errorf("%w: mark transaction voided", ErrInternal)
	}
	return nil
}

// FindLiveToken locates the unused, unexpired token bound to a transaction
// with a matching signature.
func (r *Repository) FindLiveToken(ctx context.Context, transactionID uuid.UUID, signature string, now time.Time) (*AuthorizationToken, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var tok AuthorizationToken
	err := r.db.GetContext(ctx2, &tok, `
		SELECT * FROM authorization_tokens
		WHERE transaction_id = $1 AND signature = $2 AND is_used = FALSE AND expires_at > $3
	`, transactionID, signature, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidOrExpiredToken
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find token", ErrInternal)
	}
	return &tok, nil
}

// ConsumeToken marks a token used in its own transaction; used by the
// scan path when first-scan-wins policy is on.
func (r *Repository) ConsumeToken(ctx context.Context, tokenID uuid.UUID, at time.Time) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE authorization_tokens
		SET is_used = TRUE, used_at = $2
		WHERE id = $1 AND is_used = FALSE
	`, tokenID, at)
	if err != nil {
		return fmt.Errorf("%w: consume token", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrInvalidOrExpiredToken
	}
	return nil
}

// markTokenUsedByTransactionTx marks the bound token used. Idempotent:
// already-used tokens are left untouched.
func (r *Repository) markTokenUsedByTransactionTx(ctx context.Context, tx *sqlx.Tx, transactionID uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE authorization_tokens
		SET is_used = TRUE, used_at = $2
		WHERE transaction_id = $1 AND is_used = FALSE
	`, transactionID, at)
	if err != nil {
		return fmt.Errorf("%w: mark token used", ErrInternal)
	}
	return nil
}

// ListExpiredAuthorized returns AUTHORIZED transactions whose token has
// expired unused, oldest expiry first. Feed for the hold reaper.
func (r *Repository) ListExpiredAuthorized(ctx context.Context, now time.Time, limit int) ([]Transaction, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	transactions := make([]Transaction, 0)
	err := r.db.SelectContext(ctx2, &transactions, `
		SELECT t.* FROM transactions t
		JOIN authorization_tokens tok ON tok.transaction_id = t.id
		WHERE t.status = $1 AND tok.is_used = FALSE AND tok.expires_at < $2
		ORDER BY tok.expires_at
		LIMIT $3
	`, StatusAuthorized, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list expired authorizations", ErrInternal)
	}
	return transactions, nil
}
