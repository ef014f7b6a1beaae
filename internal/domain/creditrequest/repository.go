package creditrequest

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Repository handles credit request persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates credit request repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending credit request
func (r *Repository) Create(ctx context.Context, req *CreditRequest) error {
	query := `
		INSERT INTO credit_requests (
			id, driver_id, bank_id, station_id,
			requested_amount, requested_limit, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.DriverID, req.BankID, req.StationID,
		req.RequestedAmount, req.RequestedLimit, req.Status, req.CreatedAt)
	return err
}

// GetByID returns a credit request by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*CreditRequest, error) {
	var req CreditRequest
	query := `SELECT * FROM credit_requests WHERE id = $1`

	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// ListPending returns pending requests, optionally scoped to one bank,
// newest first
func (r *Repository) ListPending(ctx context.Context, bankID *uuid.UUID, limit, offset int) ([]*CreditRequest, error) {
	out := []*CreditRequest{}

	if bankID != nil {
		query := `
			SELECT * FROM credit_requests
			WHERE status = $1 AND bank_id = $2
			ORDER BY created_at DESC
			LIMIT $3 OFFSET $4`
		if err := r.db.SelectContext(ctx, &out, query, StatusPending, *bankID, limit, offset); err != nil {
			return nil, err
		}
		return out, nil
	}

	query := `
		SELECT * FROM credit_requests
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &out, query, StatusPending, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByDriver returns all requests a driver has made, newest first
func (r *Repository) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*CreditRequest, error) {
	out := []*CreditRequest{}
	query := `
		SELECT * FROM credit_requests
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	if err := r.db.SelectContext(ctx, &out, query, driverID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkApproved transitions a pending request to APPROVED. Returns
// ErrAlreadyDecided when the request was decided concurrently.
func (r *Repository) MarkApproved(ctx context.Context, id uuid.UUID, riskTier string, approvedLimit decimal.Decimal, creditLineID uuid.UUID) error {
	query := `
		UPDATE credit_requests
		SET status = $2, risk_tier = $3, approved_limit = $4,
		    credit_line_id = $5, reviewed_at = $6
		WHERE id = $1 AND status = $7`

	res, err := r.db.ExecContext(ctx, query,
		id, StatusApproved, riskTier, approvedLimit, creditLineID, time.Now(), StatusPending)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

// MarkRejected transitions a pending request to REJECTED
func (r *Repository) MarkRejected(ctx context.Context, id uuid.UUID, reason string) error {
	query := `
		UPDATE credit_requests
		SET status = $2, rejection_reason = $3, reviewed_at = $4
		WHERE id = $1 AND status = $5`

	res, err := r.db.ExecContext(ctx, query,
		id, StatusRejected, reason, time.Now(), StatusPending)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyDecided
	}
	return nil
}
