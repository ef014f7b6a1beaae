package creditrequest

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents credit line request status
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// CreditRequest is a driver's application for a credit line that a bank
// reviews through its portal. Approval materializes the credit line.
type CreditRequest struct {
	ID              uuid.UUID           `db:"id" json:"id"`
	DriverID        uuid.UUID           `db:"driver_id" json:"driver_id"`
	BankID          uuid.UUID           `db:"bank_id" json:"bank_id"`
	StationID       uuid.NullUUID       `db:"station_id" json:"station_id,omitempty"`
	RequestedAmount decimal.Decimal     `db:"requested_amount" json:"requested_amount"`
	RequestedLimit  decimal.Decimal     `db:"requested_limit" json:"requested_limit"`
	Status          Status              `db:"status" json:"status"`
	RiskTier        sql.NullString      `db:"risk_tier" json:"risk_tier,omitempty"`
	ApprovedLimit   decimal.NullDecimal `db:"approved_limit" json:"approved_limit,omitempty"`
	RejectionReason sql.NullString      `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreditLineID    uuid.NullUUID       `db:"credit_line_id" json:"credit_line_id,omitempty"`
	ReviewedAt      sql.NullTime        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
}
