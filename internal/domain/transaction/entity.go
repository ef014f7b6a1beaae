package transaction

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a fueling transaction. AUTHORIZED holds credit, SETTLED and
// VOIDED are terminal. VOIDED is reached only through the expiry sweep.
type Status string

const (
	StatusAuthorized Status = "AUTHORIZED"
	StatusSettled    Status = "SETTLED"
	StatusVoided     Status = "VOIDED"
)

// Transaction is one authorize-then-settle episode for a single fueling
// event. CreditLineID pins the line the hold was placed on so settlement
// releases against the same line the authorization used.
type Transaction struct {
	ID               uuid.UUID           `db:"id" json:"id"`
	IdempotencyKey   string              `db:"idempotency_key" json:"idempotency_key"`
	BankID           uuid.UUID           `db:"bank_id" json:"bank_id"`
	StationID        uuid.UUID           `db:"station_id" json:"station_id"`
	DriverID         uuid.UUID           `db:"driver_id" json:"driver_id"`
	CreditLineID     uuid.UUID           `db:"credit_line_id" json:"credit_line_id"`
	AuthorizedAmount decimal.Decimal     `db:"authorized_amount" json:"authorized_amount"`
	SettledAmount    decimal.NullDecimal `db:"settled_amount" json:"settled_amount,omitempty"`
	Status           Status              `db:"status" json:"status"`
	AuthorizedAt     time.Time           `db:"authorized_at" json:"authorized_at"`
	SettledAt        sql.NullTime        `db:"settled_at" json:"settled_at,omitempty"`
}

// AuthorizationToken is the single-use credential binding a transaction
// to a station scan. The signature is opaque and unguessable; the token
// travels out-of-band (QR rendering is outside this service).
type AuthorizationToken struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	TransactionID    uuid.UUID       `db:"transaction_id" json:"transaction_id"`
	DriverID         uuid.UUID       `db:"driver_id" json:"driver_id"`
	StationID        uuid.UUID       `db:"station_id" json:"station_id"`
	BankID           uuid.UUID       `db:"bank_id" json:"bank_id"`
	Signature        string          `db:"signature" json:"-"`
	AuthorizedAmount decimal.Decimal `db:"authorized_amount" json:"authorized_amount"`
	ExpiresAt        time.Time       `db:"expires_at" json:"expires_at"`
	IsUsed           bool            `db:"is_used" json:"is_used"`
	UsedAt           sql.NullTime    `db:"used_at" json:"used_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// IssuedAuthorization is what the issue operation hands back to the caller.
type IssuedAuthorization struct {
	Transaction *Transaction `json:"transaction"`
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// ScanResult is the read-only view a station gets back from a scan.
type ScanResult struct {
	TransactionID    uuid.UUID       `json:"transaction_id"`
	DriverID         uuid.UUID       `json:"driver_id"`
	AuthorizedAmount decimal.Decimal `json:"authorized_amount"`
}
