package creditline

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskTier buckets a driver's estimated fuel consumption profile.
type RiskTier string

const (
	RiskTierLow    RiskTier = "LOW"
	RiskTierMedium RiskTier = "MEDIUM"
	RiskTierHigh   RiskTier = "HIGH"
)

// CreditLine is the ground truth for how much credit a (bank, driver)
// pair has free. utilized_amount covers both active holds and rolled-up
// debt; version guards every mutation via compare-and-swap.
type CreditLine struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	BankID         uuid.UUID       `db:"bank_id" json:"bank_id"`
	DriverID       uuid.UUID       `db:"driver_id" json:"driver_id"`
	CreditLimit    decimal.Decimal `db:"credit_limit" json:"credit_limit"`
	UtilizedAmount decimal.Decimal `db:"utilized_amount" json:"utilized_amount"`
	Version        int64           `db:"version" json:"version"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// Available returns max(0, credit_limit - utilized_amount).
func (c *CreditLine) Available() decimal.Decimal {
	available := c.CreditLimit.Sub(c.UtilizedAmount)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}
