package loan

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status of a loan. ACTIVE accumulates settled transactions; PAID_OFF is
// terminal; OVERDUE is re-entered opportunistically when the due date has
// passed with a positive balance.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaidOff   Status = "PAID_OFF"
	StatusOverdue   Status = "OVERDUE"
	StatusDefaulted Status = "DEFAULTED"
)

// Loan is the running tab of a (bank, driver) pair. Settled transactions
// roll into the open ACTIVE loan; repayments reduce the balance and free
// credit on the backing line.
type Loan struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	CreditLineID       uuid.UUID       `db:"credit_line_id" json:"credit_line_id"`
	BankID             uuid.UUID       `db:"bank_id" json:"bank_id"`
	DriverID           uuid.UUID       `db:"driver_id" json:"driver_id"`
	PrincipalAmount    decimal.Decimal `db:"principal_amount" json:"principal_amount"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance" json:"outstanding_balance"`
	InterestRate       decimal.Decimal `db:"interest_rate" json:"interest_rate"`
	Status             Status          `db:"status" json:"status"`
	DueDate            time.Time       `db:"due_date" json:"due_date"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	PaidOffAt          sql.NullTime    `db:"paid_off_at" json:"paid_off_at,omitempty"`
}

// LoanRepayment is an immutable record of one payment against a loan.
type LoanRepayment struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	LoanID           uuid.UUID       `db:"loan_id" json:"loan_id"`
	Amount           decimal.Decimal `db:"amount" json:"amount"`
	PaymentMethod    string          `db:"payment_method" json:"payment_method"`
	PaymentReference sql.NullString  `db:"payment_reference" json:"payment_reference,omitempty"`
	RepaidAt         time.Time       `db:"repaid_at" json:"repaid_at"`
}

// Statement is the detailed view of a loan with its repayment history.
type Statement struct {
	Loan        *Loan           `json:"loan"`
	TotalRepaid decimal.Decimal `json:"total_repaid"`
	Repayments  []LoanRepayment `json:"repayments"`
}

// RepaymentResult is what a repayment hands back to the caller.
type RepaymentResult struct {
	NewBalance decimal.Decimal `json:"new_balance"`
	Status     Status          `json:"status"`
}
