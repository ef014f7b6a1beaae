package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeAuthorizationIssued Type = "authorization_issued" // Driver: fuel authorization granted
	TypeTransactionSettled  Type = "transaction_settled"  // Driver: station settled the purchase
	TypeLoanRepaid          Type = "loan_repaid"          // Driver: repayment applied to loan
)

// Notification represents a driver notification
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	DriverID  uuid.UUID       `db:"driver_id" json:"driver_id"`
	Type      Type            `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      sql.NullString  `db:"body" json:"body,omitempty"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    sql.NullTime    `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// EventData links a notification to the entity it describes
type EventData struct {
	TransactionID *uuid.UUID `json:"transaction_id,omitempty"`
	LoanID        *uuid.UUID `json:"loan_id,omitempty"`
	Amount        string     `json:"amount,omitempty"`
	NewBalance    string     `json:"new_balance,omitempty"`
}

// SetData marshals event data into the notification
func (n *Notification) SetData(data *EventData) {
	if data == nil {
		n.Data = nil
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		n.Data = nil
		return
	}
	n.Data = b
}
