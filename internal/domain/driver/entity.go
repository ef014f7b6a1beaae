package driver

import (
	"time"

	"github.com/google/uuid"
)

// Driver is the directory record the engine consults for funding-bank
// resolution. PreferredBankID is nil until the driver is linked to a bank.
type Driver struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	FullName           string     `db:"full_name" json:"full_name"`
	PhoneNumber        string     `db:"phone_number" json:"phone_number"`
	PreferredBankID    *uuid.UUID `db:"preferred_bank_id" json:"preferred_bank_id,omitempty"`
	TankCapacityLiters float64    `db:"tank_capacity_liters" json:"tank_capacity_liters"`
	ConsumptionLPerKm  float64    `db:"consumption_l_per_km" json:"consumption_l_per_km"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}
