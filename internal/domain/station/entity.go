package station

import (
	"time"

	"github.com/google/uuid"
)

// Station identifies the fuel station side of a transaction. Settlement
// references it as the destination of the captured amount.
type Station struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Address      string    `db:"address" json:"address"`
	MerchantName string    `db:"merchant_name" json:"merchant_name"`
	FuelType     string    `db:"fuel_type" json:"fuel_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
