package driver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

var (
	ErrDriverNotFound = errors.New("driver not found")
	ErrInternal       = errors.New("internal error")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, d *Driver) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO drivers (id, full_name, phone_number, preferred_bank_id, tank_capacity_liters, consumption_l_per_km)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.FullName, d.PhoneNumber, d.PreferredBankID, d.TankCapacityLiters, d.ConsumptionLPerKm)
	if err != nil {
		return fmt.Errorf("%w: insert driver", ErrInternal)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Driver, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var d Driver
	err := r.db.GetContext(ctx2, &d, `SELECT * FROM drivers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get driver", ErrInternal)
	}
	return &d, nil
}

// SetPreferredBank links the driver to a funding bank.
func (r *Repository) SetPreferredBank(ctx context.Context, driverID, bankID uuid.UUID) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx2, `
		UPDATE drivers SET preferred_bank_id = $2 WHERE id = $1
	`, driverID, bankID)
	if err != nil {
		return fmt.Errorf("%w: set preferred bank", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrDriverNotFound
	}
	return nil
}
