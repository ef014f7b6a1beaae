package station

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
	ErrStationNotFound = errors.New("station not found")
	ErrInternal        = errors.New("internal error")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, s *Station) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO stations (id, name, address, merchant_name, fuel_type)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.Name, s.Address, s.MerchantName, s.FuelType)
	if err != nil {
		return fmt.Errorf("%w: insert station", ErrInternal)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Station, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Station
	err := r.db.GetContext(ctx2, &s, `SELECT * FROM stations WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get station", ErrInternal)
	}
	return &s, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Station, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	stations := make([]Station, 0)
	err := r.db.SelectContext(ctx2, &stations, `
		SELECT * FROM stations ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list stations", ErrInternal)
	}
	return stations, nil
}
