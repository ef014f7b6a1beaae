package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository handles notification persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a notification
func (r *Repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, driver_id, type, title, body, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.DriverID, n.Type, n.Title, n.Body, n.Data, n.IsRead, n.CreatedAt)
	return err
}

// ListByDriver returns notifications for a driver, newest first
func (r *Repository) ListByDriver(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	out := []*Notification{}
	if err := r.db.SelectContext(ctx, &out, query, driverID, limit, offset); err != nil {
		return nil, err
	}
	return out, nil
}

// CountUnread returns the unread count for a driver
func (r *Repository) CountUnread(ctx context.Context, driverID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE driver_id = $1 AND is_read = FALSE`
	err := r.db.GetContext(ctx, &count, query, driverID)
	return count, err
}

// MarkRead marks a single notification as read
func (r *Repository) MarkRead(ctx context.Context, id, driverID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = $3
		WHERE id = $1 AND driver_id = $2 AND is_read = FALSE`

	_, err := r.db.ExecContext(ctx, query, id, driverID, time.Now())
	return err
}

// MarkAllRead marks every notification for a driver as read
func (r *Repository) MarkAllRead(ctx context.Context, driverID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = $2
		WHERE driver_id = $1 AND is_read = FALSE`

	_, err := r.db.ExecContext(ctx, query, driverID, time.Now())
	return err
}
