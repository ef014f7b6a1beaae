package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Service records driver notifications and publishes them to a Redis
// channel for downstream consumers. Delivery is best effort: failures
// are logged and never propagate into the operation that emitted the
// event.
type Service struct {
	repo    *Repository
	rdb     *redis.Client
	channel string
}

// NewService creates notification service. rdb may be nil, in which
// case events are persisted but not published.
func NewService(repo *Repository, rdb *redis.Client, channel string) *Service {
	return &Service{repo: repo, rdb: rdb, channel: channel}
}

// AuthorizationIssued records a fuel authorization event
func (s *Service) AuthorizationIssued(ctx context.Context, driverID, transactionID uuid.UUID, amount decimal.Decimal) {
	s.emit(ctx, driverID, TypeAuthorizationIssued,
		"Fuel authorization issued",
		fmt.Sprintf("Authorized %s for fueling", amount.StringFixed(2)),
		&EventData{TransactionID: &transactionID, Amount: amount.StringFixed(2)})
}

// TransactionSettled records a settlement event
func (s *Service) TransactionSettled(ctx context.Context, driverID, transactionID uuid.UUID, amount decimal.Decimal) {
	s.emit(ctx, driverID, TypeTransactionSettled,
		"Fuel purchase settled",
		fmt.Sprintf("Station settled %s", amount.StringFixed(2)),
		&EventData{TransactionID: &transactionID, Amount: amount.StringFixed(2)})
}

// LoanRepaid records a repayment event
func (s *Service) LoanRepaid(ctx context.Context, driverID, loanID uuid.UUID, amount, newBalance decimal.Decimal) {
	s.emit(ctx, driverID, TypeLoanRepaid,
		"Loan repayment received",
		fmt.Sprintf("Repaid %s, outstanding balance %s", amount.StringFixed(2), newBalance.StringFixed(2)),
		&EventData{LoanID: &loanID, Amount: amount.StringFixed(2), NewBalance: newBalance.StringFixed(2)})
}

func (s *Service) emit(ctx context.Context, driverID uuid.UUID, notifType Type, title, body string, data *EventData) {
	n := &Notification{
		ID:        uuid.New(),
		DriverID:  driverID,
		Type:      notifType,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if body != "" {
		n.Body = sql.NullString{String: body, Valid: true}
	}
	n.SetData(data)

	if err := s.repo.Create(ctx, n); err != nil {
		log.Error().Err(err).
			Str("driver_id", driverID.String()).
			Str("type", string(notifType)).
			Msg("Failed to persist notification")
	}

	s.publish(ctx, n)
}

func (s *Service) publish(ctx context.Context, n *Notification) {
	if s.rdb == nil || s.channel == "" {
		return
	}

	payload, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal notification event")
		return
	}

	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		log.Error().Err(err).
			Str("channel", s.channel).
			Msg("Failed to publish notification event")
	}
}

// List returns notifications for a driver
func (s *Service) List(ctx context.Context, driverID uuid.UUID, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByDriver(ctx, driverID, limit, offset)
}

// UnreadCount returns the unread count for a driver
func (s *Service) UnreadCount(ctx context.Context, driverID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, driverID)
}

// MarkRead marks a single notification as read
func (s *Service) MarkRead(ctx context.Context, id, driverID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, driverID)
}

// MarkAllRead marks all of a driver's notifications as read
func (s *Service) MarkAllRead(ctx context.Context, driverID uuid.UUID) error {
	return s.repo.MarkAllRead(ctx, driverID)
}
