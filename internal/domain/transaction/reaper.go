package transaction

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const reaperBatchSize = 100

// VoidExpired sweeps AUTHORIZED transactions whose token expired unused,
// releases the full hold back to the credit line and marks them VOIDED.
// Each transaction is voided in its own unit of work so one bad row
// cannot wedge the sweep. Returns the number voided.
func (s *Service) VoidExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpiredAuthorized(ctx, time.Now().UTC(), reaperBatchSize)
	if err != nil {
		return 0, err
	}

	voided := 0
	for i := range expired {
		t := &expired[i]
		err := s.withCASRetry(ctx, func() error {
			return s.voidOnce(ctx, t)
		})
		if err != nil {
			log.Error().Err(err).
				Str("transaction_id", t.ID.String()).
				Msg("failed to void expired authorization")
			continue
		}
		voided++
		log.Info().
			Str("transaction_id", t.ID.String()).
			Str("released", t.AuthorizedAmount.String()).
			Msg("expired authorization voided")
	}

	return voided, nil
}

func (s *Service) voidOnce(ctx context.Context, t *Transaction) error {
	tx, err := s.repo.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	locked, err := s.repo.getForUpdateTx(ctx, tx, t.ID)
	if err != nil {
		return err
	}
	// Settled in the window between listing and locking
	if locked.Status != StatusAuthorized {
		return nil
	}

	if err := s.lines.ReleaseTx(ctx, tx, locked.CreditLineID, locked.AuthorizedAmount); err != nil {
		return err
	}
	if err := s.repo.markVoidedTx(ctx, tx, locked.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return ErrInternal
	}
	return nil
}
