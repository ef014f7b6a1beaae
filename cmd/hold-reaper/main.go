package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fuelcredit/fuelcredit-api/internal/config"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/driver"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/transaction"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/database"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/logger"
)

const pollInterval = 30 * time.Second

// hold-reaper is a standalone sweep worker for deployments that run the
// API without the embedded cron schedule. It voids authorizations whose
// tokens expired without settlement and releases their credit holds.
func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting hold-reaper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	transactionRepo := transaction.NewRepository(db)
	creditLineRepo := creditline.NewRepository(db)
	driverRepo := driver.NewRepository(db)

	svc := transaction.NewService(transactionRepo, creditLineRepo, driverRepo, nil, transaction.Policy{
		TokenTTL:   cfg.AuthTokenTTL,
		CASRetries: cfg.LedgerCASRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hold-reaper exiting")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)
			voided, err := svc.VoidExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Error().Err(err).Msg("Sweep failed")
				continue
			}
			if voided > 0 {
				log.Info().Int("voided", voided).Msg("Released expired authorizations")
			}
		}
	}
}
