package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/fuelcredit/fuelcredit-api/internal/config"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditline"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/creditrequest"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/driver"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/loan"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/notification"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/station"
	"github.com/fuelcredit/fuelcredit-api/internal/domain/transaction"
	"github.com/fuelcredit/fuelcredit-api/internal/middleware"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/database"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/jwt"
	"github.com/fuelcredit/fuelcredit-api/internal/pkg/logger"
	pkgresponse "github.com/fuelcredit/fuelcredit-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting FuelCredit API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	creditLineRepo := creditline.NewRepository(db)
	driverRepo := driver.NewRepository(db)
	stationRepo := station.NewRepository(db)
	transactionRepo := transaction.NewRepository(db)
	loanRepo := loan.NewRepository(db)
	requestRepo := creditrequest.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// ---------- Services ----------
	notificationSvc := notification.NewService(notificationRepo, redis, cfg.NotifyChannel)
	creditLineSvc := creditline.NewService(creditLineRepo, cfg.LedgerCASRetries)
	transactionSvc := transaction.NewService(transactionRepo, creditLineRepo, driverRepo, notificationSvc, transaction.Policy{
		ScanConsumesToken:   cfg.ScanConsumesToken,
		EnforceStationMatch: cfg.EnforceStationMatch,
		TokenTTL:            cfg.AuthTokenTTL,
		CASRetries:          cfg.LedgerCASRetries,
	})
	loanSvc := loan.NewService(loanRepo, creditLineRepo, transactionRepo, notificationSvc, cfg.LedgerCASRetries)
	requestSvc := creditrequest.NewService(requestRepo, creditLineSvc, driverRepo)

	// ---------- Handlers ----------
	creditLineHandler := creditline.NewHandler(creditLineSvc)
	driverHandler := driver.NewHandler(driverRepo)
	stationHandler := station.NewHandler(stationRepo)
	transactionHandler := transaction.NewHandler(transactionSvc)
	loanHandler := loan.NewHandler(loanSvc)
	requestHandler := creditrequest.NewHandler(requestSvc)
	notificationHandler := notification.NewHandler(notificationSvc)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/drivers", driverHandler.Routes(authMiddleware))
		r.Mount("/stations", stationHandler.Routes(authMiddleware))
		r.Mount("/credit", creditLineHandler.Routes(authMiddleware))
		r.Mount("/credit-requests", requestHandler.Routes(authMiddleware))
		r.Mount("/loans", loanHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.With(middleware.RequireRole(jwt.RoleDriver)).Post("/authorizations", transactionHandler.Issue)
			r.With(middleware.RequireRole(jwt.RoleStation)).Post("/scan", transactionHandler.Scan)

			r.Route("/transactions", func(r chi.Router) {
				r.With(middleware.RequireRole(jwt.RoleDriver)).Get("/", transactionHandler.ListMine)

				r.With(middleware.RequireRole(jwt.RoleStation)).Post("/{id}/settle", transactionHandler.Settle)
				r.With(middleware.RequireRole(jwt.RoleStation)).Post("/{id}/rollup", loanHandler.RollUp)

				r.Get("/by-key/{key}", transactionHandler.GetByKey)
				r.Get("/{id}", transactionHandler.Get)
			})
		})
	})

	// Periodic sweep that voids authorizations whose tokens expired
	// without settlement and releases their credit holds.
	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.HoldSweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		voided, err := transactionSvc.VoidExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Hold sweep failed")
			return
		}
		if voided > 0 {
			log.Info().Int("voided", voided).Msg("Hold sweep released expired authorizations")
		}
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.HoldSweepSchedule).Msg("Invalid hold sweep schedule")
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
