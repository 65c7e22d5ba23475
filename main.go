package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"dixon3d-backend/config"
	"dixon3d-backend/handlers"
	"dixon3d-backend/mailer"
	"dixon3d-backend/repository"
	"dixon3d-backend/service"
	"dixon3d-backend/storage"
	"dixon3d-backend/turnstile"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"
)

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := initPostgres(cfg)
	if err != nil {
		logger.Error("failed to initialize Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Postgres connection established")

	store, err := storage.NewStorage(cfg)
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("storage initialized", "type", cfg.StorageType)

	tickets := repository.NewTicketRepository(db)
	verifier := turnstile.NewVerifier(cfg.TurnstileSecret)
	intake := service.NewIntakeService(tickets, store, verifier, logger)
	notifier := mailer.New(cfg, logger)
	if notifier == nil {
		logger.Info("SMTP not configured, notifications disabled")
	}

	h := handlers.NewIntakeHandler(intake, tickets, store, notifier, logger)

	r := gin.Default()
	r.GET("/health", h.Health)
	r.POST("/intake", h.Intake)
	r.GET("/ticket/:ref", h.GetTicket)
	r.GET("/download/:ref/:filename", h.Download)

	logger.Info("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func initPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	return pool, nil
}
