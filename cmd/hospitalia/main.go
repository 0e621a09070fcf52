package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/app"
	"github.com/hospitalia/hospitalia/internal/hospitals"
	"github.com/hospitalia/hospitalia/internal/inventory"
	"github.com/hospitalia/hospitalia/internal/medicalnotes"
	"github.com/hospitalia/hospitalia/internal/nurses"
	"github.com/hospitalia/hospitalia/internal/observability"
	"github.com/hospitalia/hospitalia/internal/patients"
	"github.com/hospitalia/hospitalia/internal/platform/cache"
	"github.com/hospitalia/hospitalia/internal/platform/db"
	"github.com/hospitalia/hospitalia/internal/services"
	"github.com/hospitalia/hospitalia/internal/shared"
	"github.com/hospitalia/hospitalia/internal/shifts"
	"github.com/hospitalia/hospitalia/internal/stats"
	"github.com/hospitalia/hospitalia/internal/trainings"
	"github.com/hospitalia/hospitalia/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	// Assignment engine shared by both item families.
	allocationRepo := allocation.NewRepository(pool)
	itemLocker := allocation.NewItemLocker(redisClient, cfg.LockTTL, cfg.LockWait)
	engine := allocation.NewEngine(allocationRepo, itemLocker, auditLogger)

	inventoryRepo := inventory.NewRepository(pool)
	medItemsHandler := inventory.NewHandler(logger,
		inventory.NewService(inventoryRepo, allocation.KindMedication), allocation.KindMedication)
	supItemsHandler := inventory.NewHandler(logger,
		inventory.NewService(inventoryRepo, allocation.KindSupply), allocation.KindSupply)

	medAssignHandler := allocation.NewHandler(logger, engine, allocation.KindMedication, metrics)
	supAssignHandler := allocation.NewHandler(logger, engine, allocation.KindSupply, metrics)

	hospitalsHandler := hospitals.NewHandler(logger, hospitals.NewService(hospitals.NewRepository(pool)))
	servicesHandler := services.NewHandler(logger, services.NewService(services.NewRepository(pool)))
	patientsHandler := patients.NewHandler(logger, patients.NewService(patients.NewRepository(pool)))
	nursesHandler := nurses.NewHandler(logger, nurses.NewService(nurses.NewRepository(pool)))
	shiftsHandler := shifts.NewHandler(logger, shifts.NewService(shifts.NewRepository(pool)))
	trainingsHandler := trainings.NewHandler(logger, trainings.NewService(trainings.NewRepository(pool)))

	pdfClient := report.NewClient(cfg.GotenbergURL)
	notesHandler := medicalnotes.NewHandler(logger,
		medicalnotes.NewService(medicalnotes.NewRepository(pool), pdfClient))

	statsCache := stats.NewCache(redisClient, cfg.StatsCacheTTL)
	statsService := stats.NewService(stats.NewRepository(pool), statsCache)
	if err := statsCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("stats cache subscribe", slog.Any("error", err))
	}
	statsHandler := stats.NewHandler(logger, statsService)

	router := app.NewRouter(app.RouterParams{
		Logger:                logger,
		Config:                cfg,
		MedicationItems:       medItemsHandler,
		SupplyItems:           supItemsHandler,
		MedicationAssignments: medAssignHandler,
		SupplyAssignments:     supAssignHandler,
		Hospitals:             hospitalsHandler,
		Services:              servicesHandler,
		Patients:              patientsHandler,
		Nurses:                nursesHandler,
		Shifts:                shiftsHandler,
		Trainings:             trainingsHandler,
		Notes:                 notesHandler,
		Stats:                 statsHandler,
		Metrics:               metrics,
		StatsCache:            statsService,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
