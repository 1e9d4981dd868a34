package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	healthchallenge "github.com/set-night/healthchallenge"
	"github.com/set-night/healthchallenge/internal/config"
	"github.com/set-night/healthchallenge/internal/handler"
	"github.com/set-night/healthchallenge/internal/middleware"
	"github.com/set-night/healthchallenge/internal/repository"
	"github.com/set-night/healthchallenge/internal/repository/memory"
	"github.com/set-night/healthchallenge/internal/repository/postgres"
	"github.com/set-night/healthchallenge/internal/service"
	"github.com/set-night/healthchallenge/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "error", err, "driver", cfg.StorageDriver)
		os.Exit(1)
	}
	defer closeStore()

	// Admin notifications
	var (
		notifier service.Notifier = service.NopNotifier{}
		reporter middleware.ErrorReporter
	)
	if cfg.TelegramEnabled() {
		b, err := telegram.NewBot(cfg.TelegramBotToken)
		if err != nil {
			slog.Error("failed to create telegram bot", "error", err)
			os.Exit(1)
		}
		tgLogger := telegram.NewLogger(b, cfg)
		notifier = tgLogger
		reporter = tgLogger
	}

	// Initialize services
	accountService := service.NewAccountService(store)
	ledgerService := service.NewLedgerService(store, notifier)
	challengeService := service.NewChallengeService(store)
	healthService := service.NewHealthService(store)

	scheduler, err := service.NewScheduler(ctx, cfg.DaySyncSchedule, challengeService)
	if err != nil {
		slog.Error("failed to schedule jobs", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.StartCleanup(ctx, config.RateLimiterIdleTTL)

	h := handler.New(handler.Deps{
		Cfg:              cfg,
		AccountService:   accountService,
		LedgerService:    ledgerService,
		ChallengeService: challengeService,
		HealthService:    healthService,
		Store:            store,
		RateLimiter:      rateLimiter,
		ErrorReporter:    reporter,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	go func() {
		slog.Info("starting http server", "addr", cfg.HTTPAddr, "driver", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown", "error", err)
	}
	scheduler.Stop(shutdownCtx)

	slog.Info("server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func() {}, nil
	}

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations
	migrationsFS, err := fs.Sub(healthchallenge.MigrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		pool.Close()
		return nil, nil, err
	}

	return postgres.New(pool), pool.Close, nil
}
