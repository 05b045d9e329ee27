package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Budget alerts are published over AMQP when configured; without it
	// alerts stay queued in the database.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, alerts will stay queued", log.FieldError, err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, budget alerts will stay queued in the database")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTokenTTL)
	analytics := services.NewAnalyticsService(repo, logger)
	transactions := services.NewTransactionService(repo, amqpClient, analytics, logger)
	recurring := services.NewRecurringService(repo, transactions, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Auth:         services.NewAuthService(repo, jwtManager, logger),
		Accounts:     services.NewAccountService(repo, logger),
		Categories:   services.NewCategoryService(repo, logger),
		Budgets:      services.NewBudgetService(repo, logger),
		Transactions: transactions,
		Analytics:    analytics,
		Recurring:    recurring,
		Repo:         repo,
	}, cfg.RateLimitPerMinute, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		// catch up templates that came due while the process was down
		if count, err := recurring.ProcessDue(ctx, time.Now().UTC()); err != nil {
			logger.Error("Initial recurring processing failed", log.FieldError, err)
		} else {
			logger.Info("Initial recurring processing complete", "transactions_created", count)
		}
		err := recurring.Run(ctx, cfg.RecurringInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
