package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"ledgerd/internal/config"
	"ledgerd/internal/event"
	"ledgerd/internal/handler"
	"ledgerd/internal/ledger"
	"ledgerd/internal/logging"
	"ledgerd/internal/middleware"
	"ledgerd/internal/repository"
	"ledgerd/internal/server"
)

func main() {
	// .env is optional; deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("ledgerd", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)
	entries := repository.NewLedgerRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)

	engine := ledger.NewService(accounts, transactions, entries, db, cfg)

	srv := server.New(cfg, server.Handlers{
		Accounts:     handler.NewAccountHandler(engine),
		Transactions: handler.NewTransactionHandler(engine, publisher),
		Health:       handler.NewHealthHandler(db),
		Docs:         handler.NewDocsHandler(),
		Idempotency:  middleware.Idempotency(idempotency),
	})

	if _, err := srv.Start(); err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	stopCleaner := startIdempotencyCleaner(idempotency)
	defer stopCleaner()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutS)*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var err error
	for i := range 30 {
		db, dbErr := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		if dbErr == nil {
			return db, nil
		}
		err = dbErr
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}

func newPublisher(cfg *config.Config) (event.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		slog.Info("no kafka brokers configured, transaction events disabled")
		return event.NopPublisher{}, func() {}
	}

	kp := event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	slog.Info("kafka publisher enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return kp, func() {
		if err := kp.Close(); err != nil {
			slog.Error("failed to close kafka writer", "error", err)
		}
	}
}

// startIdempotencyCleaner prunes expired idempotency keys hourly until the
// returned stop function is called.
func startIdempotencyCleaner(repo *repository.IdempotencyRepository) func() {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				n, err := repo.CleanExpired(ctx)
				cancel()
				if err != nil {
					slog.Error("idempotency cleanup failed", "error", err)
				} else if n > 0 {
					slog.Info("expired idempotency keys removed", "count", n)
				}
			}
		}
	}()

	return func() { close(done) }
}
