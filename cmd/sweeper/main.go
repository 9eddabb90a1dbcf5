package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadline_backend/internal/escalation"
	"leadline_backend/internal/events"
	"leadline_backend/internal/leads/repository"
	"leadline_backend/internal/notification"
	"leadline_backend/internal/scheduler"
	"leadline_backend/internal/sms"
	tenantrepo "leadline_backend/internal/tenants/repository"
	"leadline_backend/internal/voice"
	"leadline_backend/platform/config"
	"leadline_backend/platform/db"
	"leadline_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting sweeper", "env", cfg.Env, "interval", cfg.SweepInterval.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)

	leadRepo := repository.New(pool)
	tenantRepo := tenantrepo.New(pool)
	dispatcher := notification.NewDispatcher(sms.NewClient(cfg, log), log)
	voiceClient := voice.NewClient(cfg, log)

	escalationModule := escalation.NewModule(cfg, escalation.ModuleDeps{
		Leads:    leadRepo,
		Tenants:  tenantRepo,
		Notifier: dispatcher,
		Voice:    voiceClient,
		Bus:      eventBus,
	}, log)

	worker, err := scheduler.NewWorker(cfg, escalationModule.Sweeper(), log)
	if err != nil {
		log.Error("failed to initialize sweep worker", "error", err)
		panic("failed to initialize sweep worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("sweeper stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
