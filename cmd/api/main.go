package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadline_backend/internal/archive"
	"leadline_backend/internal/email"
	"leadline_backend/internal/escalation"
	"leadline_backend/internal/events"
	apphttp "leadline_backend/internal/http"
	"leadline_backend/internal/http/router"
	"leadline_backend/internal/leads"
	"leadline_backend/internal/notification"
	"leadline_backend/internal/sms"
	"leadline_backend/internal/tenants"
	"leadline_backend/internal/voice"
	"leadline_backend/internal/webhook"
	"leadline_backend/platform/config"
	"leadline_backend/platform/db"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// External collaborators, each nil-safe when unconfigured
	smsClient := sms.NewClient(cfg, log)
	voiceClient := voice.NewClient(cfg, log)
	emailSender := email.NewSender(cfg, log)
	archiveSvc := archive.NewService(cfg, log)
	if archiveSvc != nil {
		if err := withRetry(ctx, log, "transcript bucket", 5, 2*time.Second, func() error {
			return archiveSvc.EnsureBucket(ctx)
		}); err != nil {
			log.Error("failed to ensure transcript bucket", "error", err)
			panic("failed to ensure transcript bucket: " + err.Error())
		}
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	tenantsModule := tenants.NewModule(pool, val)
	leadsModule := leads.NewModule(pool, eventBus, val, log)

	dispatcher := notification.NewDispatcher(smsClient, log)
	escalationModule := escalation.NewModule(cfg, escalation.ModuleDeps{
		Leads:    leadsModule.Repository(),
		Tenants:  tenantsModule.Repository(),
		Notifier: dispatcher,
		Voice:    voiceClient,
		Bus:      eventBus,
	}, log)

	// Engine injection breaks the leads <-> escalation cycle
	leadsModule.SetEscalator(escalationModule.Engine())

	webhookModule := webhook.NewModule(leadsModule.Repository(), archiveSvc, eventBus, log)

	// Alert subscriber emails the tenant owner when the AI call cannot be placed
	alerts := notification.NewAlerts(tenantsModule.Repository(), emailSender, log)
	alerts.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			tenantsModule,
			leadsModule,
			escalationModule,
			webhookModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
