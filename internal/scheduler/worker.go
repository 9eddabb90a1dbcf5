package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadline_backend/internal/escalation"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes the sweep task and also enqueues it periodically, so a
// single process covers both the queue and the clock.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	sweeper   *escalation.Sweeper
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper *escalation.Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	interval := cfg.GetSweepInterval()
	if interval <= 0 {
		interval = time.Minute
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	periodic := asynq.NewScheduler(opt, nil)
	if _, err := periodic.Register(
		fmt.Sprintf("@every %s", interval),
		NewSweepClaimsTask(),
		asynq.Queue(queue),
	); err != nil {
		return nil, fmt.Errorf("register sweep task: %w", err)
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		scheduler: periodic,
		sweeper:   sweeper,
		log:       log,
	}
	mux.HandleFunc(TaskSweepClaims, w.handleSweepClaims)

	return w, nil
}

func (w *Worker) handleSweepClaims(ctx context.Context, _ *asynq.Task) error {
	_, err := w.sweeper.Sweep(ctx)
	return err
}

// Run starts the periodic enqueuer and the task server; it blocks until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("sweep scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("sweep worker stopped", "error", err)
	}
}
