package scheduler

import (
	"context"
	"fmt"
	"time"

	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Runner executes one scoring run.
type Runner interface {
	Run(ctx context.Context) (pipeline.RunResult, error)
}

// Worker consumes scoring tasks from the asynq queue.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner Runner
	log    *logger.Logger
}

// NewWorker builds an asynq server for the configured queue.
func NewWorker(cfg config.SchedulerConfig, runner Runner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, ErrNotConfigured
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 1
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(runner, log)
	w.server = server
	return w, nil
}

func newWorker(runner Runner, log *logger.Logger) *Worker {
	w := &Worker{
		mux:    asynq.NewServeMux(),
		runner: runner,
		log:    log,
	}
	w.mux.HandleFunc(TaskScoringRun, w.handleScoringRun)
	return w
}

// Run serves tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleScoringRun runs the pipeline. Runs that cannot start are not retried.
func (w *Worker) handleScoringRun(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScoringRunPayload(task)
	if err != nil {
		return fmt.Errorf("parse %s payload: %v: %w", TaskScoringRun, err, asynq.SkipRetry)
	}

	log := w.log.WithContext(ctx)
	start := time.Now()
	result, err := w.runner.Run(ctx)
	if err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindPrecondition, apperr.KindConflict:
			log.Warn("scoring_task_skipped", "reason", payload.Reason, "error", err.Error())
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		default:
			log.Error("scoring_task_failed", "reason", payload.Reason, "error", err.Error())
			return err
		}
	}

	log.Info("scoring_task_completed",
		"reason", payload.Reason,
		"run_id", result.Run.ID.String(),
		"results", len(result.Results),
		"fallbacks", result.Run.FallbackCount,
		"queued_ms", start.Sub(payload.RequestedAt).Milliseconds(),
	)
	return nil
}
