package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"leadscore_backend/internal/adapters"
	"leadscore_backend/internal/adapters/storage"
	"leadscore_backend/internal/events"
	leadrepo "leadscore_backend/internal/leads/repository"
	offerrepo "leadscore_backend/internal/offers/repository"
	"leadscore_backend/internal/scheduler"
	"leadscore_backend/internal/scoring"
	scoringrepo "leadscore_backend/internal/scoring/repository"
	"leadscore_backend/platform/ai"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/observability"
	"leadscore_backend/platform/runlock"
	"leadscore_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	serviceName = "leadscore-scheduler"
	runLockKey  = "leadscore:scoring:lock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, log, cfg, serviceName, cfg.Env)
	defer func() { _ = shutdownTracing(context.Background()) }()

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

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	rdb, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = minioSvc
	}

	generator, err := ai.NewGenerator(ctx, cfg)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			log.Error("failed to initialize classifier provider", "error", err)
			panic("failed to initialize classifier provider: " + err.Error())
		}
		log.Warn("classifier provider not configured; every lead gets the fallback classification", "error", err)
	}

	runLock := runlock.NewRedis(rdb, runLockKey, cfg.GetScoringLockTTL())

	// Worker-side scoring wiring (no HTTP handlers required).
	scoringModule := scoring.NewModule(scoring.Deps{
		Pool:      pool,
		Leads:     adapters.NewScoringLeadSource(leadrepo.New(pool)),
		Offers:    adapters.NewScoringOfferSource(offerrepo.New(pool)),
		Generator: generator,
		Lock:      runLock,
		Bus:       eventBus,
		Storage:   storageSvc,
	}, scoring.ConfigFrom(cfg), validator.New(), log)
	scoringModule.RegisterHandlers(eventBus)

	// Runs still marked running once nobody holds the run lock lost their worker.
	reapInterval := getDurationEnv("STALE_RUN_REAP_INTERVAL", 5*time.Minute)
	reaper := scheduler.NewStaleRunReaper(scoringrepo.New(pool), runLock, log, reapInterval, cfg.GetScoringLockTTL())
	go reaper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, scoringModule.Orchestrator(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
