package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadscore_backend/internal/adapters"
	"leadscore_backend/internal/adapters/storage"
	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/http/router"
	"leadscore_backend/internal/leads"
	"leadscore_backend/internal/offers"
	"leadscore_backend/internal/scheduler"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/migrations"
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
	serviceName  = "leadscore-api"
	runLockKey   = "leadscore:scoring:lock"
	shutdownWait = 10 * time.Second
)

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitOTel(ctx, log, cfg, serviceName, cfg.Env)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
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
	defer eventBus.Wait()

	val := validator.New()

	// Object storage is optional; uploads and exports are archived only when configured.
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = minioSvc
		ensureBucket(ctx, log, storageSvc, "lead-uploads", cfg.GetMinioBucketLeadUploads())
		ensureBucket(ctx, log, storageSvc, "result-exports", cfg.GetMinioBucketResultExports())
		log.Info("storage service initialized",
			"leadUploadsBucket", cfg.GetMinioBucketLeadUploads(),
			"resultExportsBucket", cfg.GetMinioBucketResultExports(),
		)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; upload and export archiving disabled")
	}

	generator, err := ai.NewGenerator(ctx, cfg)
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			log.Error("failed to initialize classifier provider", "error", err, "provider", cfg.AIProvider)
			panic("failed to initialize classifier provider: " + err.Error())
		}
		log.Warn("classifier provider not configured; every lead gets the fallback classification", "error", err)
	}

	enqueuer, runLock, closeScheduler := initScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	offersModule := offers.NewModule(pool, val, log)
	leadsModule := leads.NewModule(pool, storageSvc, cfg.GetMinioBucketLeadUploads(), eventBus, cfg.GetUploadMaxBytes(), log)

	// Anti-Corruption Layer: scoring reads leads and offers through its own ports
	scoringModule := scoring.NewModule(scoring.Deps{
		Pool:      pool,
		Leads:     adapters.NewScoringLeadSource(leadsModule.Repository()),
		Offers:    adapters.NewScoringOfferSource(offersModule.Repository()),
		Generator: generator,
		Lock:      runLock,
		Bus:       eventBus,
		Storage:   storageSvc,
	}, scoring.ConfigFrom(cfg), val, log)
	if enqueuer != nil {
		scoringModule.SetEnqueuer(enqueuer)
	}
	scoringModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			offersModule,
			leadsModule,
			scoringModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initScheduler returns the background enqueuer and the run lock.
// Without Redis, runs execute in process under a local lock.
func initScheduler(cfg *config.Config, log *logger.Logger) (*scheduler.Client, pipeline.RunLocker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; scoring runs execute in process")
		return nil, runlock.NewLocal(), nil
	}

	rdb, err := scheduler.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	lock := runlock.NewRedis(rdb, runLockKey, cfg.GetScoringLockTTL())

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client; scoring runs execute in process", "error", err)
		return nil, lock, func() { _ = rdb.Close() }
	}

	return client, lock, func() {
		_ = client.Close()
		_ = rdb.Close()
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
