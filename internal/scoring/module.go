// Package scoring provides the lead scoring bounded context module.
package scoring

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"leadscore_backend/internal/adapters/storage"
	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/scoring/handler"
	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/internal/scoring/repository"
	"leadscore_backend/internal/scoring/service"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	reasonLeadsImported = "leads_imported"
	exportFolder        = "runs"
	exportContentType   = "text/csv"
)

// Config holds the scoring settings read by the module.
type Config struct {
	Classifier   pipeline.ClassifierConfig
	Concurrency  int
	AutoScore    bool
	ExportBucket string
}

// Settings is the slice of application config the module reads.
type Settings interface {
	config.ClassifierConfig
	config.ScoringConfig
	config.MinIOConfig
}

// ConfigFrom maps application settings onto the module config.
func ConfigFrom(cfg Settings) Config {
	return Config{
		Classifier: pipeline.ClassifierConfig{
			Timeout:     cfg.GetClassifierTimeout(),
			MaxAttempts: cfg.GetClassifierMaxAttempts(),
			RatePerSec:  cfg.GetClassifierRatePerSec(),
		},
		Concurrency:  cfg.GetScoringConcurrency(),
		AutoScore:    cfg.GetAutoScoreAfterUpload(),
		ExportBucket: cfg.GetMinioBucketResultExports(),
	}
}

// Deps are the module's collaborators. Lock, Bus, Storage and Enqueuer may be nil.
type Deps struct {
	Pool      db.Querier
	Leads     pipeline.LeadSource
	Offers    pipeline.OfferSource
	Generator pipeline.TextGenerator
	Lock      pipeline.RunLocker
	Bus       events.Bus
	Storage   storage.StorageService
	Enqueuer  service.RunEnqueuer
}

// Module is the scoring bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	service      *service.Service
	orchestrator *pipeline.Orchestrator
	projection   *pipeline.Projection
	repo         repository.Repository
	bus          events.Bus
	storage      storage.StorageService
	enqueuer     service.RunEnqueuer
	cfg          Config
	log          *logger.Logger
}

// NewModule creates and initializes the scoring module.
func NewModule(deps Deps, cfg Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(deps.Pool)
	classifier := pipeline.NewClassifier(deps.Generator, cfg.Classifier, log)
	orchestrator := pipeline.NewOrchestrator(pipeline.OrchestratorDeps{
		Leads:      deps.Leads,
		Offers:     deps.Offers,
		Sink:       repo,
		Runs:       repo,
		Classifier: classifier,
		Lock:       deps.Lock,
	}, pipeline.OrchestratorConfig{Concurrency: cfg.Concurrency}, log)
	projection := pipeline.NewProjection(repo)
	svc := service.New(orchestrator, repo, projection, deps.Enqueuer, log)

	m := &Module{
		handler:      handler.New(svc, val, log),
		service:      svc,
		orchestrator: orchestrator,
		projection:   projection,
		repo:         repo,
		bus:          deps.Bus,
		storage:      deps.Storage,
		enqueuer:     deps.Enqueuer,
		cfg:          cfg,
		log:          log,
	}
	if deps.Bus != nil {
		orchestrator.SetObserver(m)
	}
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scoring"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Orchestrator returns the pipeline runner used by the scheduler worker.
func (m *Module) Orchestrator() *pipeline.Orchestrator {
	return m.orchestrator
}

// SetEnqueuer attaches the background enqueuer after construction.
func (m *Module) SetEnqueuer(enqueuer service.RunEnqueuer) {
	m.enqueuer = enqueuer
	m.service.SetEnqueuer(enqueuer)
}

// RegisterRoutes mounts scoring routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	score := ctx.V1.Group("/score")
	if ctx.ScoringRateLimiter != nil {
		score.POST("", ctx.ScoringRateLimiter.RateLimit(), m.handler.Score)
	} else {
		score.POST("", m.handler.Score)
	}
	score.GET("/runs", m.handler.ListRuns)
	score.GET("/runs/:id", m.handler.GetRun)

	ctx.V1.GET("/results", m.handler.ListResults)
	ctx.V1.GET("/export", m.handler.Export)
}

// RunCompleted publishes the completion event.
func (m *Module) RunCompleted(ctx context.Context, run pipeline.ScoringRun) {
	event := events.ScoringRunCompleted{
		BaseEvent:     events.NewBaseEvent(),
		RunID:         run.ID,
		LeadCount:     run.LeadCount,
		ResultCount:   run.ResultCount,
		FallbackCount: run.FallbackCount,
	}
	if run.OfferID != nil {
		event.OfferID = *run.OfferID
	}
	m.bus.Publish(ctx, event)
}

// RegisterHandlers subscribes to domain events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.ScoringRunCompleted{}.EventName(), m)
	bus.Subscribe(events.LeadsImported{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ScoringRunCompleted:
		return m.archiveExport(ctx, e.RunID)
	case events.LeadsImported:
		return m.scoreImported(ctx, e)
	default:
		return nil
	}
}

// archiveExport writes the run's CSV export to the result-exports bucket.
func (m *Module) archiveExport(ctx context.Context, runID uuid.UUID) error {
	if m.storage == nil || m.cfg.ExportBucket == "" {
		return nil
	}

	var buf bytes.Buffer
	if err := m.projection.ExportCSV(ctx, pipeline.ResultFilter{RunID: &runID}, &buf); err != nil {
		return fmt.Errorf("render export for run %s: %w", runID, err)
	}

	key, err := m.storage.UploadFile(ctx, m.cfg.ExportBucket, exportFolder, runID.String()+".csv", exportContentType, &buf, int64(buf.Len()))
	if err != nil {
		return fmt.Errorf("archive export for run %s: %w", runID, err)
	}
	m.log.Info("scoring_export_archived", "run_id", runID.String(), "bucket", m.cfg.ExportBucket, "key", key)
	return nil
}

// scoreImported starts a run after an upload when auto scoring is enabled.
// Runs are queued when a scheduler is attached and executed in process otherwise.
func (m *Module) scoreImported(ctx context.Context, e events.LeadsImported) error {
	if !m.cfg.AutoScore || e.Count == 0 {
		return nil
	}

	if m.enqueuer != nil {
		taskID, err := m.enqueuer.EnqueueScoringRun(ctx, reasonLeadsImported)
		if err != nil {
			return fmt.Errorf("enqueue scoring after import: %w", err)
		}
		m.log.Info("scoring_run_enqueued", "task_id", taskID, "reason", reasonLeadsImported)
		return nil
	}

	start := time.Now()
	result, err := m.orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("auto scoring after import: %w", err)
	}
	m.log.Info("auto_scoring_completed",
		"run_id", result.Run.ID.String(),
		"results", len(result.Results),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Compile-time checks
var (
	_ apphttp.Module       = (*Module)(nil)
	_ pipeline.RunObserver = (*Module)(nil)
	_ events.Handler       = (*Module)(nil)
)
