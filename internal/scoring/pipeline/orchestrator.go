package pipeline

import (
	"context"
	"errors"
	"time"

	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/runlock"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Pipeline stages reported on errors.
const (
	StageAcquireLock   = "acquire_lock"
	StageLoadOffer     = "load_offer"
	StageLoadLeads     = "load_leads"
	StageCreateRun     = "create_run"
	StagePersistResult = "persist_result"
	StageCompleteRun   = "complete_run"
)

const (
	MsgNoOffer         = "No offer found. Please create an offer first"
	MsgNoLeads         = "No leads found. Please upload leads first"
	MsgScoringFailed   = "Failed to score leads"
	MsgRunInProgress   = "A scoring run is already in progress"
	MsgRunNotRunning   = "Scoring run is no longer running"
	msgLoadOfferFailed = "Failed to load offer"
	msgLoadLeadsFailed = "Failed to load leads"
	msgCreateRunFailed = "Failed to start scoring run"
	msgLockUnavailable = "Scoring lock unavailable"
)

// OrchestratorConfig controls batch execution.
type OrchestratorConfig struct {
	// Concurrency bounds parallel classifier calls. 1 or less runs sequentially.
	Concurrency int
}

// Orchestrator scores every lead against the current offer.
type Orchestrator struct {
	leads      LeadSource
	offers     OfferSource
	sink       ResultSink
	runs       RunStore
	classifier LeadClassifier
	lock       RunLocker
	observer   RunObserver
	cfg        OrchestratorConfig
	log        *logger.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// OrchestratorDeps are the collaborators of an Orchestrator. Lock and Observer are optional.
type OrchestratorDeps struct {
	Leads      LeadSource
	Offers     OfferSource
	Sink       ResultSink
	Runs       RunStore
	Classifier LeadClassifier
	Lock       RunLocker
	Observer   RunObserver
}

// NewOrchestrator wires an orchestrator. A nil lock defaults to an in-process lock.
func NewOrchestrator(deps OrchestratorDeps, cfg OrchestratorConfig, log *logger.Logger) *Orchestrator {
	if deps.Lock == nil {
		deps.Lock = runlock.NewLocal()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		leads:      deps.Leads,
		offers:     deps.Offers,
		sink:       deps.Sink,
		runs:       deps.Runs,
		classifier: deps.Classifier,
		lock:       deps.Lock,
		observer:   deps.Observer,
		cfg:        cfg,
		log:        log,
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// SetObserver attaches the completion observer after construction.
func (o *Orchestrator) SetObserver(obs RunObserver) {
	o.observer = obs
}

// Run executes one scoring run. Precondition failures return KindPrecondition
// errors before any run row or result is written.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "scoring.run")
	defer span.End()

	result, err := o.run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunResult{}, err
	}
	span.SetAttributes(
		attribute.String("run.id", result.Run.ID.String()),
		attribute.Int("run.results", result.Run.ResultCount),
		attribute.Int("run.fallbacks", result.Run.FallbackCount),
	)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context) (RunResult, error) {
	release, err := o.lock.Acquire(ctx)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			return RunResult{}, apperr.Conflict(MsgRunInProgress).WithStage(StageAcquireLock)
		}
		return RunResult{}, apperr.Wrap(apperr.KindUnavailable, msgLockUnavailable, err).WithStage(StageAcquireLock)
	}
	defer release()

	offer, err := o.offers.CurrentOffer(ctx)
	if err != nil {
		return RunResult{}, apperr.Wrap(apperr.KindInternal, msgLoadOfferFailed, err).WithStage(StageLoadOffer)
	}
	if offer == nil {
		return RunResult{}, apperr.Precondition(StageLoadOffer, MsgNoOffer)
	}

	leads, err := o.leads.ListLeads(ctx)
	if err != nil {
		return RunResult{}, apperr.Wrap(apperr.KindInternal, msgLoadLeadsFailed, err).WithStage(StageLoadLeads)
	}
	if len(leads) == 0 {
		return RunResult{}, apperr.Precondition(StageLoadLeads, MsgNoLeads)
	}

	started := o.now()
	offerID := offer.ID
	run, err := o.runs.CreateRun(ctx, ScoringRun{
		ID:        uuid.New(),
		OfferID:   &offerID,
		Status:    RunRunning,
		LeadCount: len(leads),
		StartedAt: started,
	})
	if err != nil {
		return RunResult{}, apperr.Wrap(apperr.KindInternal, msgCreateRunFailed, err).WithStage(StageCreateRun)
	}
	ctx = context.WithValue(ctx, logger.RunIDKey, run.ID.String())
	log := o.log.WithContext(ctx)

	// Sequential runs classify each lead right before persisting it.
	var outcomes []Outcome
	if o.cfg.Concurrency > 1 {
		outcomes = o.classifyParallel(ctx, leads, *offer)
	}

	results := make([]ScoreResult, 0, len(leads))
	fallbacks := 0
	for i, lead := range leads {
		rule := RuleScore(lead)
		var out Outcome
		if outcomes != nil {
			out = outcomes[i]
		} else {
			out = o.classifier.Classify(ctx, lead, *offer)
		}
		if out.Kind == OutcomeFallback {
			fallbacks++
		}

		stored, err := o.sink.InsertResult(ctx, NewScoreResult(run.ID, lead, *offer, rule, out))
		if err != nil {
			o.fail(ctx, run, len(leads), len(results), fallbacks, err)
			return RunResult{}, apperr.Wrap(apperr.KindInternal, MsgScoringFailed, err).
				WithStage(StagePersistResult).
				WithDetails(map[string]any{"runId": run.ID, "persisted": len(results)})
		}
		results = append(results, stored)
	}

	completed, err := o.runs.CompleteRun(ctx, run.ID, len(leads), len(results), fallbacks)
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			log.Warn("scoring_run_superseded", "run_id", run.ID.String(), "error", err.Error())
			return RunResult{}, apperr.Wrap(apperr.KindConflict, MsgRunNotRunning, err).WithStage(StageCompleteRun)
		}
		return RunResult{}, apperr.Wrap(apperr.KindInternal, MsgScoringFailed, err).WithStage(StageCompleteRun)
	}

	log.ScoringRun(completed.ID.String(), string(completed.Status), len(leads), len(results), fallbacks,
		float64(o.now().Sub(started).Milliseconds()))
	if o.observer != nil {
		o.observer.RunCompleted(ctx, completed)
	}

	return RunResult{Run: completed, Results: results}, nil
}

// classifyParallel returns one outcome per lead in input order.
// Classify never fails, so the group only bounds concurrency.
func (o *Orchestrator) classifyParallel(ctx context.Context, leads []Lead, offer Offer) []Outcome {
	outcomes := make([]Outcome, len(leads))
	var g errgroup.Group
	g.SetLimit(o.cfg.Concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			outcomes[i] = o.classifier.Classify(ctx, lead, offer)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) fail(ctx context.Context, run ScoringRun, leads, persisted, fallbacks int, cause error) {
	log := o.log.WithContext(ctx)
	log.Error("scoring_run_failed",
		"run_id", run.ID.String(),
		"persisted", persisted,
		"error", cause.Error(),
	)
	// The request context may already be cancelled; the failure still needs recording.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.runs.FailRun(failCtx, run.ID, leads, persisted, fallbacks, cause.Error()); err != nil {
		log.DatabaseError("fail_scoring_run", err)
	}
}
