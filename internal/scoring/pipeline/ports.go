package pipeline

import (
	"context"

	"github.com/google/uuid"
)

const tracerName = "leadscore_backend/scoring"

// TextGenerator produces a completion for a system instruction and prompt.
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// LeadSource returns every lead in insertion order.
type LeadSource interface {
	ListLeads(ctx context.Context) ([]Lead, error)
}

// OfferSource returns the current offer, or nil and no error when none exists.
type OfferSource interface {
	CurrentOffer(ctx context.Context) (*Offer, error)
}

// ResultSink persists a result and returns it with ID and CreatedAt assigned.
type ResultSink interface {
	InsertResult(ctx context.Context, r ScoreResult) (ScoreResult, error)
}

// RunStore records the lifecycle of scoring runs.
type RunStore interface {
	CreateRun(ctx context.Context, run ScoringRun) (ScoringRun, error)
	CompleteRun(ctx context.Context, id uuid.UUID, leadCount, resultCount, fallbackCount int) (ScoringRun, error)
	FailRun(ctx context.Context, id uuid.UUID, leadCount, resultCount, fallbackCount int, reason string) error
	GetRun(ctx context.Context, id uuid.UUID) (ScoringRun, error)
	ListRuns(ctx context.Context, limit int) ([]ScoringRun, error)
}

// ResultReader reads stored results for the projection.
type ResultReader interface {
	ListResults(ctx context.Context, filter ResultFilter) ([]ResultRow, error)
}

// RunLocker admits one scoring run at a time.
type RunLocker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// LeadClassifier is the classification step used by the orchestrator.
type LeadClassifier interface {
	Classify(ctx context.Context, lead Lead, offer Offer) Outcome
}

// RunObserver is notified after a run completes. Implementations must not block.
type RunObserver interface {
	RunCompleted(ctx context.Context, run ScoringRun)
}
