// Package pipeline implements lead intent scoring: the rule scorer, the
// classifier adapter with its fallback policy, the run orchestrator and the
// read-side projection of stored results.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Lead is an imported prospect. Optional fields are empty strings when absent.
type Lead struct {
	ID          uuid.UUID
	Name        string
	Role        string
	Company     string
	Industry    string
	Location    string
	LinkedInBio string
	CreatedAt   time.Time
}

// Offer describes the product the leads are scored against.
type Offer struct {
	ID            uuid.UUID
	Name          string
	ValueProps    []string
	IdealUseCases []string
	CreatedAt     time.Time
}

// Intent is the buying-intent class.
type Intent string

const (
	IntentHigh   Intent = "High"
	IntentMedium Intent = "Medium"
	IntentLow    Intent = "Low"
)

// ScoreResult is one persisted score for one lead within one run.
type ScoreResult struct {
	ID         uuid.UUID
	RunID      uuid.UUID
	LeadID     uuid.UUID
	OfferID    uuid.UUID
	RuleScore  int
	AIScore    int
	FinalScore int
	Intent     Intent
	Reasoning  string
	Fallback   bool
	CreatedAt  time.Time
}

// NewScoreResult combines the rule score and classification for a lead.
// FinalScore is always RuleScore + AIScore.
func NewScoreResult(runID uuid.UUID, lead Lead, offer Offer, rule int, out Outcome) ScoreResult {
	return ScoreResult{
		RunID:      runID,
		LeadID:     lead.ID,
		OfferID:    offer.ID,
		RuleScore:  rule,
		AIScore:    out.Score,
		FinalScore: rule + out.Score,
		Intent:     out.Intent,
		Reasoning:  CompositeReasoning(rule, out),
		Fallback:   out.Kind == OutcomeFallback,
	}
}

// RunStatus is the lifecycle state of a scoring run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ScoringRun groups the results of one orchestrator invocation.
type ScoringRun struct {
	ID            uuid.UUID
	OfferID       *uuid.UUID
	Status        RunStatus
	LeadCount     int
	ResultCount   int
	FallbackCount int
	Error         string
	StartedAt     time.Time
	CompletedAt   *time.Time
}

// RunResult is what Run returns on success.
type RunResult struct {
	Run     ScoringRun
	Results []ScoreResult
}

// ResultFilter narrows the projection. A nil RunID selects every run.
type ResultFilter struct {
	RunID *uuid.UUID
}

// ResultRow is a stored result joined with its lead, as read by the projection.
type ResultRow struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	LeadID    uuid.UUID
	Name      string
	Role      string
	Company   string
	Intent    Intent
	Score     int
	RuleScore int
	AIScore   int
	Reasoning string
	CreatedAt time.Time
}
