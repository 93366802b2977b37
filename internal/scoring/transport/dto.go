package transport

import (
	"time"

	"github.com/google/uuid"
)

// ScoreQuery selects synchronous or queued execution.
type ScoreQuery struct {
	Async bool `form:"async"`
}

// ResultsQuery filters results and exports by run.
type ResultsQuery struct {
	RunID string `form:"runId" validate:"omitempty,uuid"`
}

// ScoreResultResponse is a stored result as returned by POST /score.
type ScoreResultResponse struct {
	ID         uuid.UUID `json:"id"`
	RunID      uuid.UUID `json:"run_id"`
	LeadID     uuid.UUID `json:"lead_id"`
	OfferID    uuid.UUID `json:"offer_id"`
	RuleScore  int       `json:"rule_score"`
	AIScore    int       `json:"ai_score"`
	FinalScore int       `json:"final_score"`
	Intent     string    `json:"intent"`
	Reasoning  string    `json:"reasoning"`
	Fallback   bool      `json:"fallback"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScoreRunResponse is the body of a synchronous scoring run.
type ScoreRunResponse struct {
	Message       string                `json:"message"`
	Count         int                   `json:"count"`
	RunID         uuid.UUID             `json:"runId"`
	FallbackCount int                   `json:"fallbackCount"`
	Results       []ScoreResultResponse `json:"results"`
}

// QueuedRunResponse is returned when a run was handed to the scheduler.
type QueuedRunResponse struct {
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

// RunResponse describes one scoring run.
type RunResponse struct {
	ID            uuid.UUID  `json:"id"`
	OfferID       *uuid.UUID `json:"offer_id,omitempty"`
	Status        string     `json:"status"`
	LeadCount     int        `json:"lead_count"`
	ResultCount   int        `json:"result_count"`
	FallbackCount int        `json:"fallback_count"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// RunListResponse wraps a list of runs.
type RunListResponse struct {
	Count int           `json:"count"`
	Runs  []RunResponse `json:"runs"`
}

// ResultRowResponse is a result joined with its lead.
type ResultRowResponse struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	LeadID    uuid.UUID `json:"lead_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	Intent    string    `json:"intent"`
	Score     int       `json:"score"`
	RuleScore int       `json:"rule_score"`
	AIScore   int       `json:"ai_score"`
	Reasoning string    `json:"reasoning"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultListResponse is the body of GET /results.
type ResultListResponse struct {
	Message string              `json:"message"`
	Count   int                 `json:"count"`
	Results []ResultRowResponse `json:"results"`
}
