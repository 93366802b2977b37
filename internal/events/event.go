// Package events defines the lead and scoring domain events. The bus itself
// lives in platform/events and is aliased here so modules import one package.
package events

import (
	"leadscore_backend/platform/events"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadsImported is published after a CSV batch has been stored.
type LeadsImported struct {
	BaseEvent
	Count      int    `json:"count"`
	Skipped    int    `json:"skipped"`
	Source     string `json:"source"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}

func (e LeadsImported) EventName() string { return "leads.imported" }

// =============================================================================
// Scoring Domain Events
// =============================================================================

// ScoringRunCompleted is published when every lead of a run has a stored result.
type ScoringRunCompleted struct {
	BaseEvent
	RunID         uuid.UUID `json:"runId"`
	OfferID       uuid.UUID `json:"offerId"`
	LeadCount     int       `json:"leadCount"`
	ResultCount   int       `json:"resultCount"`
	FallbackCount int       `json:"fallbackCount"`
}

func (e ScoringRunCompleted) EventName() string { return "scoring.run.completed" }
