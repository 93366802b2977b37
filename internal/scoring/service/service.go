// Package service exposes scoring runs and their results to the HTTP layer.
package service

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/internal/scoring/transport"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	MsgScored       = "Leads scored successfully"
	MsgQueued       = "Scoring run queued"
	MsgResults      = "Results fetched successfully"
	msgInvalidRunID = "invalid run id"
	msgAsyncOff     = "Background scoring is not configured"
	msgEnqueue      = "Failed to queue scoring run"
	defaultRunLimit = 20
	maxRunLimit     = 100
)

// Runner executes a scoring run.
type Runner interface {
	Run(ctx context.Context) (pipeline.RunResult, error)
}

// RunEnqueuer hands a run to the background worker and returns the task id.
type RunEnqueuer interface {
	EnqueueScoringRun(ctx context.Context, reason string) (string, error)
}

// RunReader reads run records.
type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (pipeline.ScoringRun, error)
	ListRuns(ctx context.Context, limit int) ([]pipeline.ScoringRun, error)
}

// Service provides scoring operations.
type Service struct {
	runner     Runner
	runs       RunReader
	projection *pipeline.Projection
	enqueuer   RunEnqueuer
	log        *logger.Logger
}

// New creates a new scoring service. enqueuer may be nil, which disables async runs.
func New(runner Runner, runs RunReader, projection *pipeline.Projection, enqueuer RunEnqueuer, log *logger.Logger) *Service {
	return &Service{runner: runner, runs: runs, projection: projection, enqueuer: enqueuer, log: log}
}

// SetEnqueuer attaches the background enqueuer after construction.
func (s *Service) SetEnqueuer(enqueuer RunEnqueuer) {
	s.enqueuer = enqueuer
}

// Score runs the pipeline synchronously.
func (s *Service) Score(ctx context.Context) (transport.ScoreRunResponse, error) {
	result, err := s.runner.Run(ctx)
	if err != nil {
		return transport.ScoreRunResponse{}, err
	}

	items := make([]transport.ScoreResultResponse, len(result.Results))
	for i, r := range result.Results {
		items[i] = toScoreResultResponse(r)
	}
	return transport.ScoreRunResponse{
		Message:       MsgScored,
		Count:         len(items),
		RunID:         result.Run.ID,
		FallbackCount: result.Run.FallbackCount,
		Results:       items,
	}, nil
}

// Enqueue schedules a background run.
func (s *Service) Enqueue(ctx context.Context, reason string) (transport.QueuedRunResponse, error) {
	if s.enqueuer == nil {
		return transport.QueuedRunResponse{}, apperr.Unavailable(msgAsyncOff)
	}
	taskID, err := s.enqueuer.EnqueueScoringRun(ctx, reason)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return transport.QueuedRunResponse{}, err
		}
		return transport.QueuedRunResponse{}, apperr.Wrap(apperr.KindUnavailable, msgEnqueue, err)
	}
	return transport.QueuedRunResponse{Message: MsgQueued, TaskID: taskID}, nil
}

// GetRun returns one run.
func (s *Service) GetRun(ctx context.Context, id uuid.UUID) (transport.RunResponse, error) {
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return transport.RunResponse{}, err
	}
	return toRunResponse(run), nil
}

// ListRuns returns the most recent runs first.
func (s *Service) ListRuns(ctx context.Context, limit int) (transport.RunListResponse, error) {
	if limit < 1 {
		limit = defaultRunLimit
	}
	if limit > maxRunLimit {
		limit = maxRunLimit
	}
	runs, err := s.runs.ListRuns(ctx, limit)
	if err != nil {
		return transport.RunListResponse{}, err
	}
	items := make([]transport.RunResponse, len(runs))
	for i, run := range runs {
		items[i] = toRunResponse(run)
	}
	return transport.RunListResponse{Count: len(items), Runs: items}, nil
}

// ListResults returns stored results, best first. An empty set is not an error.
func (s *Service) ListResults(ctx context.Context, req transport.ResultsQuery) (transport.ResultListResponse, error) {
	filter, err := parseFilter(req)
	if err != nil {
		return transport.ResultListResponse{}, err
	}
	rows, err := s.projection.List(ctx, filter)
	if err != nil {
		return transport.ResultListResponse{}, err
	}
	items := make([]transport.ResultRowResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, toResultRowResponse(row))
	}
	return transport.ResultListResponse{Message: MsgResults, Count: len(items), Results: items}, nil
}

// ExportCSV renders the results export. Nothing is returned on error.
func (s *Service) ExportCSV(ctx context.Context, req transport.ResultsQuery) ([]byte, error) {
	filter, err := parseFilter(req)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.projection.ExportCSV(ctx, filter, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func parseFilter(req transport.ResultsQuery) (pipeline.ResultFilter, error) {
	raw := strings.TrimSpace(req.RunID)
	if raw == "" {
		return pipeline.ResultFilter{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return pipeline.ResultFilter{}, apperr.BadRequest(msgInvalidRunID)
	}
	return pipeline.ResultFilter{RunID: &id}, nil
}

func toScoreResultResponse(r pipeline.ScoreResult) transport.ScoreResultResponse {
	return transport.ScoreResultResponse{
		ID:         r.ID,
		RunID:      r.RunID,
		LeadID:     r.LeadID,
		OfferID:    r.OfferID,
		RuleScore:  r.RuleScore,
		AIScore:    r.AIScore,
		FinalScore: r.FinalScore,
		Intent:     string(r.Intent),
		Reasoning:  r.Reasoning,
		Fallback:   r.Fallback,
		CreatedAt:  r.CreatedAt,
	}
}

func toRunResponse(run pipeline.ScoringRun) transport.RunResponse {
	return transport.RunResponse{
		ID:            run.ID,
		OfferID:       run.OfferID,
		Status:        string(run.Status),
		LeadCount:     run.LeadCount,
		ResultCount:   run.ResultCount,
		FallbackCount: run.FallbackCount,
		Error:         run.Error,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	}
}

func toResultRowResponse(row pipeline.ResultRow) transport.ResultRowResponse {
	return transport.ResultRowResponse{
		ID:        row.ID,
		RunID:     row.RunID,
		LeadID:    row.LeadID,
		Name:      row.Name,
		Role:      row.Role,
		Company:   row.Company,
		Intent:    string(row.Intent),
		Score:     row.Score,
		RuleScore: row.RuleScore,
		AIScore:   row.AIScore,
		Reasoning: row.Reasoning,
		CreatedAt: row.CreatedAt,
	}
}
