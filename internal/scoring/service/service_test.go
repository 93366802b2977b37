package service

import (
	"context"
	"errors"
	"testing"

	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/internal/scoring/transport"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"

	"github.com/google/uuid"
)

type recordingRuns struct {
	limit int
}

func (r *recordingRuns) GetRun(context.Context, uuid.UUID) (pipeline.ScoringRun, error) {
	return pipeline.ScoringRun{}, nil
}

func (r *recordingRuns) ListRuns(_ context.Context, limit int) ([]pipeline.ScoringRun, error) {
	r.limit = limit
	return nil, nil
}

type failingEnqueuer struct{}

func (failingEnqueuer) EnqueueScoringRun(context.Context, string) (string, error) {
	return "", errors.New("redis down")
}

func TestListRunsClampsLimit(t *testing.T) {
	runs := &recordingRuns{}
	svc := New(nil, runs, nil, nil, logger.Nop())

	tests := []struct {
		in   int
		want int
	}{
		{0, defaultRunLimit},
		{-5, defaultRunLimit},
		{7, 7},
		{1000, maxRunLimit},
	}
	for _, tt := range tests {
		if _, err := svc.ListRuns(context.Background(), tt.in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runs.limit != tt.want {
			t.Fatalf("ListRuns(%d) used limit %d, want %d", tt.in, runs.limit, tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	filter, err := parseFilter(transport.ResultsQuery{RunID: "  "})
	if err != nil || filter.RunID != nil {
		t.Fatalf("blank run id must select all runs, got %+v, %v", filter, err)
	}

	id := uuid.New()
	filter, err = parseFilter(transport.ResultsQuery{RunID: id.String()})
	if err != nil || filter.RunID == nil || *filter.RunID != id {
		t.Fatalf("expected run filter %s, got %+v, %v", id, filter, err)
	}

	_, err = parseFilter(transport.ResultsQuery{RunID: "bogus"})
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestEnqueueFailureIsUnavailable(t *testing.T) {
	svc := New(nil, nil, nil, failingEnqueuer{}, logger.Nop())

	_, err := svc.Enqueue(context.Background(), "manual")
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

type duplicateEnqueuer struct{}

func (duplicateEnqueuer) EnqueueScoringRun(context.Context, string) (string, error) {
	return "", apperr.Conflict("A scoring run is already queued")
}

func TestEnqueueKeepsTypedErrors(t *testing.T) {
	svc := New(nil, nil, nil, duplicateEnqueuer{}, logger.Nop())

	_, err := svc.Enqueue(context.Background(), "manual")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
