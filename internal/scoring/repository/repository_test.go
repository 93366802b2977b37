package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("create pgxmock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestInsertResult(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	res := pipeline.ScoreResult{
		RunID: uuid.New(), LeadID: uuid.New(), OfferID: uuid.New(),
		RuleScore: 40, AIScore: 50, FinalScore: 90, Intent: pipeline.IntentHigh,
		Reasoning: "Rule score: 40/50, AI score: 50/50. ok",
	}

	mock.ExpectQuery(`INSERT INTO results`).
		WithArgs(pgxmock.AnyArg(), res.RunID, res.LeadID, res.OfferID, 40, 50, 90, "High", res.Reasoning, false).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	stored, err := repo.InsertResult(context.Background(), res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ID == uuid.Nil || !stored.CreatedAt.Equal(created) {
		t.Fatalf("expected id and created_at assigned, got %+v", stored)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsertResultWrapsErrors(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	boom := errors.New("check constraint violated")

	mock.ExpectQuery(`INSERT INTO results`).WillReturnError(boom)

	if _, err := repo.InsertResult(context.Background(), pipeline.ScoreResult{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped driver error, got %v", err)
	}
}

func runRow(id uuid.UUID, status string) *pgxmock.Rows {
	offerID := uuid.New()
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	completed := started.Add(time.Minute)
	return pgxmock.NewRows([]string{
		"id", "offer_id", "status", "lead_count", "result_count", "fallback_count", "error", "started_at", "completed_at",
	}).AddRow(id, &offerID, status, 3, 3, 1, "", started, &completed)
}

func TestCompleteRun(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	id := uuid.New()

	mock.ExpectQuery(`(?s)UPDATE scoring_runs\s+SET status = 'completed'.*WHERE id = \$1 AND status = 'running'`).
		WithArgs(id, 3, 3, 1).
		WillReturnRows(runRow(id, "completed"))

	run, err := repo.CompleteRun(context.Background(), id, 3, 3, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.Status != pipeline.RunCompleted || run.FallbackCount != 1 || run.CompletedAt == nil {
		t.Fatalf("unexpected run %+v", run)
	}
}

func TestCompleteRunAlreadyFailedIsConflict(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	id := uuid.New()

	mock.ExpectQuery(`SET status = 'completed'`).
		WithArgs(id, 3, 3, 0).
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.CompleteRun(context.Background(), id, 3, 3, 0); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for a run that is no longer running, got %v", err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	id := uuid.New()

	mock.ExpectQuery(`FROM scoring_runs WHERE id = \$1`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetRun(context.Background(), id)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFailRun(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	id := uuid.New()

	mock.ExpectExec(`(?s)SET status = 'failed'.*WHERE id = \$1 AND status = 'running'`).
		WithArgs(id, 3, 1, 0, "insert failed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.FailRun(context.Background(), id, 3, 1, 0, "insert failed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectExec(`SET status = 'failed'`).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	if err := repo.FailRun(context.Background(), id, 3, 1, 0, "x"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for a run that is not running, got %v", err)
	}
}

func TestListResults(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	runID := uuid.New()
	now := time.Now()

	cols := []string{"id", "run_id", "lead_id", "name", "role", "company", "intent", "final_score", "rule_score", "ai_score", "reasoning", "created_at"}
	mock.ExpectQuery(`ORDER BY r.final_score DESC, r.created_at ASC, r.id ASC`).
		WithArgs(&runID).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(uuid.New(), runID, uuid.New(), "Ava", "CTO", "Acme", "High", 100, 50, 50, "r1", now).
			AddRow(uuid.New(), runID, uuid.New(), "Bo", "", "Beta", "Low", 10, 0, 10, "r2", now))

	rows, err := repo.ListResults(context.Background(), pipeline.ResultFilter{RunID: &runID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].Intent != pipeline.IntentHigh || rows[0].Score != 100 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRunsDefaultsLimit(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	id := uuid.New()

	mock.ExpectQuery(`FROM scoring_runs ORDER BY started_at DESC`).
		WithArgs(20).
		WillReturnRows(runRow(id, "completed"))

	runs, err := repo.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestFailStaleRuns(t *testing.T) {
	mock := newMock(t)
	repo := New(mock)
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`WHERE status = 'running' AND started_at < \$1`).
		WithArgs(cutoff, "abandoned").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.FailStaleRuns(context.Background(), cutoff, "abandoned")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 runs failed, got %d", n)
	}
}
