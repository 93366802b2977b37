// Package repository persists scoring runs and results in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	runNotFoundMessage   = "scoring run not found"
	runNotRunningMessage = "scoring run is not running"
)

// Repository combines the pipeline persistence ports.
type Repository interface {
	pipeline.ResultSink
	pipeline.RunStore
	pipeline.ResultReader
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool db.Querier
}

// New creates a new scoring repository.
func New(pool db.Querier) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// InsertResult stores one result. final_score is written from the result and
// checked by the table constraint.
func (r *Repo) InsertResult(ctx context.Context, res pipeline.ScoreResult) (pipeline.ScoreResult, error) {
	query := `
		INSERT INTO results (id, run_id, lead_id, offer_id, rule_score, ai_score, final_score, intent, reasoning, fallback)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		res.ID, res.RunID, res.LeadID, res.OfferID, res.RuleScore, res.AIScore, res.FinalScore,
		string(res.Intent), res.Reasoning, res.Fallback,
	).Scan(&res.CreatedAt)
	if err != nil {
		return pipeline.ScoreResult{}, fmt.Errorf("insert result: %w", err)
	}
	return res, nil
}

// CreateRun inserts a run row in the running state.
func (r *Repo) CreateRun(ctx context.Context, run pipeline.ScoringRun) (pipeline.ScoringRun, error) {
	query := `
		INSERT INTO scoring_runs (id, offer_id, status, lead_count, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING started_at`

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = pipeline.RunRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	err := r.pool.QueryRow(ctx, query, run.ID, run.OfferID, string(run.Status), run.LeadCount, run.StartedAt).
		Scan(&run.StartedAt)
	if err != nil {
		return pipeline.ScoringRun{}, fmt.Errorf("create scoring run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a running run completed with its final counts.
// A run that is no longer running yields a conflict.
func (r *Repo) CompleteRun(ctx context.Context, id uuid.UUID, leadCount, resultCount, fallbackCount int) (pipeline.ScoringRun, error) {
	query := `
		UPDATE scoring_runs
		SET status = 'completed', lead_count = $2, result_count = $3, fallback_count = $4, completed_at = now()
		WHERE id = $1 AND status = 'running'
		RETURNING ` + runColumns

	run, err := scanRun(r.pool.QueryRow(ctx, query, id, leadCount, resultCount, fallbackCount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pipeline.ScoringRun{}, apperr.Conflict(runNotRunningMessage)
		}
		return pipeline.ScoringRun{}, fmt.Errorf("complete scoring run: %w", err)
	}
	return run, nil
}

// FailRun marks a running run failed and records how far it got.
func (r *Repo) FailRun(ctx context.Context, id uuid.UUID, leadCount, resultCount, fallbackCount int, reason string) error {
	query := `
		UPDATE scoring_runs
		SET status = 'failed', lead_count = $2, result_count = $3, fallback_count = $4, error = $5, completed_at = now()
		WHERE id = $1 AND status = 'running'`

	tag, err := r.pool.Exec(ctx, query, id, leadCount, resultCount, fallbackCount, reason)
	if err != nil {
		return fmt.Errorf("fail scoring run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Conflict(runNotRunningMessage)
	}
	return nil
}

// FailStaleRuns fails runs still running that started before the cutoff.
func (r *Repo) FailStaleRuns(ctx context.Context, startedBefore time.Time, reason string) (int64, error) {
	query := `
		UPDATE scoring_runs
		SET status = 'failed', error = $2, completed_at = now()
		WHERE status = 'running' AND started_at < $1`

	tag, err := r.pool.Exec(ctx, query, startedBefore, reason)
	if err != nil {
		return 0, fmt.Errorf("fail stale scoring runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetRun retrieves a run by ID.
func (r *Repo) GetRun(ctx context.Context, id uuid.UUID) (pipeline.ScoringRun, error) {
	query := `SELECT ` + runColumns + ` FROM scoring_runs WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pipeline.ScoringRun{}, apperr.NotFound(runNotFoundMessage)
		}
		return pipeline.ScoringRun{}, fmt.Errorf("get scoring run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *Repo) ListRuns(ctx context.Context, limit int) ([]pipeline.ScoringRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM scoring_runs ORDER BY started_at DESC, id DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list scoring runs: %w", err)
	}
	defer rows.Close()

	runs := make([]pipeline.ScoringRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scoring run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoring runs: %w", err)
	}
	return runs, nil
}

// ListResults returns results joined with their leads in ranking order.
func (r *Repo) ListResults(ctx context.Context, filter pipeline.ResultFilter) ([]pipeline.ResultRow, error) {
	query := `
		SELECT r.id, r.run_id, r.lead_id, l.name, l.role, l.company, r.intent,
			r.final_score, r.rule_score, r.ai_score, r.reasoning, r.created_at
		FROM results r
		JOIN leads l ON l.id = r.lead_id
		WHERE ($1::uuid IS NULL OR r.run_id = $1::uuid)
		ORDER BY r.final_score DESC, r.created_at ASC, r.id ASC`

	rows, err := r.pool.Query(ctx, query, filter.RunID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := make([]pipeline.ResultRow, 0)
	for rows.Next() {
		var row pipeline.ResultRow
		var intent string
		if err := rows.Scan(
			&row.ID, &row.RunID, &row.LeadID, &row.Name, &row.Role, &row.Company, &intent,
			&row.Score, &row.RuleScore, &row.AIScore, &row.Reasoning, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		row.Intent = pipeline.Intent(intent)
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

const runColumns = `id, offer_id, status, lead_count, result_count, fallback_count, error, started_at, completed_at`

func scanRun(row pgx.Row) (pipeline.ScoringRun, error) {
	var run pipeline.ScoringRun
	var status string
	if err := row.Scan(
		&run.ID, &run.OfferID, &status, &run.LeadCount, &run.ResultCount, &run.FallbackCount,
		&run.Error, &run.StartedAt, &run.CompletedAt,
	); err != nil {
		return pipeline.ScoringRun{}, err
	}
	run.Status = pipeline.RunStatus(status)
	return run, nil
}
