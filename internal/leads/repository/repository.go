package repository

import (
	"context"
	"fmt"
	"time"

	"leadscore_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Lead is a stored lead row.
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

// Repository defines lead persistence.
type Repository interface {
	InsertMany(ctx context.Context, leads []Lead) ([]Lead, error)
	List(ctx context.Context) ([]Lead, error)
}

// Repo implements Repository on Postgres.
type Repo struct {
	pool db.Querier
	now  func() time.Time
}

// New creates a new leads repository.
func New(pool db.Querier) *Repo {
	return &Repo{pool: pool, now: time.Now}
}

var _ Repository = (*Repo)(nil)

var leadColumns = []string{"id", "name", "role", "company", "industry", "location", "linkedin_bio", "created_at"}

// InsertMany copies leads in one transaction. Either every lead is stored or none is.
// Rows keep their slice order in List.
func (r *Repo) InsertMany(ctx context.Context, leads []Lead) ([]Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	created := r.now().UTC()
	stored := make([]Lead, len(leads))
	rows := make([][]any, len(leads))
	for i, lead := range leads {
		if lead.ID == uuid.Nil {
			lead.ID = uuid.New()
		}
		lead.CreatedAt = created
		stored[i] = lead
		rows[i] = []any{lead.ID, lead.Name, lead.Role, lead.Company, lead.Industry, lead.Location, lead.LinkedInBio, lead.CreatedAt}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin lead import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"leads"}, leadColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return nil, fmt.Errorf("copy leads: %w", err)
	}
	if n != int64(len(rows)) {
		return nil, fmt.Errorf("copy leads: stored %d of %d rows", n, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit lead import: %w", err)
	}
	return stored, nil
}

// List returns every lead in insertion order.
func (r *Repo) List(ctx context.Context) ([]Lead, error) {
	query := `
		SELECT id, name, role, company, industry, location, linkedin_bio, created_at
		FROM leads
		ORDER BY seq ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(
			&lead.ID, &lead.Name, &lead.Role, &lead.Company, &lead.Industry,
			&lead.Location, &lead.LinkedInBio, &lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}
