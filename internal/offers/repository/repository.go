package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MsgNoOffer is returned when no offer has been created yet.
const MsgNoOffer = "No offer found"

// Offer is a stored offer row.
type Offer struct {
	ID            uuid.UUID
	Name          string
	ValueProps    []string
	IdealUseCases []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository defines offer persistence.
type Repository interface {
	Create(ctx context.Context, offer Offer) (Offer, error)
	GetCurrent(ctx context.Context) (Offer, error)
}

// Repo implements Repository on Postgres.
type Repo struct {
	pool db.Querier
}

// New creates a new offers repository.
func New(pool db.Querier) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Create inserts a new offer. Offers are append-only; the newest one is current.
func (r *Repo) Create(ctx context.Context, offer Offer) (Offer, error) {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}

	query := `
		INSERT INTO offers (id, name, value_props, ideal_use_cases)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, offer.ID, offer.Name, offer.ValueProps, offer.IdealUseCases).
		Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return Offer{}, fmt.Errorf("create offer: %w", err)
	}
	return offer, nil
}

// GetCurrent returns the most recently created offer.
func (r *Repo) GetCurrent(ctx context.Context) (Offer, error) {
	query := `
		SELECT id, name, value_props, ideal_use_cases, created_at, updated_at
		FROM offers
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	var offer Offer
	err := r.pool.QueryRow(ctx, query).Scan(
		&offer.ID, &offer.Name, &offer.ValueProps, &offer.IdealUseCases, &offer.CreatedAt, &offer.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, apperr.NotFound(MsgNoOffer)
	}
	if err != nil {
		return Offer{}, fmt.Errorf("get current offer: %w", err)
	}
	return offer, nil
}
