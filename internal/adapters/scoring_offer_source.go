package adapters

import (
	"context"
	"fmt"

	offerrepo "leadscore_backend/internal/offers/repository"
	"leadscore_backend/internal/scoring/pipeline"
	"leadscore_backend/platform/apperr"
)

// ScoringOfferSource adapts the offers repository for the scoring pipeline.
// The newest offer is the current one.
type ScoringOfferSource struct {
	repo offerrepo.Repository
}

// NewScoringOfferSource creates a new offer source adapter.
func NewScoringOfferSource(repo offerrepo.Repository) *ScoringOfferSource {
	return &ScoringOfferSource{repo: repo}
}

// CurrentOffer returns the current offer, or nil when none has been created.
func (a *ScoringOfferSource) CurrentOffer(ctx context.Context) (*pipeline.Offer, error) {
	offer, err := a.repo.GetCurrent(ctx)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("offer source adapter: current offer: %w", err)
	}

	return &pipeline.Offer{
		ID:            offer.ID,
		Name:          offer.Name,
		ValueProps:    offer.ValueProps,
		IdealUseCases: offer.IdealUseCases,
		CreatedAt:     offer.CreatedAt,
	}, nil
}

var _ pipeline.OfferSource = (*ScoringOfferSource)(nil)
