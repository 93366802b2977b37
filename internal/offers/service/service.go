package service

import (
	"context"

	"leadscore_backend/internal/offers/repository"
	"leadscore_backend/internal/offers/transport"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/sanitize"
)

// MsgCreated is returned after an offer is stored.
const MsgCreated = "Offer created successfully"

// Service provides business logic for offers.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new offers service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Create stores a new offer, which becomes the current one.
func (s *Service) Create(ctx context.Context, req transport.CreateOfferRequest) (transport.CreateOfferResponse, error) {
	offer, err := s.repo.Create(ctx, repository.Offer{
		Name:          sanitize.Text(req.Name),
		ValueProps:    sanitizeAll(req.ValueProps),
		IdealUseCases: sanitizeAll(req.IdealUseCases),
	})
	if err != nil {
		return transport.CreateOfferResponse{}, err
	}
	s.log.Info("offer_created", "offer_id", offer.ID.String())
	return transport.CreateOfferResponse{Message: MsgCreated, Offer: toOfferResponse(offer)}, nil
}

// GetCurrent returns the most recently created offer.
func (s *Service) GetCurrent(ctx context.Context) (transport.GetOfferResponse, error) {
	offer, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return transport.GetOfferResponse{}, err
	}
	return transport.GetOfferResponse{Offer: toOfferResponse(offer)}, nil
}

func sanitizeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = sanitize.Text(v)
	}
	return out
}

func toOfferResponse(o repository.Offer) transport.OfferResponse {
	return transport.OfferResponse{
		ID:            o.ID,
		Name:          o.Name,
		ValueProps:    o.ValueProps,
		IdealUseCases: o.IdealUseCases,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
