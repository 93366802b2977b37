package adapters

import (
	"context"
	"errors"
	"testing"

	leadrepo "leadscore_backend/internal/leads/repository"
	offerrepo "leadscore_backend/internal/offers/repository"
	"leadscore_backend/platform/apperr"

	"github.com/google/uuid"
)

type stubLeadRepo struct {
	leads []leadrepo.Lead
	err   error
}

func (s stubLeadRepo) InsertMany(context.Context, []leadrepo.Lead) ([]leadrepo.Lead, error) {
	return nil, nil
}

func (s stubLeadRepo) List(context.Context) ([]leadrepo.Lead, error) { return s.leads, s.err }

type stubOfferRepo struct {
	offer offerrepo.Offer
	err   error
}

func (s stubOfferRepo) Create(context.Context, offerrepo.Offer) (offerrepo.Offer, error) {
	return offerrepo.Offer{}, nil
}

func (s stubOfferRepo) GetCurrent(context.Context) (offerrepo.Offer, error) { return s.offer, s.err }

func TestScoringLeadSourceKeepsOrder(t *testing.T) {
	src := NewScoringLeadSource(stubLeadRepo{leads: []leadrepo.Lead{
		{ID: uuid.New(), Name: "Ava", LinkedInBio: "bio"},
		{ID: uuid.New(), Name: "Ben"},
	}})

	leads, err := src.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 2 || leads[0].Name != "Ava" || leads[0].LinkedInBio != "bio" || leads[1].Name != "Ben" {
		t.Fatalf("unexpected leads %+v", leads)
	}
}

func TestScoringOfferSourceMapsNotFoundToNil(t *testing.T) {
	src := NewScoringOfferSource(stubOfferRepo{err: apperr.NotFound(offerrepo.MsgNoOffer)})

	offer, err := src.CurrentOffer(context.Background())
	if err != nil || offer != nil {
		t.Fatalf("expected nil offer without error, got %v, %v", offer, err)
	}
}

func TestScoringOfferSourceSurfacesErrors(t *testing.T) {
	src := NewScoringOfferSource(stubOfferRepo{err: errors.New("connection refused")})

	if _, err := src.CurrentOffer(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestScoringOfferSourceMapsOffer(t *testing.T) {
	id := uuid.New()
	src := NewScoringOfferSource(stubOfferRepo{offer: offerrepo.Offer{ID: id, Name: "Offer", ValueProps: []string{"a"}, IdealUseCases: []string{"b"}}})

	offer, err := src.CurrentOffer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.ID != id || offer.ValueProps[0] != "a" || offer.IdealUseCases[0] != "b" {
		t.Fatalf("unexpected offer %+v", offer)
	}
}
