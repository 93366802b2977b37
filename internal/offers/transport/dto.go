package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateOfferRequest is the body of POST /offer.
type CreateOfferRequest struct {
	Name          string   `json:"name" validate:"required,notblank,max=255"`
	ValueProps    []string `json:"value_props" validate:"required,min=1,max=50,dive,notblank,max=500"`
	IdealUseCases []string `json:"ideal_use_cases" validate:"required,min=1,max=50,dive,notblank,max=500"`
}

// OfferResponse is an offer as returned by the API.
type OfferResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ValueProps    []string  `json:"value_props"`
	IdealUseCases []string  `json:"ideal_use_cases"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateOfferResponse is the body returned after creating an offer.
type CreateOfferResponse struct {
	Message string        `json:"message"`
	Offer   OfferResponse `json:"offer"`
}

// GetOfferResponse wraps the current offer.
type GetOfferResponse struct {
	Offer OfferResponse `json:"offer"`
}
