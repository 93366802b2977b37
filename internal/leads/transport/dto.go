package transport

import (
	"time"

	"github.com/google/uuid"
)

// LeadResponse is a lead as returned by the API.
type LeadResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Company     string    `json:"company"`
	Industry    string    `json:"industry"`
	Location    string    `json:"location"`
	LinkedInBio string    `json:"linkedin_bio"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadResponse is the body returned after a CSV import.
type UploadResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	Skipped int    `json:"skipped"`
}

// LeadListResponse is the body of GET /leads.
type LeadListResponse struct {
	Message string         `json:"message"`
	Count   int            `json:"count"`
	Leads   []LeadResponse `json:"leads"`
}
