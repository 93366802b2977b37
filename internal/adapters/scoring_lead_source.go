package adapters

import (
	"context"
	"fmt"

	leadrepo "leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/scoring/pipeline"
)

// ScoringLeadSource adapts the leads repository for the scoring pipeline.
type ScoringLeadSource struct {
	repo leadrepo.Repository
}

// NewScoringLeadSource creates a new lead source adapter.
func NewScoringLeadSource(repo leadrepo.Repository) *ScoringLeadSource {
	return &ScoringLeadSource{repo: repo}
}

// ListLeads returns every stored lead in insertion order.
func (a *ScoringLeadSource) ListLeads(ctx context.Context) ([]pipeline.Lead, error) {
	leads, err := a.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("lead source adapter: list leads: %w", err)
	}

	result := make([]pipeline.Lead, len(leads))
	for i, l := range leads {
		result[i] = pipeline.Lead{
			ID:          l.ID,
			Name:        l.Name,
			Role:        l.Role,
			Company:     l.Company,
			Industry:    l.Industry,
			Location:    l.Location,
			LinkedInBio: l.LinkedInBio,
			CreatedAt:   l.CreatedAt,
		}
	}
	return result, nil
}

var _ pipeline.LeadSource = (*ScoringLeadSource)(nil)
