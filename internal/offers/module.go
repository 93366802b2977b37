// Package offers provides the offer bounded context module.
package offers

import (
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/offers/handler"
	"leadscore_backend/internal/offers/repository"
	"leadscore_backend/internal/offers/service"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/validator"
)

// Module is the offers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the offers module.
func NewModule(pool db.Querier, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val, log),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "offers"
}

// Repository returns the repository for the scoring adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts offer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/offer", m.handler.Create)
	ctx.V1.GET("/offer", m.handler.GetCurrent)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
