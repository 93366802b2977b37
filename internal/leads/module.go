// Package leads provides the lead intake bounded context module.
package leads

import (
	"leadscore_backend/internal/adapters/storage"
	"leadscore_backend/internal/events"
	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/internal/leads/handler"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/service"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module. storageSvc may be nil.
func NewModule(pool db.Querier, storageSvc storage.StorageService, bucket string, bus events.Bus, maxUploadBytes int64, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, storageSvc, bucket, bus, log)

	return &Module{
		handler: handler.New(svc, maxUploadBytes, log),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for the scoring adapters.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/leads/upload", m.handler.Upload)
	ctx.V1.GET("/leads", m.handler.List)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
