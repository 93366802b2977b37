// Package http holds what the router needs from the composition root: the
// Module contract every bounded context implements and the App it is built from.
package http

import (
	"context"

	"leadscore_backend/platform/config"
	"leadscore_backend/platform/httpkit"
	"leadscore_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	// Name is used in startup logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module sees while registering routes.
type RouterContext struct {
	Engine *gin.Engine
	Config config.HTTPConfig

	// V1 is /api/v1 with the per-IP limiter applied.
	V1 *gin.RouterGroup

	// ScoringRateLimiter guards routes that start a scoring run. May be nil.
	ScoringRateLimiter *httpkit.ScoringRateLimiter
}

// RouterConfig is the configuration slice the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.ObservabilityConfig
}

// HealthChecker backs the readiness probe.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled in main and handed to router.New.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Modules []Module

	// Health may be nil, in which case /api/ready always reports ready.
	Health HealthChecker
}
