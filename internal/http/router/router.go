// Package router builds the Gin engine from an App.
package router

import (
	"context"
	"net/http"
	"time"

	apphttp "leadscore_backend/internal/http"
	"leadscore_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

const serviceName = "leadscore-api"

// New creates the engine with shared middleware, health endpoints and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	if app.Config.IsOTelEnabled() {
		engine.Use(otelgin.Middleware(serviceName))
	}
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))
	engine.MaxMultipartMemory = app.Config.GetUploadMaxBytes()

	perSec := app.Config.GetHTTPRateLimitPerSec()
	limiter := httpkit.NewIPRateLimiter(rate.Limit(perSec), max(1, int(perSec*2)), app.Logger)

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/api/ready", readyHandler(app.Health))

	v1 := engine.Group("/api/v1")
	v1.Use(limiter.RateLimit())

	routerCtx := &apphttp.RouterContext{
		Engine:             engine,
		V1:                 v1,
		Config:             app.Config,
		ScoringRateLimiter: httpkit.NewScoringRateLimiter(app.Logger),
	}
	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Debug("module_registered", "module", module.Name())
	}

	return engine
}

func readyHandler(health apphttp.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", httpkit.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Disposition", httpkit.HeaderRequestID},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return corsCfg
}
