package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/kumemura-df/struct-project/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg           *config.Config
	workerHandler *Worker
	healthHandler *Health
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, workerHandler *Worker, healthHandler *Health) *Router {
	return &Router{
		cfg:           cfg,
		workerHandler: workerHandler,
		healthHandler: healthHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Push delivery endpoint; the bus retries on non-2xx
	e.POST("/", rt.workerHandler.Push)

	// Probe endpoints
	e.GET("/health", rt.healthHandler.Live)
	e.GET("/ready", rt.healthHandler.Ready)
}
