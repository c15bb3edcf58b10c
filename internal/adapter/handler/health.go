package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Health answers liveness and readiness probes
type Health struct {
	db           *gorm.DB
	extractReady func() bool
}

// NewHealth creates a probe handler. extractReady reports whether the
// extraction backend is configured and reachable enough to accept work.
func NewHealth(db *gorm.DB, extractReady func() bool) *Health {
	return &Health{
		db:           db,
		extractReady: extractReady,
	}
}

// Live reports process liveness; it never touches dependencies
func (h *Health) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "struct-worker",
	})
}

// Ready checks each dependency and returns 503 until all are ready
func (h *Health) Ready(c echo.Context) error {
	checks := map[string]bool{
		"database":   h.databaseReady(c.Request().Context()),
		"extraction": h.extractReady == nil || h.extractReady(),
	}

	ready := true
	for _, ok := range checks {
		if !ok {
			ready = false
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	})
}

func (h *Health) databaseReady(parentCtx context.Context) bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(parentCtx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx) == nil
}
