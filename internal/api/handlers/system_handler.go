package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/cache"
)

// SystemHandler serves the root info and health endpoints.
type SystemHandler struct {
	appName     string
	version     string
	environment string
	db          *sql.DB
	cache       *cache.Cache
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(appName, version, environment string, db *sql.DB, c *cache.Cache) *SystemHandler {
	return &SystemHandler{appName: appName, version: version, environment: environment, db: db, cache: c}
}

// Root returns basic service information.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":     "Welcome to " + h.appName,
		"version":     h.version,
		"environment": h.environment,
	})
}

// Health reports the status of the database and cache backends. Any
// unhealthy dependency degrades the overall status but the endpoint
// itself always answers.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	cacheStatus := "healthy"
	if err := h.cache.Ping(ctx); err != nil {
		cacheStatus = "unhealthy"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if dbStatus != "healthy" || cacheStatus != "healthy" {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respond.JSON(w, httpStatus, map[string]any{
		"status":      status,
		"version":     h.version,
		"environment": h.environment,
		"services": map[string]string{
			"database": dbStatus,
			"cache":    cacheStatus,
		},
	})
}
