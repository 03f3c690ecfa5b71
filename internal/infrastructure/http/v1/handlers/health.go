// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"lumpiah/internal/infrastructure/storage/postgres"
)

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GenerationStats exposes the plan generation counters.
type GenerationStats interface {
	GenerationFailures() int64
	PlansCreated() int64
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	db      Pinger
	pool    *pgxpool.Pool
	stats   GenerationStats
	version string
}

// NewHealthHandler creates a new health handler. pool and stats may be nil.
func NewHealthHandler(db Pinger, pool *pgxpool.Pool, stats GenerationStats, version string) *HealthHandler {
	return &HealthHandler{db: db, pool: pool, stats: stats, version: version}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"database": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     "lumpiah",
		"version": h.version,
	}
	if h.pool != nil {
		stats := postgres.GetPoolStats(h.pool)
		body["database"] = gin.H{"pool": stats, "saturated": stats.Saturated()}
	}
	if h.stats != nil {
		body["planGeneration"] = gin.H{
			"failures":     h.stats.GenerationFailures(),
			"plansCreated": h.stats.PlansCreated(),
		}
	}
	c.JSON(http.StatusOK, body)
}
