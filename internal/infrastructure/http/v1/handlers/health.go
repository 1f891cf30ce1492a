package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"revengepos/internal/domain/readcache"
	"revengepos/internal/infrastructure/storage/postgres"
)

// Version is reported by /health/info. Set at link time.
var Version = "dev"

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool  *postgres.Pool
	cache readcache.Cache
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(pool *postgres.Pool, cache readcache.Cache) *HealthHandler {
	return &HealthHandler{pool: pool, cache: cache}
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
	if err := h.pool.Ping(c.Request.Context()); err != nil {
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
		"app":      "revengepos",
		"version":  Version,
		"database": h.pool.Stats(),
	}
	if h.cache != nil {
		stats := h.cache.Stats()
		body["cache"] = gin.H{
			"stats":   stats,
			"hitRate": stats.HitRate(),
		}
	}
	c.JSON(http.StatusOK, body)
}
