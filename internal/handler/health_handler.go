package handler

import (
	"context"
	"net/http"
	"time"

	"user-account-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// Pinger is anything whose reachability can be probed
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler builds the health probe. cache may be nil.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health reports database and cache reachability
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	database := "up"
	if err := h.db.Ping(ctx); err != nil {
		database = "down"
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	cache := "disabled"
	if h.cache != nil {
		cache = "up"
		if err := h.cache.Ping(ctx); err != nil {
			// The service keeps working without its cache
			cache = "down"
			if code == http.StatusOK {
				status = "degraded"
			}
		}
	}

	utils.JSONResponse(c, code, gin.H{
		"status":   status,
		"database": database,
		"cache":    cache,
	})
}

// Root is the liveness greeting
func Root(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, gin.H{"Hello": "World"})
}
