package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hemoscan/internal/repository"
)

type HealthHandler struct {
	logger *zap.Logger
	store  repository.Pinger
}

func NewHealthHandler(logger *zap.Logger, store repository.Pinger) *HealthHandler {
	return &HealthHandler{logger: logger, store: store}
}

// Status maneja GET /api/health/.
func (h *HealthHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Database maneja GET /api/health/db.
func (h *HealthHandler) Database(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db unavailable"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("db ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "db unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "connected"})
}
