package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"foodinsight/internal/infra"
	"foodinsight/pkg/session"
)

const healthTimeout = 3 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db       *gorm.DB
	sessions session.Store
	logger   *zap.Logger
}

func NewHealthController(db *gorm.DB, sessions session.Store, logger *zap.Logger) *HealthController {
	return &HealthController{db: db, sessions: sessions, logger: logger}
}

// Check GET /healthz
func (h *HealthController) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := gin.H{"database": "ok"}
	healthy := true
	if err := infra.PingPostgresql(ctx, h.db); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		status["database"] = "unavailable"
		healthy = false
	}
	if p, ok := h.sessions.(pinger); ok {
		status["sessions"] = "ok"
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("session store health check failed", zap.Error(err))
			status["sessions"] = "unavailable"
			healthy = false
		}
	}

	if !healthy {
		status["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["status"] = "ok"
	c.JSON(http.StatusOK, status)
}
