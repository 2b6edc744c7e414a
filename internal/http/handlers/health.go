package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/subsets-backend/internal/observability"
	"github.com/yungbote/subsets-backend/internal/services"
)

type HealthHandler struct {
	health  services.HealthService
	metrics *observability.Metrics
}

func NewHealthHandler(health services.HealthService, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{health: health, metrics: metrics}
}

// GET /health/alive
func (h *HealthHandler) Alive(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusServiceUnavailable, services.ReadyReport{})
		return
	}
	rep := h.health.Ready(c.Request.Context())
	h.metrics.SetReady("klass", rep.Catalog)
	h.metrics.SetReady("store", rep.Store)
	h.metrics.SetReady("schema", rep.Schema)

	status := http.StatusOK
	if !rep.Ready {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, rep)
}
