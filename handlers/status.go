package handlers

import (
	"net/http"

	"jeffjackson/utils"

	"github.com/gin-gonic/gin"
)

// HealthReporter exposes the latest backend reachability snapshot.
type HealthReporter interface {
	Status() utils.HealthStatus
}

// StatusHandler reports backend connectivity.
type StatusHandler struct {
	Monitor HealthReporter
}

func NewStatusHandler(m HealthReporter) *StatusHandler {
	return &StatusHandler{Monitor: m}
}

// Status handles GET /api/status.
func (h *StatusHandler) Status(c *gin.Context) {
	if h.Monitor == nil {
		c.JSON(http.StatusOK, utils.HealthStatus{})
		return
	}
	c.JSON(http.StatusOK, h.Monitor.Status())
}

// Health handles GET /health.
func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "DJ booking service is running"})
}
