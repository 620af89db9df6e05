package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/usecase"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	healthUseCase *usecase.HealthUseCase
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthUseCase *usecase.HealthUseCase) *HealthHandler {
	return &HealthHandler{
		healthUseCase: healthUseCase,
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.GetHealth)
	router.GET("/health/live", h.GetLiveness)
	router.GET("/health/ready", h.GetReadiness)
}

// GetHealth returns the database and disk checks. A down check answers 503,
// a partial one still answers 200.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	health, err := h.healthUseCase.GetHealth(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	statusCode := http.StatusOK
	if health.Status == entities.HealthStatusDown {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, health)
}

// GetLiveness returns liveness status
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	if h.healthUseCase.GetLiveness(c.Request.Context()) {
		c.JSON(http.StatusOK, gin.H{"status": "alive"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "dead"})
}

// GetReadiness returns readiness status
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	ready, message := h.healthUseCase.GetReadiness(c.Request.Context())
	if ready {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"message": message,
		})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"status":  "not_ready",
		"message": message,
	})
}
