package config

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ConfigMiddleware exposes the loaded configuration over HTTP
type ConfigMiddleware struct {
	configManager *ConfigManager
}

// NewConfigMiddleware creates a new configuration middleware
func NewConfigMiddleware(configManager *ConfigManager) *ConfigMiddleware {
	return &ConfigMiddleware{
		configManager: configManager,
	}
}

// ConfigHandler returns the current configuration with credentials masked
func (cm *ConfigMiddleware) ConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		config := cm.configManager.GetConfig()
		if config == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Configuration not available",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"config":    config.Sanitized(),
			"timestamp": time.Now().UTC(),
		})
	}
}

// ValidationHandler validates the current configuration
func (cm *ConfigMiddleware) ValidationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		config := cm.configManager.GetConfig()
		if config == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Configuration not available",
			})
			return
		}

		if err := NewValidator().ValidateConfig(config); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"valid": false,
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"valid":   true,
			"message": "Configuration is valid",
		})
	}
}

// AddConfigRoutes adds configuration-related routes to the router
func (cm *ConfigMiddleware) AddConfigRoutes(router gin.IRouter) {
	config := router.Group("/config")
	{
		config.GET("", cm.ConfigHandler())
		config.GET("/validate", cm.ValidationHandler())
	}
}
