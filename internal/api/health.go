package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service liveness and store connectivity
type HealthHandler struct {
	db      *gorm.DB
	version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health responds with the current service status. The store check is a
// ping; a failing store degrades the payload but the endpoint stays 200,
// since chat keeps limping along without persistence.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"storeConnected": h.storeConnected(),
	})
}

// Banner responds with basic service information on the root route
func (h *HealthHandler) Banner(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "🌱 AgriConnect API Server is Running!",
		"version": h.version,
		"endpoints": gin.H{
			"auth":      "/api/auth",
			"health":    "/api/health",
			"private":   "/ws/private",
			"community": "/ws/community",
		},
	})
}

func (h *HealthHandler) storeConnected() bool {
	if h.db == nil {
		return false
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}
