package monitoring

import (
	"net/http"
	"time"

	"platewire/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// NewHealthHandler reports process liveness plus the current connection
// count.
func NewHealthHandler(rooms ports.RoomManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now().Unix(),
			"connections": rooms.ConnectionCount(),
		})
	}
}
