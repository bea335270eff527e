package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health is the liveness probe. It does not check storage or providers.
func (h *handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
