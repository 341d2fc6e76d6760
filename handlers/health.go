package handlers

import (
	"net/http"
	"time"

	"car-price-api/models"

	"github.com/gin-gonic/gin"
)

// Health answers GET /health. The model is loaded before the listener
// starts, so a reachable process always reports model_loaded.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:      "ok",
		ModelLoaded: true,
		Time:        time.Now(),
	})
}
