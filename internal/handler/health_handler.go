package handler

import (
	"net/http"

	"reviewledger/internal/service"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthService service.HealthService
}

func NewHealthHandler(healthService service.HealthService) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/health", h.Health)
}

// Health pings the database
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  service.HealthResponse
// @Failure      500  {object}  service.HealthResponse
// @Router       /api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	res, ok := h.healthService.Check(c.Request.Context())
	if !ok {
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
