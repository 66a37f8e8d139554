package handler

import (
	"net/http"
	"time"

	"reviewledger/internal/logger"
	"reviewledger/internal/service"
	"reviewledger/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	now              func() time.Time
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, now: time.Now}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/dashboard/summary", h.GetSummary)
}

// GetSummary returns totals, recent jobs and leaders for the period.
// Failures are logged and answered with an empty dashboard.
// @Summary      Dashboard summary
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        year   query  int  false  "Year (default: current)"
// @Param        month  query  int  false  "Month 1-12 (default: current)"
// @Success      200  {object}  response.Response{data=service.DashboardSummary}
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	year, month, ok := periodQuery(c, h.now())
	if !ok {
		return
	}

	summary, err := h.dashboardService.GetSummary(c.Request.Context(), year, month)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("dashboard summary failed", zap.Error(err))
		summary = service.EmptyDashboard()
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
