package handler

import (
	"net/http"

	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
}

func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Snapshot 汇总注册表/台账/跟踪目录，给监控页面一次拉全。
func (h *DashboardHandler) Snapshot(c *gin.Context) {
	data, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, data)
}
