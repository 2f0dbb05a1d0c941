package handler

import (
	"net/http"
	"strconv"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	ledger *service.LedgerService
}

func NewAuditHandler(ledger *service.LedgerService) *AuditHandler {
	return &AuditHandler{ledger: ledger}
}

// Trail 返回某个模型版本的全部审计记录，时间升序。
func (h *AuditHandler) Trail(c *gin.Context) {
	entries, err := h.ledger.Query(c.Request.Context(), c.Param("name"), c.Param("version"))
	if err != nil {
		c.Error(err)
		return
	}
	if et := c.Query("event_type"); et != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.EventType == et {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if entries == nil {
		entries = []model.AuditTrailEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"model_name":    c.Param("name"),
		"model_version": c.Param("version"),
		"count":         len(entries),
		"entries":       entries,
	})
}

// Recent 全局最近 N 条，默认 20，给运维面板用
func (h *AuditHandler) Recent(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	entries, err := h.ledger.Recent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	if entries == nil {
		entries = []model.AuditTrailEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}
