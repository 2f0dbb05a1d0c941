package handler

import (
	"net/http"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/apperrors"
	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/gin-gonic/gin"
)

// Default script-level thresholds when the caller does not override them.
const (
	defaultMinAccuracy  = 0.75
	defaultMinPrecision = 0.70
	defaultMinRecall    = 0.70
)

type ModelHandler struct {
	registry *service.RegistryService
	approval *service.ApprovalService
}

func NewModelHandler(registry *service.RegistryService, approval *service.ApprovalService) *ModelHandler {
	return &ModelHandler{registry: registry, approval: approval}
}

func (h *ModelHandler) List(c *gin.Context) {
	records, err := h.registry.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	if records == nil {
		records = []*model.ModelMetadata{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *ModelHandler) Get(c *gin.Context) {
	md, err := h.registry.Get(c.Request.Context(), c.Param("name"), c.Param("version"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, md)
}

// Register 流水线收尾时调用：落盘元数据并记一条 MODEL_REGISTRATION
func (h *ModelHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}
	md := req.Metadata
	if md.ModelName == "" || md.Version == "" {
		c.Error(apperrors.NewInvalidRequest("model_name and version are required"))
		return
	}
	if err := h.registry.Register(c.Request.Context(), &md); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, md)
}

// Approve 跑完整的审批工作流 (性能/合规/偏差)，返回决定报告。
// 被否决不算 HTTP 错误：客户端看报告里的 approval_status。
func (h *ModelHandler) Approve(c *gin.Context) {
	var req model.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	approvalReq := service.ApprovalRequest{
		ModelName:   c.Param("name"),
		Version:     c.Param("version"),
		Approver:    req.Approver,
		Reason:      req.Notes,
		TestResults: req.TestResults,
		Thresholds: model.PerformanceThresholds{
			MinAccuracy:  defaultMinAccuracy,
			MinPrecision: defaultMinPrecision,
			MinRecall:    defaultMinRecall,
		},
	}
	if req.MinAccuracy != nil {
		approvalReq.Thresholds.MinAccuracy = *req.MinAccuracy
	}
	if req.MinPrecision != nil {
		approvalReq.Thresholds.MinPrecision = *req.MinPrecision
	}
	if req.MinRecall != nil {
		approvalReq.Thresholds.MinRecall = *req.MinRecall
	}

	report, err := h.approval.Run(c.Request.Context(), approvalReq)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, report)
}
