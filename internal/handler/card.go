package handler

import (
	"net/http"

	"github.com/AquaMLOps/govgate/internal/service"
	"github.com/gin-gonic/gin"
)

type CardHandler struct {
	cards *service.ModelCardService
}

func NewCardHandler(cards *service.ModelCardService) *CardHandler {
	return &CardHandler{cards: cards}
}

// Generate 重新渲染模型卡并直接回传 Markdown 内容。
func (h *CardHandler) Generate(c *gin.Context) {
	path, content, err := h.cards.Generate(c.Request.Context(), c.Param("name"), c.Param("version"))
	if err != nil {
		c.Error(err)
		return
	}
	c.Header("X-Card-Path", path)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(content))
}
