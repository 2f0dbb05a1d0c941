package handler

import (
	"net/http"

	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/AquaMLOps/govgate/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 面板和网关同源部署，跨域校验交给前置代理
	CheckOrigin: func(r *http.Request) bool { return true },
}

type StreamHandler struct {
	hub *stream.Hub
}

func NewStreamHandler(hub *stream.Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// Events upgrades the connection and streams audit events as they land.
func (h *StreamHandler) Events(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "error", err)
		return
	}
	h.hub.Register(conn)
}
