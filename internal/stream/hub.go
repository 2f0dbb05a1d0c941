// Package stream pushes freshly appended audit events to live dashboard
// subscribers over websocket.
package stream

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/AquaMLOps/govgate/internal/model"
	"github.com/AquaMLOps/govgate/internal/pkg/logger"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// Hub fans audit events out to connected websocket clients.
// 慢客户端直接断开，不让它拖住账本写路径。
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Register adds a client and owns its lifecycle until the peer goes away.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	logger.Info("Dashboard subscriber connected", "subscribers", count)

	// 读循环只为探测断连；订阅者不上行任何数据
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// Publish implements service.EventPublisher.
func (h *Hub) Publish(entry *model.AuditTrailEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		conn.Close()
		delete(h.clients, conn)
	}
}

// Subscribers returns the current client count (health endpoint).
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
