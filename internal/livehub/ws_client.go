package livehub

import (
	"sync"
	"time"

	"complaintdesk/backend/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// WebSocketClient streams live events to one dashboard over a WebSocket.
// Dashboards only listen; anything they send is read and discarded.
type WebSocketClient struct {
	ID      string
	ActorID string
	Conn    *websocket.Conn
	Hub     *ManagerService
	Send    chan models.LiveEvent

	closeOnce sync.Once
}

func NewWebSocketClient(id, actorID string, conn *websocket.Conn, hub *ManagerService) *WebSocketClient {
	return &WebSocketClient{
		ID:      id,
		ActorID: actorID,
		Conn:    conn,
		Hub:     hub,
		Send:    make(chan models.LiveEvent, sendBuffer),
	}
}

func (c *WebSocketClient) GetClientID() string                     { return c.ID }
func (c *WebSocketClient) GetSendChannel() chan<- models.LiveEvent { return c.Send }

func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which makes writePump close the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug("read failed", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(ev); err != nil {
				c.Hub.log.Debug("write failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
