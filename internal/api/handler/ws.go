package handler

import (
	"net/http"

	"complaintdesk/backend/internal/livehub"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.originAllowed(origin)
		},
	}
}

// ServeWebSocket upgrades an administrator session to the live event stream.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	if h.Hub == nil {
		unavailable(c, "live updates")
		return
	}
	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := livehub.NewWebSocketClient(uuid.New().String(), session(c).ActorID, conn, h.Hub)
	if !h.Hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		conn.Close()
		return
	}
	client.Run()
}
