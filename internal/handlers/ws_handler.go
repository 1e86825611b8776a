package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"taskhive/internal/logging"
	"taskhive/internal/realtime"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsSendBufferSize = 16
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the API is token-authenticated, cross-origin browser clients are fine
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// wsClient pumps hub messages onto a single websocket connection.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *wsClient) Send(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		// slow consumer, drop the event rather than block the hub
		return false
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// @Summary      Notification stream
// @Description  Upgrades to a websocket that receives the caller's notification events as JSON
// @Tags         Notifications
// @Security     BearerAuth
// @Success      101  "Switching Protocols"
// @Router       /ws [get]
func (h *WSHandler) Serve(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Logger.Warnf("[ws][upgrade][err] user=%s: %v", actor.ID.Hex(), err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBufferSize)}
	userID := actor.ID.Hex()
	h.hub.Register(userID, client)
	logging.Logger.Infof("[ws][connect][ok] user=%s", userID)

	go client.writePump()

	// read loop only services control frames; inbound data is ignored
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.hub.Unregister(userID, client)
	client.Close()
	logging.Logger.Infof("[ws][disconnect][ok] user=%s", userID)
}
