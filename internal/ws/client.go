// internal/ws/client.go
//
// One WebSocket client connection: read/write pumps around a gorilla conn.
//
// Notes:
//   - All writes go through the buffered Send channel; the write pump is the
//     only goroutine touching the socket for writes (gorilla requirement).
//   - Read side enforces a size limit and pong-refreshed deadlines; the write
//     pump pings on a ticker inside the pong window.
//   - On read error the client unregisters itself and tells the handler, which
//     is what drives session reaping.

package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Handler consumes connection lifecycle and inbound messages.
// Satisfied by the session coordinator.
type Handler interface {
	HandleConnect(connID string)
	HandleDisconnect(connID string)
	Dispatch(connID, userID string, raw []byte)
}

// Client binds one websocket connection to the hub and handler.
type Client struct {
	ID     string // connection id, the protocol's mySocketId
	UserID string // account id when the upgrade request was authenticated

	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	mu     sync.Mutex // guards closed
	closed bool
}

// NewClient wraps an upgraded connection with a fresh connection id.
func NewClient(conn *websocket.Conn, hub *Hub, userID string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
	}
}

// Run registers the client and starts both pumps. It returns immediately;
// the pumps own the connection from here.
func (c *Client) Run(h Handler) {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump(h)
	h.HandleConnect(c.ID)
}

// enqueue queues a message, dropping it if the client's buffer is full or the
// connection is already gone. A slow consumer must not block a broadcast.
func (c *Client) enqueue(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("conn", c.ID).Msg("send buffer full, dropping message")
	}
}

// closeSend shuts the send channel exactly once, after which enqueue is a no-op.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(h Handler) {
	defer func() {
		c.hub.Unregister(c)
		h.HandleDisconnect(c.ID)
		c.closeSend()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.ID).Msg("read error")
			}
			return
		}
		h.Dispatch(c.ID, c.UserID, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
