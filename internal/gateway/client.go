package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"interview-service/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Code buffers and whiteboard
	// strokes are fat compared to chat text.
	maxMessageSize = 512 * 1024
)

// Client is one authenticated transport-level session. It is owned by the
// Hub and destroyed when the connection closes.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	userID string
	user   *models.UserSummary

	rooms map[string]bool // interview ids this connection has joined
	mu    sync.RWMutex

	// Connection state management
	ctx        context.Context
	cancel     context.CancelFunc
	closed     int32 // atomic flag to track if client is closed
	sendClosed int32 // atomic flag to track if send channel is closed
	sendMu     sync.RWMutex

	wg sync.WaitGroup
}

func NewClient(hub *Hub, conn *websocket.Conn, user *models.UserSummary) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.cfg.SendBuffer),
		userID: user.ID,
		user:   user,
		rooms:  make(map[string]bool),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) User() *models.UserSummary {
	return c.user
}

func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	return rooms
}

func (c *Client) inRoom(interviewID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[interviewID]
}

func (c *Client) addRoom(interviewID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[interviewID] = true
}

func (c *Client) removeRoom(interviewID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, interviewID)
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// close marks the client as closed and cancels the context
func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
	}
}

// closeSendChannel safely closes the send channel. The write lock excludes
// in-flight Send calls so the channel is never closed under them.
func (c *Client) closeSendChannel() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if atomic.CompareAndSwapInt32(&c.sendClosed, 0, 1) {
		close(c.send)
	}
}

func (c *Client) readPump() {
	c.wg.Add(1)
	defer func() {
		c.wg.Done()
		c.close()

		select {
		case c.hub.unregister <- c:
		case <-time.After(5 * time.Second):
			slog.Warn("Timeout sending unregister request", "clientID", c.id, "userID", c.userID)
		}

		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing connection", "clientID", c.id, "error", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "clientID", c.id, "userID", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientID", c.id, "userID", c.userID)
			}
			break
		}

		var env Envelope
		if err := json.Unmarshal(messageBytes, &env); err != nil {
			slog.Error("Failed to unmarshal message", "clientID", c.id, "userID", c.userID, "error", err)
			c.sendError("Invalid message format")
			continue
		}

		// Dispatch inline: messages from one connection are handled in the
		// order the transport delivered them. Other connections read and
		// dispatch concurrently on their own pumps.
		c.hub.dispatch(c, &env)
	}
}

func (c *Client) writePump() {
	c.wg.Add(1)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		c.wg.Done()
		ticker.Stop()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if c.isClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Debug("Error writing message", "clientID", c.id, "error", err)
				return
			}

		case <-ticker.C:
			if c.isClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Debug("Error sending ping", "clientID", c.id, "error", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// Send queues an event for delivery on this connection. A full send
// buffer closes the client rather than blocking a broadcast.
func (c *Client) Send(event EventType, data any) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	raw, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return err
	}

	c.sendMu.RLock()
	if atomic.LoadInt32(&c.sendClosed) == 1 {
		c.sendMu.RUnlock()
		return ErrClientDisconnected
	}

	full := false
	select {
	case c.send <- raw:
	case <-c.ctx.Done():
		c.sendMu.RUnlock()
		return ErrClientDisconnected
	default:
		full = true
	}
	c.sendMu.RUnlock()
	if !full {
		return nil
	}

	slog.Warn("Send buffer full, closing client", "clientID", c.id, "userID", c.userID)
	c.closeSendChannel()
	c.close()
	return ErrClientDisconnected
}

func (c *Client) sendError(message string) {
	c.Send(EventError, ErrorPayload{Message: message})
}
