// Package ws adapts websocket connections to broadcast observers. Each
// connection is one observer; join/leave messages from the client map onto
// hub subscriptions, and a disconnect leaves every topic.
package ws

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/couchcryptid/disaster-response-core/internal/broadcast"
	"github.com/couchcryptid/disaster-response-core/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// ErrSlowObserver is returned by Send when the client's buffer is full. The
// event is dropped for this observer; delivery is best-effort.
var ErrSlowObserver = errors.New("observer send buffer full")

// clientIDCounter assigns unique IDs so hub delivery order is deterministic.
var clientIDCounter atomic.Uint64

// command is the inbound control message from the browser.
type command struct {
	Action string `json:"action"` // "join" or "leave"
	Topic  string `json:"topic"`
}

// Client bridges one websocket connection and the hub. It implements
// broadcast.Observer.
type Client struct {
	id     string
	hub    *broadcast.Hub
	conn   *websocket.Conn
	send   chan domain.MutationEvent
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient wraps an upgraded connection.
func NewClient(hub *broadcast.Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     fmt.Sprintf("ws-%d", clientIDCounter.Add(1)),
		hub:    hub,
		conn:   conn,
		send:   make(chan domain.MutationEvent, sendBuffer),
		logger: logger,
		closed: make(chan struct{}),
	}
}

// ID implements broadcast.Observer.
func (c *Client) ID() string { return c.id }

// Send implements broadcast.Observer. It never blocks the publisher: a full
// buffer drops the event for this client only.
func (c *Client) Send(event domain.MutationEvent) error {
	select {
	case <-c.closed:
		return errors.New("observer disconnected")
	default:
	}
	select {
	case c.send <- event:
		return nil
	default:
		return ErrSlowObserver
	}
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// readPump consumes join/leave commands until the connection drops, then
// unsubscribes the client from every topic.
func (c *Client) readPump() {
	defer func() {
		c.hub.LeaveAll(c)
		c.closeOnce.Do(func() { close(c.closed) })
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("set read deadline failed", "observer", c.id, "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected websocket close", "observer", c.id, "error", err)
			}
			return
		}

		switch cmd.Action {
		case "join":
			if cmd.Topic != "" {
				c.hub.Join(cmd.Topic, c)
			}
		case "leave":
			if cmd.Topic != "" {
				c.hub.Leave(cmd.Topic, c)
			}
		default:
			c.logger.Debug("ignoring unknown command", "observer", c.id, "action", cmd.Action)
		}
	}
}

// writePump forwards hub events to the connection and keeps it alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return

		case event := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("event write failed", "observer", c.id, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
