package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

const DefaultBuffer = 256

// Subscriber receives frames published to a broadcast group.
type Subscriber interface {
	ID() string
	Send(frame models.WSFrame)
}

// Client is one participant connection. Frames are queued on a buffered
// outbox and written by WritePump, so Send never blocks the caller.
type Client struct {
	Conn *websocket.Conn

	id     string
	mu     sync.Mutex
	hook   func(models.WSFrame)
	out    chan models.WSFrame
	closed bool
}

func NewClient(conn *websocket.Conn, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Client{
		Conn: conn,
		id:   uuid.New().String(),
		out:  make(chan models.WSFrame, buffer),
	}
}

func (c *Client) ID() string { return c.id }

// SetSendHook replaces the outbox with a synchronous callback (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.closed || c.Conn == nil {
		return
	}
	select {
	case c.out <- frame:
	default:
		// slow consumer: drop the connection, the read loop will run disconnect cleanup
		c.closeLocked()
		_ = c.Conn.Close()
	}
}

// WritePump drains the outbox onto the websocket until Close is called or a write fails.
func (c *Client) WritePump() {
	for frame := range c.out {
		if c.Conn == nil {
			continue
		}
		if err := c.Conn.WriteJSON(frame); err != nil {
			c.Close()
			_ = c.Conn.Close()
		}
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}
