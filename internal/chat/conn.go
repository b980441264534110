package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var errConnClosed = errors.New("chat connection closed")

// messageWriter is the write half of a websocket connection.
type messageWriter interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
}

// wsConn serializes writes: gorilla connections allow one concurrent writer.
type wsConn struct {
	mu     sync.Mutex
	conn   messageWriter
	closed bool
}

func newConn(c *websocket.Conn) *wsConn {
	return &wsConn{conn: c}
}

func (c *wsConn) send(msg serverMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
