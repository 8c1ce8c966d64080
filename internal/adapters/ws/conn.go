// Package ws adapts gorilla/websocket sockets to the relay. Each socket gets
// a read pump, a write pump and a bounded outbound queue.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

// Conn wraps one websocket with a buffered send queue. TrySend never blocks:
// a full queue or a closed socket means the frame is dropped and the caller
// told so.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(ws *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
	}
}

func (c *Conn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}
