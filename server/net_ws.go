package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"snowfield/config"
)

// ClientConn owns the write side of one websocket. Sends go through an
// ordered queue drained by writePump so a slow peer never blocks the
// goroutine that produced the message.
//
// State updates are coalesced: while one from a sender is still queued and
// nothing else was queued after it, a newer one replaces it in place. Everything else is queued as is and never
// dropped; a caller whose Enqueue fails should close the connection.
type ClientConn struct {
	ws  *websocket.Conn
	cfg config.ServerConfig

	mu      sync.Mutex
	queue   [][]byte
	pending map[PlayerID]int
	wake    chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn, cfg config.ServerConfig) *ClientConn {
	return &ClientConn{
		ws:      ws,
		cfg:     cfg,
		pending: make(map[PlayerID]int),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Enqueue queues b without blocking. It reports false when the queue is
// full or the connection is closed.
func (c *ClientConn) Enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed() || len(c.queue) >= c.cfg.SendQueue {
		return false
	}
	c.queue = append(c.queue, b)
	// Later states must not jump ahead of this message.
	clear(c.pending)
	c.signal()
	return true
}

// EnqueueState queues the latest state of from, replacing one that has not
// been written yet. It reports false when the update was dropped.
func (c *ClientConn) EnqueueState(from PlayerID, b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed() {
		return false
	}
	if i, ok := c.pending[from]; ok {
		c.queue[i] = b
		return true
	}
	if len(c.queue) >= c.cfg.SendQueue {
		return false
	}
	c.pending[from] = len(c.queue)
	c.queue = append(c.queue, b)
	c.signal()
	return true
}

// take removes and returns everything queued.
func (c *ClientConn) take() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = nil
	clear(c.pending)
	return out
}

func (c *ClientConn) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *ClientConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close stops the write pump and closes the socket. Safe to call more than
// once.
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// writePump drains the queue and pings the peer every PingInterval.
func (c *ClientConn) writePump() {
	ping := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ping.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case <-c.wake:
			for _, msg := range c.take() {
				c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
				if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
					Log.Debugf("write failed: %v", err)
					c.Close()
					return
				}
			}
		case <-ping.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteTimeout))
			return
		}
	}
}

// readPump hands every inbound text frame to onMessage, in arrival order,
// until the socket fails or is closed.
func (c *ClientConn) readPump(onMessage func([]byte)) {
	defer c.Close()
	c.ws.SetReadLimit(c.cfg.MaxMessageBytes)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return nil
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				Log.Debugf("read failed: %v", err)
			}
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		onMessage(payload)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from wherever the client is hosted.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}
