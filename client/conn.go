package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"snowfield/protocol"
)

var (
	// ErrNotConnected is returned when sending on a closed connection.
	ErrNotConnected = errors.New("not connected")
	// ErrHandshakeTimeout is returned when no welcome arrives in time.
	ErrHandshakeTimeout = errors.New("timed out waiting for welcome")
)

const (
	handshakeTimeout = 5 * time.Second
	inboxSize        = 256
	outboxSize       = 64
	writeWait        = 5 * time.Second
)

// Conn is a client connection to the relay. Inbound messages are queued by
// a reader goroutine and handed to the frame loop by Poll, so game state is
// only touched from one goroutine. Queued player_state messages are
// coalesced per player; nothing else is ever dropped, and a connection whose
// inbox overflows is closed rather than left out of sync.
type Conn struct {
	ws   *websocket.Conn
	self Identity
	log  *zap.SugaredLogger

	inboxMu sync.Mutex
	inbox   []protocol.Message
	pending map[string]int
	outbox  chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the relay at base (e.g. ws://localhost:8080) and waits for
// the welcome message.
func Dial(ctx context.Context, base, name, characterID string, log *zap.SugaredLogger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	u, err := connectURL(base, name, characterID)
	if err != nil {
		return nil, err
	}

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			var body struct {
				Error string `json:"error"`
			}
			raw, _ := io.ReadAll(resp.Body)
			if json.Unmarshal(raw, &body) == nil && body.Error != "" {
				return nil, fmt.Errorf("connect rejected (%d): %s", resp.StatusCode, body.Error)
			}
		}
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}

	c := &Conn{
		ws:     ws,
		log:    log,
		pending: make(map[string]int),
		outbox:  make(chan []byte, outboxSize),
		done:    make(chan struct{}),
	}
	if err := c.awaitWelcome(); err != nil {
		ws.Close()
		return nil, err
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

func connectURL(base, name, characterID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	u.Path = "/connect"
	q := url.Values{}
	q.Set("name", name)
	q.Set("character_id", characterID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Conn) awaitWelcome() error {
	deadline := time.Now().Add(handshakeTimeout)
	c.ws.SetReadDeadline(deadline)
	defer c.ws.SetReadDeadline(time.Time{})
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() {
				return ErrHandshakeTimeout
			}
			return fmt.Errorf("await welcome: %w", err)
		}
		msg, err := protocol.DecodeServer(payload)
		if err != nil {
			c.log.Warnf("discarding message before welcome: %v", err)
			continue
		}
		if w, ok := msg.(protocol.Welcome); ok {
			c.self = Identity{PlayerID: w.PlayerID, Name: w.Name, CharacterID: w.CharacterID}
			return nil
		}
		c.push(msg)
	}
}

// Self is the identity the server assigned to this connection.
func (c *Conn) Self() Identity { return c.self }

// Done is closed once the connection is gone.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Poll hands every queued inbound message to fn without blocking and
// returns how many were delivered.
func (c *Conn) Poll(fn func(protocol.Message)) int {
	c.inboxMu.Lock()
	msgs := c.inbox
	c.inbox = nil
	clear(c.pending)
	c.inboxMu.Unlock()

	for _, m := range msgs {
		fn(m)
	}
	return len(msgs)
}

// push queues msg for Poll. It reports false when the inbox overflowed,
// in which case the connection is closed.
func (c *Conn) push(msg protocol.Message) bool {
	c.inboxMu.Lock()
	if st, ok := msg.(protocol.PlayerState); ok {
		if i, queued := c.pending[st.PlayerID]; queued {
			c.inbox[i] = st
			c.inboxMu.Unlock()
			return true
		}
	}
	if len(c.inbox) >= inboxSize {
		c.inboxMu.Unlock()
		c.log.Errorf("inbox full at %s, disconnecting", msg.MessageType())
		c.Close()
		return false
	}
	if st, ok := msg.(protocol.PlayerState); ok {
		c.pending[st.PlayerID] = len(c.inbox)
	} else {
		clear(c.pending)
	}
	c.inbox = append(c.inbox, msg)
	c.inboxMu.Unlock()
	return true
}

// SendAction queues a player action. It never blocks; when the connection is
// closed the action is dropped and ErrNotConnected returned.
func (c *Conn) SendAction(a protocol.PlayerAction) error {
	return c.enqueue(a)
}

// SendChat queues a chat line.
func (c *Conn) SendChat(text string) error {
	return c.enqueue(protocol.ChatSend{Message: text})
}

func (c *Conn) enqueue(m protocol.Message) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}
	b, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	select {
	case c.outbox <- b:
	default:
		c.log.Debugf("outbox full, dropping %s", m.MessageType())
	}
	return nil
}

// Close shuts the connection down; safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws == nil {
			return
		}
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = c.ws.Close()
	})
	return nil
}

func (c *Conn) readPump() {
	defer c.Close()
	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warnf("read: %v", err)
			}
			return
		}
		msg, err := protocol.DecodeServer(payload)
		if err != nil {
			c.log.Warnf("discarding message: %v", err)
			continue
		}
		if !c.push(msg) {
			return
		}
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case <-c.done:
			return
		case b := <-c.outbox:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Warnf("write: %v", err)
				c.Close()
				return
			}
		}
	}
}
