package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"snowfield/config"
	"snowfield/protocol"
)

// Relay runs the connection lifecycle: validate, upgrade, welcome and
// snapshot, relay actions and chat, and announce the departure exactly once.
type Relay struct {
	cfg      config.ServerConfig
	registry *Registry
	chat     *ChatPolicy
	metrics  *Metrics
	events   EventSink
	started  time.Time
	live     sync.WaitGroup

	now   func() time.Time
	newID func() PlayerID
}

// NewRelay wires a relay. A nil events sink discards events.
func NewRelay(cfg *config.Config, metrics *Metrics, events EventSink) *Relay {
	if events == nil {
		events = NopEvents{}
	}
	return &Relay{
		cfg:      cfg.Server,
		registry: NewRegistry(metrics),
		chat:     NewChatPolicy(cfg.Chat),
		metrics:  metrics,
		events:   events,
		started:  time.Now(),
		now:      time.Now,
		newID:    newPlayerID,
	}
}

func newPlayerID() PlayerID {
	return PlayerID("player_" + uuid.NewString())
}

func (r *Relay) Registry() *Registry { return r.registry }

// HandleConnect upgrades /connect?name=...&character_id=... to a session.
// Bad parameters get a 400 with a JSON error body and no session.
func (r *Relay) HandleConnect(w http.ResponseWriter, req *http.Request) {
	ident, err := ParseConnectParams(req.URL.Query())
	if err != nil {
		r.metrics.IncRejected()
		Log.Infof("connect rejected from %s: %v", req.RemoteAddr, err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	ident.ID = r.newID()
	conn := NewClientConn(ws, r.cfg)
	go conn.writePump()

	r.live.Add(1)
	r.open(ident, conn)
	go func() {
		defer r.live.Done()
		conn.readPump(func(payload []byte) { r.handleMessage(ident, payload) })
		r.close(ident.ID)
	}()
}

func (r *Relay) open(ident Identity, conn Sender) {
	s := NewSession(NewPlayerState(ident, r.now()), conn, r.chat.NewLimiter())
	r.metrics.SessionOpened()
	r.registry.Join(s)
	r.events.Publish(Event{Kind: EventJoined, PlayerID: string(ident.ID), Name: ident.Name, Timestamp: r.now()})
	Log.Infof("player joined: id=%s name=%q character=%s sessions=%d",
		ident.ID, ident.Name, ident.CharacterID, r.registry.Len())
}

func (r *Relay) close(id PlayerID) {
	state, ok := r.registry.Leave(id)
	if !ok {
		return
	}
	r.metrics.SessionClosed()
	r.events.Publish(Event{Kind: EventLeft, PlayerID: string(id), Name: state.Name, Timestamp: r.now()})
	Log.Infof("player left: id=%s sessions=%d", id, r.registry.Len())
}

// Shutdown closes every live connection and waits for each to leave through
// the normal path, so their departures reach the event sink before it is
// closed. Call it after the listener stops accepting connections.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.registry.closeAll()
	done := make(chan struct{})
	go func() {
		r.live.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = fmt.Errorf("waiting for sessions to leave: %w", ctx.Err())
	}
	r.events.Close()
	return err
}

// handleMessage processes one inbound frame. Anything that fails to decode
// is logged and dropped; the connection stays open.
func (r *Relay) handleMessage(ident Identity, payload []byte) {
	msg, err := protocol.DecodeClient(payload)
	if err != nil {
		r.metrics.IncMalformed()
		Log.Debugf("dropping message from %s: %v", ident.ID, err)
		return
	}
	r.metrics.IncReceived(msg.MessageType())

	switch m := msg.(type) {
	case protocol.PlayerAction:
		r.registry.ApplyAction(ident.ID, m, r.now())
	case protocol.ChatSend:
		r.handleChat(ident, m.Message)
	}
}

func (r *Relay) handleChat(ident Identity, text string) {
	text, err := r.chat.Check(text)
	if err == nil {
		_, err = r.registry.Chat(ident.ID, text, r.now())
	}
	if err != nil {
		if errors.Is(err, ErrUnknownSession) {
			return
		}
		r.metrics.IncChatRejected(chatRejectReason(err))
		Log.Debugf("chat from %s rejected: %v", ident.ID, err)
		r.registry.SendTo(ident.ID, protocol.ChatError{Error: err.Error()})
		return
	}
	r.events.Publish(Event{Kind: EventChat, PlayerID: string(ident.ID), Name: ident.Name, Message: text, Timestamp: r.now()})
}

func chatRejectReason(err error) string {
	switch {
	case errors.Is(err, ErrChatEmpty):
		return "empty"
	case errors.Is(err, ErrChatTooLong):
		return "too_long"
	case errors.Is(err, ErrChatRateLimited):
		return "rate_limited"
	}
	return "other"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
