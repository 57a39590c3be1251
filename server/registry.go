package server

import (
	"errors"
	"sort"
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"

	"snowfield/geom"
	"snowfield/protocol"
)

// ErrUnknownSession is returned for an id that is not registered.
var ErrUnknownSession = errors.New("unknown session")

// Sender is the outbound side of a session. Neither enqueue method may
// block; both report false when the message was not queued. EnqueueState
// may replace a queued state from the same sender.
type Sender interface {
	Enqueue(b []byte) bool
	EnqueueState(from PlayerID, b []byte) bool
	Close()
}

// Session is one registered connection and the state it last reported.
type Session struct {
	State PlayerState
	Conn  Sender

	chat    *rate.Limiter
	seq     uint64
	evicted bool
}

func NewSession(state PlayerState, conn Sender, chat *rate.Limiter) *Session {
	return &Session{State: state, Conn: conn, chat: chat}
}

// SessionInfo is the admin view of a session.
type SessionInfo struct {
	PlayerID    string          `json:"player_id"`
	Name        string          `json:"name"`
	CharacterID string          `json:"character_id"`
	Position    geom.Vec3       `json:"position"`
	Rotation    float64         `json:"rotation"`
	LastAction  protocol.Action `json:"last_action"`
	LastUpdate  time.Time       `json:"last_update"`
	Seq         uint64          `json:"seq"`
}

// Registry is the set of connected sessions. One lock guards membership and
// every session's state, and every broadcast runs under it, so a snapshot
// never observes a half-applied change. Broadcasts only enqueue, so holding
// the lock never waits on a peer.
type Registry struct {
	mu       deadlock.RWMutex
	sessions map[PlayerID]*Session
	metrics  *Metrics
}

func NewRegistry(metrics *Metrics) *Registry {
	return &Registry{
		sessions: make(map[PlayerID]*Session),
		metrics:  metrics,
	}
}

// Join registers s. The new session gets welcome then world_snapshot, and
// everyone else gets player_joined, all in one critical section.
func (r *Registry) Join(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.State.ID
	r.sendLocked(s, protocol.Welcome{
		PlayerID:    string(id),
		Name:        s.State.Name,
		CharacterID: s.State.CharacterID,
	})
	r.sendLocked(s, protocol.WorldSnapshot{
		PlayerID:    string(id),
		Name:        s.State.Name,
		CharacterID: s.State.CharacterID,
		Players:     r.infosLocked(id),
	})
	r.sessions[id] = s
	r.broadcastLocked(protocol.PlayerJoined{PlayerInfo: s.State.Info()}, id)
}

// Leave removes id and tells everyone else. It reports false when id was
// not registered, so player_left goes out at most once per session.
func (r *Registry) Leave(id PlayerID) (PlayerState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return PlayerState{}, false
	}
	delete(r.sessions, id)
	r.broadcastLocked(protocol.PlayerLeft{PlayerID: string(id)}, id)
	return s.State, true
}

// ApplyAction stores the sender's reported pose and relays it to every
// other session, stamped with the sender's next sequence number.
func (r *Registry) ApplyAction(id PlayerID, a protocol.PlayerAction, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.State.Apply(a, now)
	s.seq++
	r.broadcastStateLocked(protocol.PlayerState{
		PlayerID:  string(id),
		Action:    a.Action,
		Position:  a.Position,
		Rotation:  a.Rotation,
		Velocity:  a.Velocity,
		Direction: a.Direction,
		Seq:       s.seq,
	}, id)
	return true
}

// Chat rate-limits and relays an already validated line to every session,
// the author included.
func (r *Registry) Chat(id PlayerID, text string, now time.Time) (protocol.ChatEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return protocol.ChatEntry{}, ErrUnknownSession
	}
	if !s.chat.AllowN(now, 1) {
		return protocol.ChatEntry{}, &userError{ErrChatRateLimited, "Too many messages, slow down"}
	}
	entry := protocol.ChatEntry{
		PlayerID:   string(id),
		PlayerName: s.State.Name,
		Message:    text,
		Timestamp:  now.UnixMilli(),
	}
	r.broadcastLocked(protocol.ChatMessage{Data: entry}, "")
	return entry, nil
}

// SendTo queues m for one session.
func (r *Registry) SendTo(id PlayerID, m protocol.Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	return r.sendLocked(s, m)
}

// SetChatRate applies a new chat rate to every live session.
func (r *Registry) SetChatRate(limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, s := range r.sessions {
		s.chat.SetLimitAt(now, limit)
		s.chat.SetBurstAt(now, burst)
	}
}

// Sessions lists every session for the admin endpoint, ordered by id.
func (r *Registry) Sessions() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, SessionInfo{
			PlayerID:    string(s.State.ID),
			Name:        s.State.Name,
			CharacterID: s.State.CharacterID,
			Position:    s.State.Position,
			Rotation:    s.State.Rotation,
			LastAction:  s.State.LastAction,
			LastUpdate:  s.State.LastUpdate,
			Seq:         s.seq,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) closeAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		s.Conn.Close()
	}
}

func (r *Registry) infosLocked(exclude PlayerID) []protocol.PlayerInfo {
	out := make([]protocol.PlayerInfo, 0, len(r.sessions))
	for id, s := range r.sessions {
		if id == exclude {
			continue
		}
		out = append(out, s.State.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// broadcastLocked queues m for every session but exclude. A peer that
// cannot take it is evicted and the rest still get the message.
func (r *Registry) broadcastLocked(m protocol.Message, exclude PlayerID) {
	b, ok := encode(m)
	if !ok {
		return
	}
	for id, s := range r.sessions {
		if id == exclude {
			continue
		}
		r.deliver(id, s, m.MessageType(), b)
	}
}

// broadcastStateLocked queues a state update from one sender to everyone
// else. State is coalesced per sender and may be dropped; the next update
// from the same sender supersedes it.
func (r *Registry) broadcastStateLocked(m protocol.PlayerState, from PlayerID) {
	b, ok := encode(m)
	if !ok {
		return
	}
	for id, s := range r.sessions {
		if id == from || s.evicted {
			continue
		}
		if !s.Conn.EnqueueState(from, b) {
			r.metrics.IncDropped()
			Log.Debugf("dropped player_state of %s for %s", from, id)
			continue
		}
		r.metrics.IncSent()
	}
}

func (r *Registry) sendLocked(s *Session, m protocol.Message) bool {
	b, ok := encode(m)
	if !ok {
		return false
	}
	return r.deliver(s.State.ID, s, m.MessageType(), b)
}

// deliver queues a message that must not be lost. A session that cannot
// take it would silently diverge, so it is closed instead and leaves
// through the normal path; on reconnect it gets a fresh snapshot.
func (r *Registry) deliver(id PlayerID, s *Session, msgType string, b []byte) bool {
	if s.evicted {
		return false
	}
	if !s.Conn.Enqueue(b) {
		s.evicted = true
		s.Conn.Close()
		r.metrics.IncDropped()
		r.metrics.IncEvicted()
		Log.Warnf("closing %s: could not queue %s", id, msgType)
		return false
	}
	r.metrics.IncSent()
	return true
}

func encode(m protocol.Message) ([]byte, bool) {
	b, err := protocol.Encode(m)
	if err != nil {
		Log.Errorf("encode %s: %v", m.MessageType(), err)
		return nil, false
	}
	return b, true
}
