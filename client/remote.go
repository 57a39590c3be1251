package client

import (
	"sort"
	"time"

	"snowfield/geom"
	"snowfield/protocol"
)

// Identity is fixed for the lifetime of a connection.
type Identity struct {
	PlayerID    string
	Name        string
	CharacterID string
}

// Pose is a position plus Y-axis yaw.
type Pose struct {
	Position geom.Vec3
	Rotation float64
}

// Update is one inbound state event for a remote player.
type Update struct {
	Position  geom.Vec3
	Rotation  float64
	Velocity  geom.Vec3
	Action    protocol.Action
	Direction *float64
	Seq       uint64
}

// RemotePlayer is the client-side record for one other player. The current
// pose converges toward the target every tick; targets are replaced
// wholesale by each update.
type RemotePlayer struct {
	Identity

	Position       geom.Vec3
	Rotation       float64
	TargetPosition geom.Vec3
	TargetRotation float64
	Velocity       geom.Vec3
	LastAction     protocol.Action
	LastUpdate     time.Time
	LastSeq        uint64

	Animator *Animator
}

// Effects shows one-shot visuals for remote actions.
type Effects interface {
	ShowThrow(origin geom.Vec3, direction float64)
}

// RigFactory builds the animator for a newly added remote player. It may
// return nil when the character has no animation clips.
type RigFactory func(id Identity) *Animator

// RemoteConfig tunes per-frame smoothing. Factors apply per tick and are not
// scaled by frame time, so perceived smoothing follows the frame rate.
type RemoteConfig struct {
	Interpolation       float64
	RotationSpeed       float64
	ExtrapolationWeight float64
	// GroundedAbove is the vertical velocity above which a remote player is
	// assumed to be on the ground.
	GroundedAbove float64
	// RejectStale drops sequenced updates that are not newer than the last
	// one applied. Off by default: updates are latest-wins.
	RejectStale bool
}

func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		Interpolation:       0.15,
		RotationSpeed:       0.5,
		ExtrapolationWeight: 0.5,
		GroundedAbove:       -2,
	}
}

// RemoteManager owns one RemotePlayer per other visible player. It is driven
// from the frame loop and is not safe for concurrent use.
type RemoteManager struct {
	cfg     RemoteConfig
	rig     RigFactory
	effects Effects
	now     func() time.Time

	players map[string]*RemotePlayer
}

// NewRemoteManager builds a manager. rig and effects may be nil.
func NewRemoteManager(cfg RemoteConfig, rig RigFactory, effects Effects) *RemoteManager {
	return &RemoteManager{
		cfg:     cfg,
		rig:     rig,
		effects: effects,
		now:     time.Now,
		players: make(map[string]*RemotePlayer),
	}
}

func (m *RemoteManager) SetClock(now func() time.Time) { m.now = now }

// Add starts tracking a player. Adding an id that is already tracked is
// ignored and reports false.
func (m *RemoteManager) Add(id Identity, pose Pose) bool {
	if _, ok := m.players[id.PlayerID]; ok {
		return false
	}
	p := &RemotePlayer{
		Identity:       id,
		Position:       pose.Position,
		Rotation:       pose.Rotation,
		TargetPosition: pose.Position,
		TargetRotation: pose.Rotation,
		LastUpdate:     m.now(),
	}
	if m.rig != nil {
		p.Animator = m.rig(id)
		if p.Animator != nil {
			p.Animator.Start()
		}
	}
	m.players[id.PlayerID] = p
	return true
}

// Remove stops tracking a player; unknown ids are a no-op.
func (m *RemoteManager) Remove(playerID string) {
	delete(m.players, playerID)
}

// Clear drops every tracked player.
func (m *RemoteManager) Clear() {
	m.players = make(map[string]*RemotePlayer)
}

// ApplyUpdate overwrites the target pose, velocity and last action. Updates
// for unknown ids are ignored, as are stale sequenced updates when
// RejectStale is set. It reports whether the update was applied.
func (m *RemoteManager) ApplyUpdate(playerID string, u Update) bool {
	p, ok := m.players[playerID]
	if !ok {
		return false
	}
	if m.cfg.RejectStale && u.Seq != 0 && u.Seq <= p.LastSeq {
		return false
	}
	p.TargetPosition = u.Position
	p.TargetRotation = u.Rotation
	p.Velocity = u.Velocity
	p.LastAction = u.Action
	p.LastUpdate = m.now()
	if u.Seq > p.LastSeq {
		p.LastSeq = u.Seq
	}

	if u.Action == protocol.ActionThrow && m.effects != nil {
		dir := u.Rotation
		if u.Direction != nil {
			dir = *u.Direction
		}
		m.effects.ShowThrow(u.Position, dir)
	}
	return true
}

// Tick advances every tracked player by one frame.
func (m *RemoteManager) Tick(dt time.Duration) {
	secs := dt.Seconds()
	for _, p := range m.players {
		p.Position = p.Position.Lerp(p.TargetPosition, m.cfg.Interpolation)

		// dead reckoning between updates, horizontal only
		if p.LastAction == protocol.ActionMove && secs > 0 {
			p.Position = p.Position.AddScaled(p.Velocity.Flat(), secs*m.cfg.ExtrapolationWeight)
		}

		p.Rotation = geom.LerpAngle(p.Rotation, p.TargetRotation, m.cfg.RotationSpeed)

		if p.Animator != nil {
			vy := p.Velocity.Y
			p.Animator.Update(p.Velocity.HorizontalLength(), vy, geom.Exceeds(vy, m.cfg.GroundedAbove))
		}
	}
}

// Get returns the record for playerID.
func (m *RemoteManager) Get(playerID string) (*RemotePlayer, bool) {
	p, ok := m.players[playerID]
	return p, ok
}

// Len is the number of tracked players.
func (m *RemoteManager) Len() int { return len(m.players) }

// Players returns the tracked players ordered by id.
func (m *RemoteManager) Players() []*RemotePlayer {
	out := make([]*RemotePlayer, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// Positions maps player id to current rendered position.
func (m *RemoteManager) Positions() map[string]geom.Vec3 {
	out := make(map[string]geom.Vec3, len(m.players))
	for id, p := range m.players {
		out[id] = p.Position
	}
	return out
}
