package server

import (
	"time"

	"snowfield/geom"
	"snowfield/protocol"
)

// PlayerID is assigned by the server, unique per connection.
type PlayerID string

// Identity does not change for the lifetime of a connection.
type Identity struct {
	ID          PlayerID
	Name        string
	CharacterID string
}

// PlayerState is the relay's cache of what a session last reported about
// itself. The server never simulates it.
type PlayerState struct {
	Identity

	Position   geom.Vec3
	Rotation   float64
	Velocity   geom.Vec3
	LastAction protocol.Action
	LastUpdate time.Time
}

// SpawnPosition is where every new player starts.
var SpawnPosition = geom.V(0, 1, 0)

func NewPlayerState(id Identity, now time.Time) PlayerState {
	return PlayerState{
		Identity:   id,
		Position:   SpawnPosition,
		LastUpdate: now,
	}
}

// Apply overwrites the pose with a reported action.
func (p *PlayerState) Apply(a protocol.PlayerAction, now time.Time) {
	p.Position = a.Position
	p.Rotation = a.Rotation
	p.Velocity = a.Velocity
	p.LastAction = a.Action
	p.LastUpdate = now
}

// Info is the identity plus pose as sent to other players.
func (p PlayerState) Info() protocol.PlayerInfo {
	return protocol.PlayerInfo{
		PlayerID:    string(p.ID),
		Name:        p.Name,
		CharacterID: p.CharacterID,
		Position:    p.Position,
		Rotation:    p.Rotation,
	}
}
