// Package protocol defines the JSON wire format shared by the relay server and
// its clients. Every message is one JSON object whose "type" field selects the
// variant.
package protocol

import (
	"encoding/json"

	"snowfield/geom"
)

// Message type discriminators.
const (
	TypeWelcome       = "welcome"
	TypeWorldSnapshot = "world_snapshot"
	TypePlayerJoined  = "player_joined"
	TypePlayerLeft    = "player_left"
	TypePlayerState   = "player_state"
	TypePlayerAction  = "player_action"
	TypeChatSend      = "chat_message"
	TypeChatMessage   = "chat_message"
	TypeChatError     = "chat_error"
)

// Action is the discrete thing a player did.
type Action string

const (
	ActionNone  Action = ""
	ActionMove  Action = "move"
	ActionJump  Action = "jump"
	ActionThrow Action = "throw"
)

// Valid reports whether a is one of the actions a client may send.
func (a Action) Valid() bool {
	switch a {
	case ActionMove, ActionJump, ActionThrow:
		return true
	}
	return false
}

// Message is any wire variant.
type Message interface {
	MessageType() string
}

// PlayerInfo identity plus pose, as carried in snapshots and join events.
type PlayerInfo struct {
	PlayerID    string    `json:"player_id"`
	Name        string    `json:"name"`
	CharacterID string    `json:"character_id"`
	Position    geom.Vec3 `json:"position"`
	Rotation    float64   `json:"rotation"`
}

// Welcome tells a new connection who it is.
type Welcome struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	CharacterID string `json:"character_id"`
}

// WorldSnapshot lists every other registered player at join time. The
// recipient's own identity is echoed alongside.
type WorldSnapshot struct {
	PlayerID    string       `json:"player_id"`
	Name        string       `json:"name"`
	CharacterID string       `json:"character_id"`
	Players     []PlayerInfo `json:"players"`
}

type PlayerJoined struct {
	PlayerInfo
}

type PlayerLeft struct {
	PlayerID string `json:"player_id"`
}

// PlayerState is a relayed action. Seq increases per sender; zero means the
// sender's stream is unsequenced.
type PlayerState struct {
	PlayerID  string    `json:"player_id"`
	Action    Action    `json:"action"`
	Position  geom.Vec3 `json:"position"`
	Rotation  float64   `json:"rotation"`
	Velocity  geom.Vec3 `json:"velocity"`
	Direction *float64  `json:"direction,omitempty"`
	Seq       uint64    `json:"seq,omitempty"`
}

// PlayerAction is the only gameplay message a client sends.
type PlayerAction struct {
	Action    Action    `json:"action"`
	Position  geom.Vec3 `json:"position"`
	Rotation  float64   `json:"rotation"`
	Velocity  geom.Vec3 `json:"velocity"`
	Direction *float64  `json:"direction,omitempty"`
}

// ChatSend client->server chat line.
type ChatSend struct {
	Message string `json:"message"`
}

// ChatEntry one accepted chat line. Timestamp is unix milliseconds.
type ChatEntry struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// ChatMessage server->client chat broadcast.
type ChatMessage struct {
	Data ChatEntry `json:"data"`
}

// ChatError is sent only to the author of a rejected chat line.
type ChatError struct {
	Error string `json:"error"`
}

func (Welcome) MessageType() string       { return TypeWelcome }
func (WorldSnapshot) MessageType() string { return TypeWorldSnapshot }
func (PlayerJoined) MessageType() string  { return TypePlayerJoined }
func (PlayerLeft) MessageType() string    { return TypePlayerLeft }
func (PlayerState) MessageType() string   { return TypePlayerState }
func (PlayerAction) MessageType() string  { return TypePlayerAction }
func (ChatSend) MessageType() string      { return TypeChatSend }
func (ChatMessage) MessageType() string   { return TypeChatMessage }
func (ChatError) MessageType() string     { return TypeChatError }

// Float returns a pointer to f, for optional fields such as Direction.
func Float(f float64) *float64 { return &f }

func (m Welcome) MarshalJSON() ([]byte, error) {
	type alias Welcome
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeWelcome, alias(m)})
}

func (m WorldSnapshot) MarshalJSON() ([]byte, error) {
	type alias WorldSnapshot
	if m.Players == nil {
		m.Players = []PlayerInfo{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeWorldSnapshot, alias(m)})
}

func (m PlayerJoined) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		PlayerInfo
	}{TypePlayerJoined, m.PlayerInfo})
}

func (m PlayerLeft) MarshalJSON() ([]byte, error) {
	type alias PlayerLeft
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypePlayerLeft, alias(m)})
}

func (m PlayerState) MarshalJSON() ([]byte, error) {
	type alias PlayerState
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypePlayerState, alias(m)})
}

func (m PlayerAction) MarshalJSON() ([]byte, error) {
	type alias PlayerAction
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypePlayerAction, alias(m)})
}

func (m ChatSend) MarshalJSON() ([]byte, error) {
	type alias ChatSend
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeChatSend, alias(m)})
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type alias ChatMessage
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeChatMessage, alias(m)})
}

func (m ChatError) MarshalJSON() ([]byte, error) {
	type alias ChatError
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{TypeChatError, alias(m)})
}
