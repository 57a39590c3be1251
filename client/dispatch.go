package client

import "snowfield/protocol"

// Dispatcher routes inbound server messages into client state.
type Dispatcher struct {
	Self   string
	Remote *RemoteManager
	Chat   *ChatLog
}

// Handle applies one server message. Messages about the local player and
// updates for unknown players are ignored.
func (d *Dispatcher) Handle(m protocol.Message) {
	switch msg := m.(type) {
	case protocol.WorldSnapshot:
		for _, p := range msg.Players {
			d.join(p)
		}
	case protocol.PlayerJoined:
		d.join(msg.PlayerInfo)
	case protocol.PlayerLeft:
		d.Remote.Remove(msg.PlayerID)
	case protocol.PlayerState:
		d.Remote.ApplyUpdate(msg.PlayerID, Update{
			Position:  msg.Position,
			Rotation:  msg.Rotation,
			Velocity:  msg.Velocity,
			Action:    msg.Action,
			Direction: msg.Direction,
			Seq:       msg.Seq,
		})
	case protocol.ChatMessage:
		if d.Chat != nil {
			d.Chat.Add(msg.Data)
		}
	case protocol.ChatError:
		if d.Chat != nil {
			d.Chat.ReportError(msg.Error)
		}
	}
}

func (d *Dispatcher) join(p protocol.PlayerInfo) {
	if p.PlayerID == d.Self {
		return
	}
	d.Remote.Add(
		Identity{PlayerID: p.PlayerID, Name: p.Name, CharacterID: p.CharacterID},
		Pose{Position: p.Position, Rotation: p.Rotation},
	)
}
