package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed wraps any payload that is not a JSON object with a type.
	ErrMalformed = errors.New("malformed message")
	// ErrUnknownType is returned for a well-formed message whose type is not
	// understood in the given direction.
	ErrUnknownType = errors.New("unknown message type")
)

type envelope struct {
	Type string `json:"type"`
}

// Encode serialises any message variant with its type tag.
func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MessageType(), err)
	}
	return b, nil
}

// DecodeClient parses a client->server message.
func DecodeClient(data []byte) (Message, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypePlayerAction:
		var m PlayerAction
		if err := unmarshal(data, &m); err != nil {
			return nil, err
		}
		if !m.Action.Valid() {
			return nil, fmt.Errorf("%w: action %q", ErrMalformed, m.Action)
		}
		return m, nil
	case TypeChatSend:
		var m ChatSend
		if err := unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

// DecodeServer parses a server->client message.
func DecodeServer(data []byte) (Message, error) {
	typ, err := peekType(data)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypeWelcome:
		return decodeAs[Welcome](data)
	case TypeWorldSnapshot:
		return decodeAs[WorldSnapshot](data)
	case TypePlayerJoined:
		return decodeAs[PlayerJoined](data)
	case TypePlayerLeft:
		return decodeAs[PlayerLeft](data)
	case TypePlayerState:
		return decodeAs[PlayerState](data)
	case TypeChatMessage:
		return decodeAs[ChatMessage](data)
	case TypeChatError:
		return decodeAs[ChatError](data)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
}

func decodeAs[T Message](data []byte) (Message, error) {
	var v T
	if err := unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func peekType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return env.Type, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
