package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Event kinds published on the lifecycle tap.
const (
	EventJoined = "joined"
	EventLeft   = "left"
	EventChat   = "chat"
)

// Event is one session lifecycle or chat occurrence.
type Event struct {
	Kind      string    `json:"kind"`
	PlayerID  string    `json:"player_id"`
	Name      string    `json:"name,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives relay events. Publish must not block on the network.
type EventSink interface {
	Publish(Event)
	Close()
}

// NopEvents discards everything.
type NopEvents struct{}

func (NopEvents) Publish(Event) {}
func (NopEvents) Close()        {}

// NATSEvents publishes events as JSON on a NATS subject.
type NATSEvents struct {
	conn    *nats.Conn
	subject string
}

// NewNATSEvents connects to url. The client reconnects on its own; events
// published while disconnected are buffered by the nats client.
func NewNATSEvents(url, subject string) (*NATSEvents, error) {
	conn, err := nats.Connect(url,
		nats.Name("snowfield-relay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				Log.Warnf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			Log.Infof("nats reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSEvents{conn: conn, subject: subject}, nil
}

func (n *NATSEvents) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		Log.Errorf("encode event: %v", err)
		return
	}
	if err := n.conn.Publish(n.subject+"."+e.Kind, data); err != nil {
		Log.Warnf("publish %s event: %v", e.Kind, err)
	}
}

// Close flushes pending events and disconnects.
func (n *NATSEvents) Close() {
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
}
