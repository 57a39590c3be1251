package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowfield/config"
)

func runNATS(t *testing.T) string {
	t.Helper()
	ns, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1, NoLog: true, NoSigs: true})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("nats server did not start")
	}
	t.Cleanup(ns.Shutdown)
	return ns.ClientURL()
}

func TestNATSEventsPublish(t *testing.T) {
	url := runNATS(t)

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()
	s, err := sub.SubscribeSync("snowfield.events.>")
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	events, err := NewNATSEvents(url, "snowfield.events")
	require.NoError(t, err)
	relay := NewRelay(config.Default(), NewMetrics(prometheus.NewRegistry()), events)
	defer relay.Shutdown(context.Background())

	conn := &fakeSender{}
	relay.open(Identity{ID: "p1", Name: "Alice", CharacterID: "male-a"}, conn)
	relay.handleChat(Identity{ID: "p1", Name: "Alice"}, " hi ")
	relay.close("p1")
	relay.close("p1")

	var got []Event
	var subjects []string
	for i := 0; i < 3; i++ {
		msg, err := s.NextMsg(2 * time.Second)
		require.NoError(t, err)
		var e Event
		require.NoError(t, json.Unmarshal(msg.Data, &e))
		got = append(got, e)
		subjects = append(subjects, msg.Subject)
	}
	assert.Equal(t, []string{"snowfield.events.joined", "snowfield.events.chat", "snowfield.events.left"}, subjects)
	assert.Equal(t, "Alice", got[0].Name)
	assert.Equal(t, "hi", got[1].Message)
	assert.Equal(t, "p1", got[2].PlayerID)

	_, err = s.NextMsg(200 * time.Millisecond)
	assert.ErrorIs(t, err, nats.ErrTimeout, "left is published once")
}
