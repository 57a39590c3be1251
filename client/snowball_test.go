package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowfield/geom"
)

func TestSnowballSpawnAndFlight(t *testing.T) {
	clock := newFakeClock()
	m := NewSnowballManager(DefaultSnowballConfig())
	m.SetClock(clock.Now)

	m.ShowThrow(geom.V(0, 1, 0), 0)
	require.Equal(t, 1, m.Active())
	b := m.Snowballs()[0]
	assert.InDelta(t, 0.5, b.Position.Z, 1e-12)
	assert.InDelta(t, 13, b.Velocity.Z, 1e-12)

	clock.Advance(100 * time.Millisecond)
	m.Update(100*time.Millisecond, nil)
	assert.InDelta(t, 0.5+1.3, m.Snowballs()[0].Position.Z, 1e-9)
}

func TestSnowballExpires(t *testing.T) {
	clock := newFakeClock()
	m := NewSnowballManager(DefaultSnowballConfig())
	m.SetClock(clock.Now)
	m.ShowThrow(geom.Zero, 1)
	clock.Advance(3100 * time.Millisecond)
	m.Update(frame, nil)
	assert.Equal(t, 0, m.Active())
}

func TestSnowballHitsPlayer(t *testing.T) {
	clock := newFakeClock()
	m := NewSnowballManager(DefaultSnowballConfig())
	m.SetClock(clock.Now)
	m.ShowThrow(geom.Zero, 0)
	m.ShowThrow(geom.Zero, 3.14)

	targets := map[string]geom.Vec3{"bob": geom.V(0, 0, 2)}
	var hits []Hit
	for i := 0; i < 20 && len(hits) == 0; i++ {
		clock.Advance(frame)
		hits = m.Update(frame, targets)
	}
	require.Len(t, hits, 1)
	assert.Equal(t, "bob", hits[0].PlayerID)
	assert.Equal(t, 1, m.Active(), "the ball thrown the other way is still flying")

	m.Clear()
	assert.Equal(t, 0, m.Active())
}
