package client

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"snowfield/geom"
)

var up = geom.V(0, 1, 0)

func newChecker(clock *fakeClock) *GroundChecker {
	g := NewGroundChecker(PlayerBody, 0.3, 100*time.Millisecond)
	g.SetClock(clock.Now)
	return g
}

func TestGroundCheckerBeginEnd(t *testing.T) {
	clock := newFakeClock()
	g := newChecker(clock)
	assert.False(t, g.IsGrounded())

	floor := ContactPair{A: PlayerBody, B: GroundBody}
	g.OnContactBegin(floor, up)
	assert.True(t, g.IsGrounded())
	assert.Equal(t, 1, g.Contacts())

	g.OnContactEnd(floor)
	assert.Equal(t, 0, g.Contacts())
	clock.Advance(50 * time.Millisecond)
	assert.True(t, g.IsGrounded(), "within grace period")
	clock.Advance(60 * time.Millisecond)
	assert.False(t, g.IsGrounded(), "grace expired")
}

func TestGroundCheckerNormals(t *testing.T) {
	g := newChecker(newFakeClock())

	g.OnContactBegin(ContactPair{A: PlayerBody, B: 2}, geom.V(1, 0.1, 0))
	assert.Equal(t, 0, g.Contacts(), "wall contact")

	g.OnContactBegin(ContactPair{A: 3, B: PlayerBody}, geom.V(0, -0.9, 0.1))
	assert.Equal(t, 1, g.Contacts(), "inverted normal is flipped")
}

func TestGroundCheckerIgnoresOtherBodies(t *testing.T) {
	g := newChecker(newFakeClock())
	g.OnContactBegin(ContactPair{A: 7, B: 8}, up)
	assert.Equal(t, 0, g.Contacts())
	assert.False(t, g.IsGrounded())
}

func TestGroundCheckerEndWithoutBegin(t *testing.T) {
	g := newChecker(newFakeClock())
	g.OnContactEnd(ContactPair{A: PlayerBody, B: GroundBody})
	assert.Equal(t, 0, g.Contacts())
	assert.False(t, g.IsGrounded())
}

func TestGroundCheckerPairOrder(t *testing.T) {
	g := newChecker(newFakeClock())
	g.OnContactBegin(ContactPair{A: PlayerBody, B: 5}, up)
	g.OnContactBegin(ContactPair{A: PlayerBody, B: 5}, up)
	assert.Equal(t, 1, g.Contacts(), "duplicate begin counts once")
	g.OnContactEnd(ContactPair{A: 5, B: PlayerBody})
	assert.Equal(t, 0, g.Contacts())
}

func TestGroundCheckerCountMatchesOpenContacts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := newChecker(newFakeClock())
	open := map[BodyID]bool{}

	for i := 0; i < 2000; i++ {
		other := BodyID(2 + rng.Intn(6))
		pair := ContactPair{A: PlayerBody, B: other}
		if open[other] || rng.Intn(3) == 0 {
			g.OnContactEnd(pair)
			delete(open, other)
		} else {
			normal := up
			if other%2 == 0 {
				normal = geom.V(1, 0, 0)
			}
			g.OnContactBegin(pair, normal)
			if other%2 == 1 {
				open[other] = true
			}
		}
		assert.GreaterOrEqual(t, g.Contacts(), 0)
		assert.Equal(t, len(open), g.Contacts())
	}
}
