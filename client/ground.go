package client

import (
	"time"

	"snowfield/geom"
)

// BodyID identifies a physics body.
type BodyID int

// ContactPair is an ordered pair of bodies touching each other.
type ContactPair struct {
	A, B BodyID
}

func (p ContactPair) involves(id BodyID) bool { return p.A == id || p.B == id }

// key orders the pair so begin(A,B) and end(B,A) refer to the same contact.
func (p ContactPair) key() ContactPair {
	if p.B < p.A {
		return ContactPair{A: p.B, B: p.A}
	}
	return p
}

// GroundChecker tracks whether one body is standing on something, from the
// physics engine's contact begin/end events. A short grace period after the
// last ground contact ends keeps single-step gaps on uneven terrain from
// reading as airborne.
type GroundChecker struct {
	body      BodyID
	threshold float64
	grace     time.Duration
	now       func() time.Time

	pairs        map[ContactPair]struct{}
	contacts     int
	lastGrounded time.Time
}

// NewGroundChecker tracks body. threshold is the minimum up-component of a
// contact normal that counts as ground (0.3 accepts slopes up to ~72°).
func NewGroundChecker(body BodyID, threshold float64, grace time.Duration) *GroundChecker {
	return &GroundChecker{
		body:      body,
		threshold: threshold,
		grace:     grace,
		now:       time.Now,
		pairs:     make(map[ContactPair]struct{}),
	}
}

// SetClock replaces the time source.
func (g *GroundChecker) SetClock(now func() time.Time) { g.now = now }

// OnContactBegin records pair as a ground contact when its normal is
// walkable. Contacts not involving the tracked body are ignored.
func (g *GroundChecker) OnContactBegin(pair ContactPair, normal geom.Vec3) {
	if !pair.involves(g.body) {
		return
	}
	if !geom.IsWalkable(normal, g.threshold) {
		return
	}
	k := pair.key()
	if _, dup := g.pairs[k]; dup {
		return
	}
	g.pairs[k] = struct{}{}
	g.contacts++
	g.lastGrounded = g.now()
}

// OnContactEnd releases pair if it was previously counted. An end without a
// matching begin is ignored.
func (g *GroundChecker) OnContactEnd(pair ContactPair) {
	if !pair.involves(g.body) {
		return
	}
	k := pair.key()
	if _, ok := g.pairs[k]; !ok {
		return
	}
	delete(g.pairs, k)
	if g.contacts > 0 {
		g.contacts--
	}
	if g.contacts == 0 {
		g.lastGrounded = g.now()
	}
}

// Contacts is the number of open ground contacts.
func (g *GroundChecker) Contacts() int { return g.contacts }

// IsGrounded is true while any ground contact is open, or within the grace
// period after the count last dropped to zero.
func (g *GroundChecker) IsGrounded() bool {
	now := g.now()
	if g.contacts > 0 {
		g.lastGrounded = now
		return true
	}
	if g.lastGrounded.IsZero() {
		return false
	}
	return now.Sub(g.lastGrounded) < g.grace
}

