package client

import "snowfield/geom"

// ContactListener receives physics contact events.
type ContactListener interface {
	OnContactBegin(pair ContactPair, normal geom.Vec3)
	OnContactEnd(pair ContactPair)
}

const (
	// GroundBody is the id of the flat ground plane.
	GroundBody BodyID = 0
	// PlayerBody is the id KinematicBody uses by default.
	PlayerBody BodyID = 1

	defaultGravity = -9.82
)

// KinematicBody is a sphere integrated under gravity above a flat plane at
// y=0. It stands in for a physics engine in headless clients and reports
// ground contact begin/end to its listener.
type KinematicBody struct {
	ID      BodyID
	Radius  float64
	Gravity float64

	pos      geom.Vec3
	vel      geom.Vec3
	touching bool
	listener ContactListener
}

func NewKinematicBody(spawn geom.Vec3, listener ContactListener) *KinematicBody {
	return &KinematicBody{
		ID:       PlayerBody,
		Radius:   0.5,
		Gravity:  defaultGravity,
		pos:      spawn,
		listener: listener,
	}
}

func (b *KinematicBody) Position() geom.Vec3     { return b.pos }
func (b *KinematicBody) Velocity() geom.Vec3     { return b.vel }
func (b *KinematicBody) SetVelocity(v geom.Vec3) { b.vel = v }

// Step integrates dt seconds.
func (b *KinematicBody) Step(dt float64) {
	b.vel.Y += b.Gravity * dt
	b.pos = b.pos.AddScaled(b.vel, dt)

	pair := ContactPair{A: b.ID, B: GroundBody}
	if b.pos.Y <= b.Radius {
		b.pos.Y = b.Radius
		if b.vel.Y < 0 {
			b.vel.Y = 0
		}
		if !b.touching {
			b.touching = true
			if b.listener != nil {
				b.listener.OnContactBegin(pair, geom.V(0, 1, 0))
			}
		}
		return
	}
	if b.touching {
		b.touching = false
		if b.listener != nil {
			b.listener.OnContactEnd(pair)
		}
	}
}
