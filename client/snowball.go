package client

import (
	"time"

	"snowfield/geom"
)

// SnowballConfig tunes thrown snowballs.
type SnowballConfig struct {
	Speed       float64
	Lifetime    time.Duration
	SpawnOffset float64
	HitRange    float64
}

func DefaultSnowballConfig() SnowballConfig {
	return SnowballConfig{
		Speed:       13,
		Lifetime:    3 * time.Second,
		SpawnOffset: 0.5,
		HitRange:    0.5,
	}
}

// Snowball is one projectile in flight.
type Snowball struct {
	Position geom.Vec3
	Velocity geom.Vec3
	Born     time.Time
}

// Hit is reported when a snowball reaches a player.
type Hit struct {
	PlayerID string
	At       geom.Vec3
}

// SnowballManager simulates thrown snowballs. It is the throw effect for
// both the local player and remote players.
type SnowballManager struct {
	cfg   SnowballConfig
	now   func() time.Time
	balls []*Snowball
}

func NewSnowballManager(cfg SnowballConfig) *SnowballManager {
	return &SnowballManager{cfg: cfg, now: time.Now}
}

func (m *SnowballManager) SetClock(now func() time.Time) { m.now = now }

// ShowThrow spawns a snowball slightly ahead of origin, heading along the
// yaw direction in the XZ plane.
func (m *SnowballManager) ShowThrow(origin geom.Vec3, direction float64) {
	heading := geom.Heading(direction)
	m.balls = append(m.balls, &Snowball{
		Position: origin.AddScaled(heading, m.cfg.SpawnOffset),
		Velocity: heading.Scale(m.cfg.Speed),
		Born:     m.now(),
	})
}

// Update moves snowballs, expires old ones and removes those that reached a
// player in targets. Hits are returned in no particular order.
func (m *SnowballManager) Update(dt time.Duration, targets map[string]geom.Vec3) []Hit {
	var hits []Hit
	now := m.now()
	kept := m.balls[:0]
	for _, b := range m.balls {
		b.Position = b.Position.AddScaled(b.Velocity, dt.Seconds())
		if now.Sub(b.Born) > m.cfg.Lifetime {
			continue
		}
		if id, ok := m.hitTest(b, targets); ok {
			hits = append(hits, Hit{PlayerID: id, At: b.Position})
			continue
		}
		kept = append(kept, b)
	}
	for i := len(kept); i < len(m.balls); i++ {
		m.balls[i] = nil
	}
	m.balls = kept
	return hits
}

func (m *SnowballManager) hitTest(b *Snowball, targets map[string]geom.Vec3) (string, bool) {
	for id, pos := range targets {
		if b.Position.DistanceTo(pos) < m.cfg.HitRange {
			return id, true
		}
	}
	return "", false
}

// Active is the number of snowballs in flight.
func (m *SnowballManager) Active() int { return len(m.balls) }

// Snowballs returns the in-flight snowballs.
func (m *SnowballManager) Snowballs() []Snowball {
	out := make([]Snowball, len(m.balls))
	for i, b := range m.balls {
		out[i] = *b
	}
	return out
}

// Clear removes every snowball.
func (m *SnowballManager) Clear() { m.balls = nil }
