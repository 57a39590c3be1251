package client

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowfield/geom"
	"snowfield/protocol"
)

const frame = 16 * time.Millisecond

type throwRecorder struct {
	origins    []geom.Vec3
	directions []float64
}

func (r *throwRecorder) ShowThrow(origin geom.Vec3, direction float64) {
	r.origins = append(r.origins, origin)
	r.directions = append(r.directions, direction)
}

func bob() Identity { return Identity{PlayerID: "bob", Name: "Bob", CharacterID: "male-a"} }

func TestRemoteAddIsIdempotent(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	assert.True(t, m.Add(bob(), Pose{Position: geom.V(1, 1, 1)}))
	assert.False(t, m.Add(bob(), Pose{Position: geom.V(9, 9, 9)}))
	p, ok := m.Get("bob")
	require.True(t, ok)
	assert.Equal(t, geom.V(1, 1, 1), p.Position)
	assert.Equal(t, 1, m.Len())
}

func TestRemoteUnknownIDsAreNoops(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	assert.False(t, m.ApplyUpdate("ghost", Update{Position: geom.V(1, 0, 0)}))
	m.Remove("ghost")
	assert.Equal(t, 0, m.Len())
}

func TestRemoteConvergesWithoutOvershoot(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	m.Add(bob(), Pose{})
	target := geom.V(10, 2, -4)
	m.ApplyUpdate("bob", Update{Position: target, Action: protocol.ActionJump})

	p, _ := m.Get("bob")
	prev := p.Position.DistanceTo(target)
	for i := 0; i < 200; i++ {
		m.Tick(frame)
		d := p.Position.DistanceTo(target)
		assert.LessOrEqual(t, d, prev)
		assert.LessOrEqual(t, p.Position.X, target.X)
		assert.GreaterOrEqual(t, p.Position.Z, target.Z)
		prev = d
	}
	assert.InDelta(t, 0, prev, 1e-9)
}

func TestRemoteSingleTickFactor(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	m.Add(bob(), Pose{})
	m.ApplyUpdate("bob", Update{Position: geom.V(10, 0, 0)})
	m.Tick(frame)
	p, _ := m.Get("bob")
	assert.InDelta(t, 1.5, p.Position.X, 1e-12)
}

func TestRemoteExtrapolatesOnMove(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	m.Add(bob(), Pose{})
	m.ApplyUpdate("bob", Update{Action: protocol.ActionMove, Velocity: geom.V(4, 3, 0)})
	m.Tick(100 * time.Millisecond)
	p, _ := m.Get("bob")
	assert.InDelta(t, 4*0.1*0.5, p.Position.X, 1e-12)
	assert.Equal(t, 0.0, p.Position.Y, "no vertical dead reckoning")
}

func TestRemoteRotationShortestArc(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	m.Add(bob(), Pose{Rotation: 3.0})
	m.ApplyUpdate("bob", Update{Rotation: -3.0})
	m.Tick(frame)
	p, _ := m.Get("bob")
	assert.Greater(t, p.Rotation, 3.0, "rotates through +pi rather than back through 0")
	assert.InDelta(t, 3.0+(2*math.Pi-6)*0.5, p.Rotation, 1e-12)
}

func TestRemoteLatestWins(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	m.Add(bob(), Pose{})
	m.ApplyUpdate("bob", Update{Position: geom.V(5, 0, 0), Seq: 5})
	assert.True(t, m.ApplyUpdate("bob", Update{Position: geom.V(1, 0, 0), Seq: 3}))
	p, _ := m.Get("bob")
	assert.Equal(t, geom.V(1, 0, 0), p.TargetPosition)
}

func TestRemoteRejectStale(t *testing.T) {
	cfg := DefaultRemoteConfig()
	cfg.RejectStale = true
	m := NewRemoteManager(cfg, nil, nil)
	m.Add(bob(), Pose{})
	m.ApplyUpdate("bob", Update{Position: geom.V(5, 0, 0), Seq: 5})
	assert.False(t, m.ApplyUpdate("bob", Update{Position: geom.V(1, 0, 0), Seq: 3}))
	assert.False(t, m.ApplyUpdate("bob", Update{Position: geom.V(1, 0, 0), Seq: 5}))
	assert.True(t, m.ApplyUpdate("bob", Update{Position: geom.V(2, 0, 0)}), "unsequenced updates always apply")
	assert.True(t, m.ApplyUpdate("bob", Update{Position: geom.V(7, 0, 0), Seq: 6}))
	p, _ := m.Get("bob")
	assert.Equal(t, geom.V(7, 0, 0), p.TargetPosition)
}

func TestRemoteThrowEffect(t *testing.T) {
	fx := &throwRecorder{}
	m := NewRemoteManager(DefaultRemoteConfig(), nil, fx)
	m.Add(bob(), Pose{})
	m.ApplyUpdate("bob", Update{Action: protocol.ActionMove})
	m.ApplyUpdate("bob", Update{Action: protocol.ActionThrow, Position: geom.V(1, 1, 1), Rotation: 2, Direction: protocol.Float(0)})
	m.ApplyUpdate("bob", Update{Action: protocol.ActionThrow, Rotation: 2})
	assert.Equal(t, []float64{0, 2}, fx.directions)
	assert.Equal(t, geom.V(1, 1, 1), fx.origins[0])
}

func TestRemoteDrivesAnimator(t *testing.T) {
	rig := func(Identity) *Animator { return NewAnimator(DefaultAnimConfig(), nil, nil) }
	m := NewRemoteManager(DefaultRemoteConfig(), rig, nil)
	m.Add(bob(), Pose{})
	p, _ := m.Get("bob")
	require.NotNil(t, p.Animator)

	m.ApplyUpdate("bob", Update{Action: protocol.ActionMove, Velocity: geom.V(3, 0, 0)})
	m.Tick(frame)
	m.Tick(frame)
	assert.Equal(t, AnimWalk, p.Animator.State())

	m.ApplyUpdate("bob", Update{Action: protocol.ActionJump, Velocity: geom.V(0, -6, 0)})
	m.Tick(frame)
	assert.Equal(t, AnimJump, p.Animator.State())
	m.Tick(frame)
	m.Tick(frame)
	assert.Equal(t, AnimFall, p.Animator.State())
}

func TestRemotePlayersSorted(t *testing.T) {
	m := NewRemoteManager(DefaultRemoteConfig(), nil, nil)
	for _, id := range []string{"c", "a", "b"} {
		m.Add(Identity{PlayerID: id}, Pose{})
	}
	var ids []string
	for _, p := range m.Players() {
		ids = append(ids, p.PlayerID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Len(t, m.Positions(), 3)
	m.Clear()
	assert.Equal(t, 0, m.Len())
}
