package client

import (
	"time"

	"golang.org/x/time/rate"

	"snowfield/geom"
	"snowfield/protocol"
)

// Key names a bindable input.
type Key string

const (
	KeyForward Key = "w"
	KeyBack    Key = "s"
	KeyLeft    Key = "a"
	KeyRight   Key = "d"
	KeyJump    Key = " "
)

// Input reports held keys.
type Input interface {
	Pressed(k Key) bool
}

// Camera supplies the world-space basis movement input is relative to.
type Camera interface {
	Forward() geom.Vec3
	Right() geom.Vec3
}

// FixedCamera looks down -Z with +X to the right.
type FixedCamera struct{}

func (FixedCamera) Forward() geom.Vec3 { return geom.V(0, 0, -1) }
func (FixedCamera) Right() geom.Vec3   { return geom.V(1, 0, 0) }

// Body is the local player's physics body.
type Body interface {
	Position() geom.Vec3
	Velocity() geom.Vec3
	SetVelocity(v geom.Vec3)
}

// GroundSensor answers whether the body can jump.
type GroundSensor interface {
	IsGrounded() bool
}

// ActionSink receives outbound actions. It must not block.
type ActionSink func(protocol.PlayerAction)

// ControllerConfig tunes local movement.
type ControllerConfig struct {
	MovementSpeed     float64
	JumpSpeed         float64
	MoveInterval      time.Duration
	RotationSmoothing float64

	// SlopeClamp caps downward speed while grounded to stop bouncing on slopes.
	SlopeClamp float64
}

func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MovementSpeed:     5,
		JumpSpeed:         8,
		MoveInterval:      100 * time.Millisecond,
		RotationSmoothing: 0.1,
		SlopeClamp:        -1,
	}
}

// modelOffset is the distance from the body centre down to the model's feet.
const modelOffset = 0.5

// Controller simulates the local player: it reads input, drives the body,
// and emits actions. move is throttled to one per MoveInterval; jump and
// throw are sent immediately.
type Controller struct {
	cfg      ControllerConfig
	body     Body
	ground   GroundSensor
	input    Input
	camera   Camera
	animator *Animator
	effects  Effects
	send     ActionSink
	now      func() time.Time

	moveLimiter *rate.Limiter
	jumpHeld    bool
	yaw         float64
	targetYaw   float64
}

// ControllerDeps are the collaborators a Controller drives. Animator and
// Effects are optional.
type ControllerDeps struct {
	Body     Body
	Ground   GroundSensor
	Input    Input
	Camera   Camera
	Animator *Animator
	Effects  Effects
	Send     ActionSink
}

func NewController(cfg ControllerConfig, deps ControllerDeps) *Controller {
	if deps.Camera == nil {
		deps.Camera = FixedCamera{}
	}
	if deps.Send == nil {
		deps.Send = func(protocol.PlayerAction) {}
	}
	return &Controller{
		cfg:         cfg,
		body:        deps.Body,
		ground:      deps.Ground,
		input:       deps.Input,
		camera:      deps.Camera,
		animator:    deps.Animator,
		effects:     deps.Effects,
		send:        deps.Send,
		now:         time.Now,
		moveLimiter: rate.NewLimiter(rate.Every(cfg.MoveInterval), 1),
	}
}

func (c *Controller) SetClock(now func() time.Time) { c.now = now }

// Yaw is the model's current facing.
func (c *Controller) Yaw() float64 { return c.yaw }

// ModelPosition is where the character model is drawn.
func (c *Controller) ModelPosition() geom.Vec3 {
	return c.body.Position().Add(geom.V(0, -modelOffset, 0))
}

// Update runs one simulation step.
func (c *Controller) Update() {
	c.handleJump()
	c.updateMovement()
	c.clampSlopeVelocity()
	c.yaw = geom.LerpAngle(c.yaw, c.targetYaw, c.cfg.RotationSmoothing)
	if c.animator != nil {
		v := c.body.Velocity()
		c.animator.Update(v.HorizontalLength(), v.Y, c.ground.IsGrounded())
	}
}

// Throw shows the throw effect locally right away and sends it unthrottled.
func (c *Controller) Throw(direction float64) {
	if c.effects != nil {
		c.effects.ShowThrow(c.body.Position(), direction)
	}
	c.emit(protocol.ActionThrow, protocol.Float(direction))
}

func (c *Controller) handleJump() {
	pressed := c.input.Pressed(KeyJump)
	if pressed && !c.jumpHeld && c.ground.IsGrounded() {
		v := c.body.Velocity()
		v.Y = c.cfg.JumpSpeed
		c.body.SetVelocity(v)
		c.emit(protocol.ActionJump, nil)
	}
	c.jumpHeld = pressed
}

func (c *Controller) updateMovement() {
	var mx, mz float64
	if c.input.Pressed(KeyForward) {
		mz++
	}
	if c.input.Pressed(KeyBack) {
		mz--
	}
	if c.input.Pressed(KeyLeft) {
		mx--
	}
	if c.input.Pressed(KeyRight) {
		mx++
	}

	desired := geom.Zero.
		AddScaled(c.camera.Right().Flat(), mx).
		AddScaled(c.camera.Forward().Flat(), mz).
		Normalize().
		Scale(c.cfg.MovementSpeed)

	v := c.body.Velocity()
	c.body.SetVelocity(geom.V(desired.X, v.Y, desired.Z))
	if desired.HorizontalLength() > 0 {
		c.targetYaw = geom.YawOf(desired)
	}

	if c.moveLimiter.AllowN(c.now(), 1) {
		c.emit(protocol.ActionMove, nil)
	}
}

func (c *Controller) clampSlopeVelocity() {
	v := c.body.Velocity()
	if v.Y < c.cfg.SlopeClamp && c.ground.IsGrounded() {
		v.Y = c.cfg.SlopeClamp
		c.body.SetVelocity(v)
	}
}

func (c *Controller) emit(action protocol.Action, direction *float64) {
	c.send(protocol.PlayerAction{
		Action:    action,
		Position:  c.body.Position(),
		Rotation:  c.yaw,
		Velocity:  c.body.Velocity(),
		Direction: direction,
	})
}
