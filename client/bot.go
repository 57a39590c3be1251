package client

import (
	"context"
	"time"

	"go.uber.org/zap"

	"snowfield/config"
	"snowfield/geom"
	"snowfield/protocol"
)

// KeyState is a settable Input.
type KeyState map[Key]bool

func (k KeyState) Pressed(key Key) bool { return k[key] }

// Script decides the held keys for a frame and whether to throw.
type Script func(frame int, keys KeyState) (throw bool)

// Wander walks in a square, hops every two seconds and throws every five
// (at 60 frames per second).
func Wander(frame int, keys KeyState) bool {
	for k := range keys {
		delete(keys, k)
	}
	switch (frame / 120) % 4 {
	case 0:
		keys[KeyForward] = true
	case 1:
		keys[KeyRight] = true
	case 2:
		keys[KeyBack] = true
	case 3:
		keys[KeyLeft] = true
	}
	if frame%120 < 3 {
		keys[KeyJump] = true
	}
	return frame%300 == 299
}

// Bot is a headless client running the full frame loop: physics step, local
// controller, inbound messages, remote reconciliation and snowballs.
type Bot struct {
	conn      *Conn
	log       *zap.SugaredLogger
	script    Script
	keys      KeyState
	body      *KinematicBody
	ground    *GroundChecker
	ctrl      *Controller
	remote    *RemoteManager
	chat      *ChatLog
	snowballs *SnowballManager
	dispatch  *Dispatcher
}

// NewBot wires client components around an established connection. The
// chat log keeps cfg.Chat.History lines.
func NewBot(conn *Conn, root *config.Config, script Script, log *zap.SugaredLogger) *Bot {
	cfg := root.Client
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if script == nil {
		script = Wander
	}
	b := &Bot{
		conn:      conn,
		log:       log,
		script:    script,
		keys:      KeyState{},
		snowballs: NewSnowballManager(DefaultSnowballConfig()),
		chat:      NewChatLog(root.Chat.History),
	}
	b.ground = NewGroundChecker(PlayerBody, cfg.GroundThreshold, cfg.GracePeriod)
	b.body = NewKinematicBody(geom.V(0, 1, 0), b.ground)

	rc := DefaultRemoteConfig()
	rc.Interpolation = cfg.Interpolation
	rc.RotationSpeed = cfg.RotationSpeed
	rc.ExtrapolationWeight = cfg.ExtrapolationWeight
	rc.RejectStale = cfg.RejectStale
	b.remote = NewRemoteManager(rc, func(Identity) *Animator {
		return NewAnimator(DefaultAnimConfig(), nil, nil)
	}, b.snowballs)

	cc := DefaultControllerConfig()
	cc.MovementSpeed = cfg.MovementSpeed
	cc.JumpSpeed = cfg.JumpSpeed
	cc.MoveInterval = cfg.MoveInterval
	b.ctrl = NewController(cc, ControllerDeps{
		Body:     b.body,
		Ground:   b.ground,
		Input:    b.keys,
		Animator: NewAnimator(DefaultAnimConfig(), nil, nil),
		Effects:  b.snowballs,
		Send: func(a protocol.PlayerAction) {
			_ = conn.SendAction(a)
		},
	})
	b.dispatch = &Dispatcher{Self: conn.Self().PlayerID, Remote: b.remote, Chat: b.chat}
	b.chat.OnError(func(msg string) { log.Warnf("chat rejected: %s", msg) })
	return b
}

// Chat exposes the bot's chat history.
func (b *Bot) Chat() *ChatLog { return b.chat }

// Remote exposes the reconciled view of other players.
func (b *Bot) Remote() *RemoteManager { return b.remote }

// Frame runs one iteration of the loop.
func (b *Bot) Frame(frame int, dt time.Duration) {
	b.body.Step(dt.Seconds())
	if b.script(frame, b.keys) {
		b.ctrl.Throw(b.ctrl.Yaw())
	}
	b.ctrl.Update()
	b.conn.Poll(b.dispatch.Handle)
	b.remote.Tick(dt)
	for _, h := range b.snowballs.Update(dt, b.remote.Positions()) {
		b.log.Debugf("snowball hit %s", h.PlayerID)
	}
}

// Run drives frames at the given interval until ctx is done or the
// connection closes.
func (b *Bot) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for frame := 0; ; frame++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.conn.Done():
			return ErrNotConnected
		case now := <-ticker.C:
			b.Frame(frame, now.Sub(last))
			last = now
		}
	}
}
