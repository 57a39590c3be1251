package client

import (
	"strings"
	"time"

	"snowfield/geom"
)

// AnimState is the discrete animation an entity is showing.
type AnimState int

const (
	AnimIdle AnimState = iota
	AnimWalk
	AnimJump
	AnimFall
)

func (s AnimState) String() string {
	switch s {
	case AnimIdle:
		return "idle"
	case AnimWalk:
		return "walk"
	case AnimJump:
		return "jump"
	case AnimFall:
		return "fall"
	}
	return "unknown"
}

// Looping reports whether the state's clip repeats. Non-looping clips hold
// their last frame when finished.
func (s AnimState) Looping() bool { return s != AnimJump }

// clipCandidates are tried in order against the model's clip names.
var clipCandidates = map[AnimState][]string{
	AnimIdle: {"stand", "idle"},
	AnimWalk: {"walk", "run"},
	AnimJump: {"jump", "falling"},
	AnimFall: {"fall", "falling"},
}

// PlayOptions describes one crossfade.
type PlayOptions struct {
	From              string // empty when nothing was playing
	Blend             time.Duration
	Loop              bool
	ClampWhenFinished bool
}

// Mixer plays animation clips; implemented by the renderer.
type Mixer interface {
	Play(clip string, opts PlayOptions)
}

// AnimConfig tunes classification and debouncing.
type AnimConfig struct {
	IdleThreshold    float64
	FallingThreshold float64
	AirborneFrames   int
	GroundedFrames   int
	Blend            time.Duration
}

// DefaultAnimConfig matches the reference feel.
func DefaultAnimConfig() AnimConfig {
	return AnimConfig{
		IdleThreshold:    0.5,
		FallingThreshold: -2.0,
		AirborneFrames:   3,
		GroundedFrames:   2,
		Blend:            100 * time.Millisecond,
	}
}

// Animator maps continuous velocity and ground signals to a debounced
// AnimState and drives crossfades on a Mixer.
type Animator struct {
	cfg   AnimConfig
	mixer Mixer
	clips map[string]string // lowercase -> original clip name

	state         AnimState
	currentClip   string
	wasGrounded   bool
	airborneCount int
	groundedCount int

	// OnChange, when set, is called after every state transition.
	OnChange func(prev, cur AnimState)
}

// NewAnimator indexes the available clip names. mixer may be nil for
// entities without a rig; state is still tracked.
func NewAnimator(cfg AnimConfig, mixer Mixer, clipNames []string) *Animator {
	a := &Animator{
		cfg:         cfg,
		mixer:       mixer,
		clips:       make(map[string]string, len(clipNames)),
		state:       AnimIdle,
		wasGrounded: true,
	}
	for _, n := range clipNames {
		a.clips[strings.ToLower(n)] = n
	}
	return a
}

// State is the active animation.
func (a *Animator) State() AnimState { return a.state }

// Start plays the idle clip without a crossfade.
func (a *Animator) Start() { a.play(AnimIdle) }

// Update classifies one frame. Counters advance on every call even when the
// resulting state does not change.
func (a *Animator) Update(horizontalSpeed, verticalVelocity float64, grounded bool) {
	if grounded {
		a.groundedCount = min(a.groundedCount+1, a.cfg.GroundedFrames)
		a.airborneCount = 0
	} else {
		a.airborneCount = min(a.airborneCount+1, a.cfg.AirborneFrames)
		a.groundedCount = 0
	}
	effectivelyGrounded := a.groundedCount >= a.cfg.GroundedFrames
	effectivelyAirborne := a.airborneCount >= a.cfg.AirborneFrames

	switch {
	case a.wasGrounded && !grounded:
		a.transition(AnimJump)
	case effectivelyAirborne:
		if geom.FallsBelow(verticalVelocity, a.cfg.FallingThreshold) {
			a.transition(AnimFall)
		}
	case effectivelyGrounded:
		if geom.MagnitudeExceeds(horizontalSpeed, a.cfg.IdleThreshold) {
			a.transition(AnimWalk)
		} else {
			a.transition(AnimIdle)
		}
	}
	a.wasGrounded = grounded
}

func (a *Animator) transition(next AnimState) {
	if next == a.state {
		return
	}
	prev := a.state
	a.state = next
	a.play(next)
	if a.OnChange != nil {
		a.OnChange(prev, next)
	}
}

func (a *Animator) play(s AnimState) {
	clip, ok := a.resolve(s)
	if !ok || a.mixer == nil {
		return
	}
	opts := PlayOptions{
		Blend:             a.cfg.Blend,
		Loop:              s.Looping(),
		ClampWhenFinished: !s.Looping(),
	}
	if a.currentClip != clip {
		opts.From = a.currentClip
	}
	a.mixer.Play(clip, opts)
	a.currentClip = clip
}

func (a *Animator) resolve(s AnimState) (string, bool) {
	for _, name := range clipCandidates[s] {
		if clip, ok := a.clips[name]; ok {
			return clip, true
		}
	}
	return "", false
}
