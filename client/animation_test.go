package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMixer struct {
	plays []string
	opts  []PlayOptions
}

func (m *recordingMixer) Play(clip string, opts PlayOptions) {
	m.plays = append(m.plays, clip)
	m.opts = append(m.opts, opts)
}

var rigClips = []string{"Idle", "Walk", "Jump", "Fall"}

func newAnimator() (*Animator, *recordingMixer) {
	m := &recordingMixer{}
	return NewAnimator(DefaultAnimConfig(), m, rigClips), m
}

func TestAnimatorWalkAndIdleAfterDebounce(t *testing.T) {
	a, _ := newAnimator()
	a.Update(3, 0, true)
	assert.Equal(t, AnimIdle, a.State(), "one grounded frame is not enough")
	a.Update(3, 0, true)
	assert.Equal(t, AnimWalk, a.State())
	a.Update(0.2, 0, true)
	assert.Equal(t, AnimIdle, a.State())
}

func TestAnimatorJumpIsEdgeTriggered(t *testing.T) {
	for _, vy := range []float64{10, 0, -50} {
		a, _ := newAnimator()
		a.Update(0, 0, true)
		a.Update(0, 0, true)
		a.Update(0, vy, false)
		assert.Equal(t, AnimJump, a.State(), "vy=%v", vy)
	}
}

func TestAnimatorFallNeedsDebouncedAirborne(t *testing.T) {
	a, _ := newAnimator()
	a.Update(0, 0, true)
	a.Update(0, -10, false) // jump
	a.Update(0, -10, false)
	assert.Equal(t, AnimJump, a.State(), "airborne counter below threshold")
	a.Update(0, -10, false)
	assert.Equal(t, AnimFall, a.State())
}

func TestAnimatorShortAirborneNeverFalls(t *testing.T) {
	cfg := DefaultAnimConfig()
	a, _ := newAnimator()
	a.Update(0, 0, true)
	a.Update(0, 0, true)
	for i := 0; i < cfg.AirborneFrames-1; i++ {
		a.Update(0, -100, false)
	}
	a.Update(0, -100, true)
	assert.NotEqual(t, AnimFall, a.State())
}

func TestAnimatorStaysInJumpWhileRising(t *testing.T) {
	a, _ := newAnimator()
	a.Update(0, 8, false) // was grounded initially
	for i := 0; i < 10; i++ {
		a.Update(0, 5, false)
	}
	assert.Equal(t, AnimJump, a.State())
}

func TestAnimatorCrossfades(t *testing.T) {
	a, m := newAnimator()
	a.Start()
	a.Update(3, 0, true)
	a.Update(3, 0, true)
	a.Update(3, 0, true) // no-op, already walking
	a.Update(0, 0, false)

	require.Equal(t, []string{"Idle", "Walk", "Jump"}, m.plays)
	assert.Equal(t, "", m.opts[0].From)
	assert.Equal(t, "Idle", m.opts[1].From)
	assert.True(t, m.opts[1].Loop)
	assert.False(t, m.opts[2].Loop)
	assert.True(t, m.opts[2].ClampWhenFinished)
	assert.Equal(t, DefaultAnimConfig().Blend, m.opts[2].Blend)
}

func TestAnimatorClipFallbacks(t *testing.T) {
	m := &recordingMixer{}
	a := NewAnimator(DefaultAnimConfig(), m, []string{"Stand", "Run", "Falling"})
	var changes []AnimState
	a.OnChange = func(_, cur AnimState) { changes = append(changes, cur) }

	a.Update(0, 0, false)
	for i := 0; i < 3; i++ {
		a.Update(0, -5, false)
	}
	assert.Equal(t, []string{"Falling", "Falling"}, m.plays)
	assert.Equal(t, []AnimState{AnimJump, AnimFall}, changes)
	assert.Equal(t, "", m.opts[1].From, "same clip restarts without a crossfade")
}

func TestAnimatorWithoutMixer(t *testing.T) {
	a := NewAnimator(DefaultAnimConfig(), nil, nil)
	a.Update(0, 0, false)
	assert.Equal(t, AnimJump, a.State())
	assert.Equal(t, "jump", a.State().String())
}
