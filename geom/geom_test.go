package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortestAngleTakesShorterArc(t *testing.T) {
	d := ShortestAngle(3.0, -3.0)
	// naive subtraction gives -6, the short way goes through +pi
	assert.Greater(t, d, 0.0)
	assert.InDelta(t, 2*math.Pi-6.0, d, 1e-9)

	d = ShortestAngle(-3.0, 3.0)
	assert.Less(t, d, 0.0)
}

func TestShortestAngleWithinPi(t *testing.T) {
	for _, c := range []struct{ from, to float64 }{
		{0, 0}, {0, math.Pi / 2}, {1, 7}, {-10, 10}, {100, -100},
	} {
		d := ShortestAngle(c.from, c.to)
		assert.LessOrEqual(t, math.Abs(d), math.Pi+1e-12, "from %v to %v", c.from, c.to)
	}
}

func TestLerpAngle(t *testing.T) {
	got := LerpAngle(0, 1, 0.5)
	assert.InDelta(t, 0.5, got, 1e-12)
}

func TestVecNormalize(t *testing.T) {
	assert.Equal(t, Zero, Zero.Normalize())
	n := V(3, 0, 4).Normalize()
	assert.InDelta(t, 1.0, n.Length(), 1e-12)
	assert.InDelta(t, 0.6, n.X, 1e-12)
}

func TestVecHelpers(t *testing.T) {
	v := V(1, 2, 3)
	assert.Equal(t, V(1, 0, 3), v.Flat())
	assert.Equal(t, V(3, 6, 9), v.AddScaled(v, 2))
	assert.InDelta(t, math.Hypot(1, 3), v.HorizontalLength(), 1e-12)
	assert.True(t, v.IsFinite())
	assert.False(t, V(math.NaN(), 0, 0).IsFinite())
	assert.Equal(t, V(0.5, 1, 1.5), Zero.Lerp(v, 0.5))
}

func TestHeadingRoundTrip(t *testing.T) {
	yaw := 0.7
	assert.InDelta(t, yaw, YawOf(Heading(yaw)), 1e-12)
}

func TestWalkable(t *testing.T) {
	assert.True(t, IsWalkable(V(0, 1, 0), 0.3))
	assert.True(t, IsWalkable(V(0, -1, 0), 0.3), "normals pointing into the surface are flipped")
	assert.False(t, IsWalkable(V(1, 0.2, 0), 0.3))
	assert.False(t, IsWalkable(V(1, 0, 0), 0.3))
}
