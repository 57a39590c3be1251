package geom

import "math"

// Vec3 world-space position or velocity.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Zero is the origin.
var Zero = Vec3{}

func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{v.X * k, v.Y * k, v.Z * k}
}
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }

// AddScaled returns v + o*k.
func (v Vec3) AddScaled(o Vec3, k float64) Vec3 {
	return Vec3{v.X + o.X*k, v.Y + o.Y*k, v.Z + o.Z*k}
}

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// HorizontalLength is the magnitude of the XZ projection.
func (v Vec3) HorizontalLength() float64 { return math.Hypot(v.X, v.Z) }

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 { return Vec3{v.X, 0, v.Z} }

// Normalize returns the unit vector, or the zero vector when v has no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-9 {
		return Zero
	}
	return v.Scale(1 / l)
}

// Lerp moves v toward target by factor k.
func (v Vec3) Lerp(target Vec3, k float64) Vec3 {
	return v.Add(target.Sub(v).Scale(k))
}

func (v Vec3) DistanceTo(o Vec3) float64 { return v.Sub(o).Length() }

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
