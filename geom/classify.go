package geom

import "math"

// Exceeds reports whether v is strictly above threshold.
func Exceeds(v, threshold float64) bool { return v > threshold }

// FallsBelow reports whether v is strictly below threshold.
func FallsBelow(v, threshold float64) bool { return v < threshold }

// MagnitudeExceeds compares |v| against threshold.
func MagnitudeExceeds(v, threshold float64) bool { return math.Abs(v) > threshold }

// UpFacing flips a contact normal so it points away from the surface
// (non-negative Y).
func UpFacing(n Vec3) Vec3 {
	if n.Y < 0 {
		return n.Neg()
	}
	return n
}

// IsWalkable reports whether a contact normal is flat enough to stand on.
func IsWalkable(n Vec3, threshold float64) bool {
	return Exceeds(UpFacing(n).Y, threshold)
}

