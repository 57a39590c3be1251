package geom

import "math"

// ShortestAngle returns the signed difference target-current wrapped into
// [-pi, pi], i.e. the shorter arc between the two yaws.
func ShortestAngle(current, target float64) float64 {
	d := target - current
	return math.Atan2(math.Sin(d), math.Cos(d))
}

// LerpAngle eases current toward target along the shorter arc.
func LerpAngle(current, target, k float64) float64 {
	return current + ShortestAngle(current, target)*k
}

// YawOf is the Y-axis yaw that faces along the XZ direction of v.
func YawOf(v Vec3) float64 { return math.Atan2(v.X, v.Z) }

// Heading is the unit XZ direction for a yaw, the inverse of YawOf.
func Heading(yaw float64) Vec3 { return Vec3{math.Sin(yaw), 0, math.Cos(yaw)} }
