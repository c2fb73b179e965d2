package math

import "math"

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WrapAngle folds an angle into the open interval (-2π, 2π) without
// changing its direction modulo a full turn.
func WrapAngle(rad float64) float64 {
	return math.Mod(rad, 2*math.Pi)
}

// NearestAngle returns the angle equivalent to target (modulo 2π) that is
// closest to from, so an interpolation between them takes the short way round.
func NearestAngle(from, target float64) float64 {
	d := math.Mod(target-from, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d < -math.Pi {
		d += 2 * math.Pi
	}
	return from + d
}
