package utils

import "math"

// Normalize reduces an angle into [0,360).
func Normalize(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// AngularDistance returns the shortest arc between two longitudes, in [0,180].
func AngularDistance(a, b float64) float64 {
	return math.Abs(math.Mod(math.Mod(a-b+180, 360)+360, 360) - 180)
}

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
