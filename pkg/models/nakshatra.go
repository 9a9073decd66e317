package models

import "math"

// NakshatraSpan is the arc of one lunar mansion, 13°20'.
const NakshatraSpan = 40.0 / 3

// NakshatraOf returns the 0-based lunar mansion (0-26) containing a longitude.
func NakshatraOf(longitude float64) int {
	l := math.Mod(longitude, 360)
	if l < 0 {
		l += 360
	}
	return int(l/NakshatraSpan) % 27
}
