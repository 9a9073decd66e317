package ephemeris

import (
	"strings"
	"time"
)

// DefaultAyanamsa is used for empty or unknown names.
const DefaultAyanamsa = "lahiri"

// Backend sidereal-mode codes.
var ayanamsaCodes = map[string]int{
	"lahiri":       1,
	"raman":        2,
	"krishnamurti": 5,
}

// Mean ayanamsa at J2000.0 in degrees, used by the approximate strategy.
var ayanamsaJ2000 = map[string]float64{
	"lahiri":       23.853,
	"raman":        22.411,
	"krishnamurti": 23.757,
}

// General precession in degrees per Julian year (50.29").
const precessionPerYear = 50.29 / 3600

// ResolveAyanamsa canonicalises a name and returns its backend code.
func ResolveAyanamsa(name string) (string, int) {
	n := strings.ToLower(strings.TrimSpace(name))
	if code, ok := ayanamsaCodes[n]; ok {
		return n, code
	}
	return DefaultAyanamsa, ayanamsaCodes[DefaultAyanamsa]
}

// AyanamsaNames lists the supported names.
func AyanamsaNames() []string {
	return []string{"lahiri", "raman", "krishnamurti"}
}

// approximateAyanamsa returns a linear precession estimate for a Julian Day.
func approximateAyanamsa(name string, jd float64) float64 {
	n, _ := ResolveAyanamsa(name)
	years := (jd - j2000) / 365.25
	return ayanamsaJ2000[n] + years*precessionPerYear
}

// AyanamsaAt returns the mean (linear) ayanamsa in degrees at t.
func AyanamsaAt(name string, t time.Time) float64 {
	return approximateAyanamsa(name, JulianDay(t))
}
