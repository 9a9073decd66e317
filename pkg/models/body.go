// Package models defines the core value types shared by the jyotish engines.
package models

import (
	"fmt"
	"strings"
)

// Body names a celestial body or computed point.
type Body string

const (
	Sun     Body = "Sun"
	Moon    Body = "Moon"
	Mercury Body = "Mercury"
	Venus   Body = "Venus"
	Mars    Body = "Mars"
	Jupiter Body = "Jupiter"
	Saturn  Body = "Saturn"
	Uranus  Body = "Uranus"
	Neptune Body = "Neptune"
	Pluto   Body = "Pluto"
	Rahu    Body = "Rahu"
	Ketu    Body = "Ketu"

	// Upagrahas (shadow points).
	Gulika Body = "Gulika"
	Mandi  Body = "Mandi"

	// Ascendant is used as an Ashtakavarga contributor.
	Ascendant Body = "Asc"
)

// PrimaryBodies is the ordered set returned by an ephemeris position query.
var PrimaryBodies = []Body{
	Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn,
	Uranus, Neptune, Pluto, Rahu, Ketu,
}

// Upagrahas lists the shadow points computed from daylight segments.
var Upagrahas = []Body{Gulika, Mandi}

// SevenPlanets is the classical set scored by the strength engine.
var SevenPlanets = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn}

// DashaLords is the fixed cyclic Vimshottari order.
var DashaLords = []Body{Ketu, Venus, Sun, Moon, Mars, Rahu, Jupiter, Saturn, Mercury}

// IsPrimary reports whether b is one of PrimaryBodies.
func (b Body) IsPrimary() bool {
	for _, p := range PrimaryBodies {
		if p == b {
			return true
		}
	}
	return false
}

// ParseBody resolves a body name case-insensitively.
func ParseBody(name string) (Body, error) {
	n := strings.TrimSpace(name)
	all := append(append(append([]Body{}, PrimaryBodies...), Upagrahas...), Ascendant)
	for _, b := range all {
		if strings.EqualFold(string(b), n) {
			return b, nil
		}
	}
	if strings.EqualFold(n, "ascendant") || strings.EqualFold(n, "lagna") {
		return Ascendant, nil
	}
	return "", fmt.Errorf("unknown body %q", name)
}
