package models

import (
	"fmt"
	"math"
	"strings"
)

// Sign is a zodiac sign index, Aries = 0 through Pisces = 11.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Standard rulerships, indexed by sign.
var signRulers = [12]Body{
	Mars, Venus, Mercury, Moon, Sun, Mercury,
	Venus, Mars, Jupiter, Saturn, Saturn, Jupiter,
}

// String returns the sign name.
func (s Sign) String() string {
	return signNames[s.Index()]
}

// Index returns the sign reduced into [0,12).
func (s Sign) Index() int {
	return ((int(s) % 12) + 12) % 12
}

// Ruler returns the classical lord of the sign.
func (s Sign) Ruler() Body {
	return signRulers[s.Index()]
}

// IsOdd reports whether the sign is odd-counted (Aries, Gemini, ...).
func (s Sign) IsOdd() bool {
	return s.Index()%2 == 0
}

// SignOf returns the sign containing an ecliptic longitude.
func SignOf(longitude float64) Sign {
	l := math.Mod(longitude, 360)
	if l < 0 {
		l += 360
	}
	return Sign(int(l/30) % 12)
}

// ParseSign resolves a sign name case-insensitively.
func ParseSign(name string) (Sign, error) {
	for i, n := range signNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Sign(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sign %q", name)
}

// MarshalText encodes a sign by name.
func (s Sign) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a sign name.
func (s *Sign) UnmarshalText(b []byte) error {
	v, err := ParseSign(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
