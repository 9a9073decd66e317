package models

import (
	"math"
	"sort"
	"time"

	"github.com/seenimoa/jyotish/pkg/utils"
)

// PlanetPosition is a sidereal snapshot of one body at one instant.
type PlanetPosition struct {
	Longitude      float64 `json:"longitude"` // [0,360)
	Latitude       float64 `json:"latitude"`
	Speed          float64 `json:"speed"` // degrees/day, negative when retrograde
	RightAscension float64 `json:"ra"`
	Declination    float64 `json:"decl"`
	Retrograde     bool    `json:"retrograde"`
}

// NewPlanetPosition normalises the longitude and derives the retrograde flag.
func NewPlanetPosition(longitude, latitude, speed, ra, decl float64) PlanetPosition {
	return PlanetPosition{
		Longitude:      utils.Normalize(longitude),
		Latitude:       latitude,
		Speed:          speed,
		RightAscension: ra,
		Declination:    decl,
		Retrograde:     speed < 0,
	}
}

// Sign returns the sign occupied by the position.
func (p PlanetPosition) Sign() Sign {
	return SignOf(p.Longitude)
}

// PositionRow is one row of the positions table.
type PositionRow struct {
	Planet Body `json:"planet"`
	PlanetPosition
}

// PositionRows flattens a position map in PrimaryBodies order, followed by any
// other bodies sorted by name.
func PositionRows(positions map[Body]PlanetPosition) []PositionRow {
	rows := make([]PositionRow, 0, len(positions))
	seen := make(map[Body]bool, len(positions))
	for _, b := range append(append([]Body{}, PrimaryBodies...), Upagrahas...) {
		if p, ok := positions[b]; ok {
			rows = append(rows, PositionRow{Planet: b, PlanetPosition: p})
			seen[b] = true
		}
	}
	var rest []Body
	for b := range positions {
		if !seen[b] {
			rest = append(rest, b)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, b := range rest {
		rows = append(rows, PositionRow{Planet: b, PlanetPosition: positions[b]})
	}
	return rows
}

// Longitudes extracts the longitude of every body.
func Longitudes(positions map[Body]PlanetPosition) map[Body]float64 {
	out := make(map[Body]float64, len(positions))
	for b, p := range positions {
		out[b] = p.Longitude
	}
	return out
}

// HouseCusps holds the twelve cusps plus Ascendant and Midheaven.
// Cusp arcs are not guaranteed to be equal or monotonic.
type HouseCusps struct {
	Cusps [12]float64 `json:"cusps"`
	Asc   float64     `json:"asc"`
	MC    float64     `json:"mc"`
}

// House returns the cusp longitude of house n (1-12).
func (h HouseCusps) House(n int) float64 {
	return h.Cusps[((n-1)%12+12)%12]
}

// HouseOf returns the whole-sign-distance house (1-12) of a longitude counted
// from the first cusp.
func (h HouseCusps) HouseOf(longitude float64) int {
	d := math.Mod(longitude-h.Cusps[0]+360, 360)
	if d < 0 {
		d += 360
	}
	return int(d/30)%12 + 1
}

// Lord returns the ruler of the sign on the cusp of house n.
func (h HouseCusps) Lord(n int) Body {
	return SignOf(h.House(n)).Ruler()
}

// Location is a geographic observer position in degrees (east positive).
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RiseSet carries sunrise and sunset for one local date.
type RiseSet struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

// Daily inauspicious period names.
const (
	RahuKalam   = "Rahu Kalam"
	Yamaganda   = "Yamaganda"
	GulikaKalam = "Gulika Kalam"
)

// DailyPeriod is a named interval with Start < End.
type DailyPeriod struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies in [Start, End).
func (p DailyPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}
