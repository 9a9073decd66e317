// Package varga maps zodiacal longitudes into divisional chart (Dn) signs.
package varga

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/seenimoa/jyotish/pkg/models"
)

// ErrUnknownDivision is returned for division identifiers outside Divisions.
var ErrUnknownDivision = errors.New("unknown division")

// Division is the number of parts each sign is split into (D9 = 9).
type Division int

// Divisions lists every supported division in display order.
var Divisions = []Division{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 16, 20, 24, 27, 30, 40, 45, 60}

// Named divisions used elsewhere in the engine.
const (
	Rasi       Division = 1
	Hora       Division = 2
	Drekkana   Division = 3
	Saptamsa   Division = 7
	Navamsa    Division = 9
	Dwadasamsa Division = 12
	Trimsamsa  Division = 30
)

// Valid reports whether d is one of Divisions.
func (d Division) Valid() bool {
	for _, v := range Divisions {
		if v == d {
			return true
		}
	}
	return false
}

// String returns the "Dn" identifier.
func (d Division) String() string {
	return "D" + strconv.Itoa(int(d))
}

// MarshalText encodes the division as "Dn".
func (d Division) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a "Dn" identifier.
func (d *Division) UnmarshalText(b []byte) error {
	v, err := ParseDivision(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDivision accepts "D9", "d9" or "9".
func ParseDivision(s string) (Division, error) {
	raw := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "D")
	n, err := strconv.Atoi(raw)
	if err != nil || !Division(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDivision, s)
	}
	return Division(n), nil
}

// ParseDivisions parses a list of identifiers, failing on the first unknown one.
func ParseDivisions(names []string) ([]Division, error) {
	out := make([]Division, 0, len(names))
	for _, n := range names {
		d, err := ParseDivision(n)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Placement is one body's position in one divisional chart.
type Placement struct {
	Planet   models.Body `json:"Planet"`
	Sign     models.Sign `json:"Sign"`
	Degree   float64     `json:"Degree"` // [0,30)
	Ruler    models.Body `json:"Ruler"`
	Division Division    `json:"Division"`
}

// Chart maps division to body to placement.
type Chart map[Division]map[models.Body]Placement

func within(lon float64) float64 {
	l := math.Mod(lon, 30)
	if l < 0 {
		l += 30
	}
	return l
}

func part(lon float64, d Division) int {
	span := 30 / float64(d)
	return int(math.Floor(within(lon)/span)) % int(d)
}

// SignFor returns the sign a longitude falls in for division d. Unknown
// divisions fall through to the uniform rule.
func SignFor(d Division, lon float64) models.Sign {
	sign := models.SignOf(lon).Index()
	n := int(d)
	if n <= 1 {
		return models.Sign(sign)
	}
	p := part(lon, d)
	switch d {
	case Drekkana:
		return models.Sign((sign + p*4) % 12)
	case Navamsa:
		return models.Sign((sign*9 + p) % 12)
	}
	target := (sign*n + p) % (12 * n)
	return models.Sign((target / n) % 12)
}

// Degree returns the position within the resulting sign, rescaled to [0,30).
func Degree(d Division, lon float64) float64 {
	if d <= 1 {
		return within(lon)
	}
	span := 30 / float64(d)
	deg := (within(lon) - float64(part(lon, d))*span) / span * 30
	if deg < 0 || deg >= 30 {
		deg = 0
	}
	return deg
}

// Place computes a single placement.
func Place(d Division, body models.Body, lon float64) Placement {
	s := SignFor(d, lon)
	return Placement{
		Planet:   body,
		Sign:     s,
		Degree:   Degree(d, lon),
		Ruler:    s.Ruler(),
		Division: d,
	}
}

// Compute places every body in every requested division. A nil divs selects
// all Divisions.
func Compute(divs []Division, longitudes map[models.Body]float64) (Chart, error) {
	if divs == nil {
		divs = Divisions
	}
	out := make(Chart, len(divs))
	for _, d := range divs {
		if !d.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownDivision, d)
		}
		row := make(map[models.Body]Placement, len(longitudes))
		for body, lon := range longitudes {
			row[body] = Place(d, body, lon)
		}
		out[d] = row
	}
	return out, nil
}

// SignOf returns the placement sign of body in division d, and whether it exists.
func (c Chart) SignOf(d Division, body models.Body) (models.Sign, bool) {
	p, ok := c[d][body]
	return p.Sign, ok
}

// Rows flattens the chart by division then body order.
func (c Chart) Rows() []Placement {
	divs := make([]Division, 0, len(c))
	for d := range c {
		divs = append(divs, d)
	}
	sort.Slice(divs, func(i, j int) bool { return divs[i] < divs[j] })

	var rows []Placement
	for _, d := range divs {
		rows = append(rows, sortedPlacements(c[d])...)
	}
	return rows
}

// Table returns each division's placements keyed by "Dn", ordered by body.
func (c Chart) Table() map[string][]Placement {
	out := make(map[string][]Placement, len(c))
	for d, row := range c {
		out[d.String()] = sortedPlacements(row)
	}
	return out
}

func sortedPlacements(row map[models.Body]Placement) []Placement {
	rank := make(map[models.Body]int)
	for i, b := range append(append([]models.Body{}, models.PrimaryBodies...), models.Upagrahas...) {
		rank[b] = i + 1
	}
	out := make([]Placement, 0, len(row))
	for _, p := range row {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].Planet], rank[out[j].Planet]
		if ri == 0 {
			ri = len(rank) + 1
		}
		if rj == 0 {
			rj = len(rank) + 1
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].Planet < out[j].Planet
	})
	return out
}

// HoraLord returns the Sun or Moon hora of a longitude: odd signs start with
// the Sun, even signs with the Moon.
func HoraLord(lon float64) models.Body {
	first := part(lon, Hora) == 0
	if models.SignOf(lon).IsOdd() == first {
		return models.Sun
	}
	return models.Moon
}
