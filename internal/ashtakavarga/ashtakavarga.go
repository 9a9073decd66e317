// Package ashtakavarga tabulates the eight-source bindu charts for the seven
// classical planets and aggregates them into the composite chart.
package ashtakavarga

import (
	"math"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// Planets are the seven target charts, in table order.
var Planets = []models.Body{
	models.Sun, models.Moon, models.Mars, models.Mercury,
	models.Jupiter, models.Venus, models.Saturn,
}

// Contributors are the eight bindu sources: the seven planets and the ascendant.
var Contributors = append(append([]models.Body{}, Planets...), models.Ascendant)

// rules[target][contributor] marks, for each house offset from the
// contributor's sign, whether a bindu is given. Contributor order follows
// Contributors.
var rules = map[models.Body][8][12]int{
	models.Sun: {
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Sun
		{0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 1, 0}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Mars
		{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1}, // Mercury
		{0, 0, 0, 0, 1, 1, 0, 0, 1, 0, 1, 1}, // Jupiter
		{0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, // Venus
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
	models.Moon: {
		{0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 1, 0}, // Sun
		{1, 0, 0, 1, 0, 1, 0, 0, 1, 1, 0, 1}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Mars
		{0, 1, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0}, // Mercury
		{0, 0, 0, 0, 1, 1, 0, 1, 1, 0, 1, 1}, // Jupiter
		{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1}, // Venus
		{1, 0, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
	models.Mars: {
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Sun
		{0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 1, 0}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Mars
		{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 0}, // Mercury
		{0, 0, 0, 0, 1, 1, 0, 0, 1, 0, 1, 1}, // Jupiter
		{0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 1}, // Venus
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
	models.Mercury: {
		{1, 0, 0, 1, 0, 1, 0, 0, 0, 1, 1, 0}, // Sun
		{0, 1, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Mars
		{1, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1}, // Mercury
		{0, 0, 0, 0, 1, 1, 0, 1, 1, 0, 1, 1}, // Jupiter
		{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1}, // Venus
		{1, 0, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
	models.Jupiter: {
		{0, 0, 1, 0, 0, 1, 0, 0, 1, 1, 1, 0}, // Sun
		{0, 1, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Mars
		{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1}, // Mercury
		{1, 0, 0, 0, 1, 1, 0, 1, 1, 0, 1, 1}, // Jupiter
		{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1}, // Venus
		{1, 0, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
	models.Venus: {
		{0, 0, 1, 0, 0, 1, 0, 0, 1, 1, 0, 0}, // Sun
		{0, 0, 1, 0, 1, 1, 0, 0, 1, 1, 1, 0}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Mars
		{0, 1, 1, 0, 1, 1, 0, 0, 1, 1, 1, 1}, // Mercury
		{0, 0, 0, 0, 1, 1, 0, 1, 1, 0, 1, 1}, // Jupiter
		{1, 0, 0, 0, 0, 0, 1, 0, 0, 0, 1, 1}, // Venus
		{1, 0, 0, 1, 0, 0, 1, 1, 1, 1, 0, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
	models.Saturn: {
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Sun
		{0, 0, 1, 0, 0, 1, 0, 0, 0, 1, 1, 0}, // Moon
		{1, 1, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Mars
		{0, 1, 0, 0, 1, 1, 0, 0, 1, 1, 1, 1}, // Mercury
		{0, 0, 0, 0, 1, 1, 0, 1, 1, 0, 1, 1}, // Jupiter
		{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 1}, // Venus
		{1, 0, 0, 1, 0, 0, 1, 1, 1, 1, 1, 0}, // Saturn
		{0, 0, 1, 1, 0, 1, 0, 0, 0, 1, 1, 1}, // Asc
	},
}

// Row is one line of a bindu table.
type Row struct {
	Body   models.Body `json:"body"`
	Bindus [12]int     `json:"bindus"` // index 0 = Aries (house 1)
}

// Sum returns the total bindus across the row.
func (r Row) Sum() int {
	n := 0
	for _, b := range r.Bindus {
		n += b
	}
	return n
}

// Chart is the Bhinnashtakavarga of one target planet.
type Chart struct {
	Planet models.Body `json:"planet"`
	Rows   []Row       `json:"rows"` // one per contributor
	Total  [12]int     `json:"total"`
}

// Row returns the contributor row for b.
func (c *Chart) Row(b models.Body) (Row, bool) {
	for _, r := range c.Rows {
		if r.Body == b {
			return r, true
		}
	}
	return Row{}, false
}

// SarvaChart is the composite chart: one Total row per target planet plus the
// overall Total.
type SarvaChart struct {
	Rows  []Row   `json:"rows"`
	Total [12]int `json:"total"`
}

// Bindus returns the bindus of body's row in sign s. Unknown bodies score 0.
func (s *SarvaChart) Bindus(body models.Body, sign models.Sign) int {
	for _, r := range s.Rows {
		if r.Body == body {
			return r.Bindus[sign.Index()]
		}
	}
	return 0
}

func signIndex(lon float64) int {
	return int(math.Floor(lon/30)) % 12
}

// Bhinnashtakavarga builds the per-planet charts. Contributors missing from
// longitudes leave their row empty.
func Bhinnashtakavarga(longitudes map[models.Body]float64, ascendant float64) map[models.Body]*Chart {
	sources := make(map[models.Body]float64, len(Contributors))
	for _, b := range Planets {
		if lon, ok := longitudes[b]; ok {
			sources[b] = utils.Normalize(lon)
		}
	}
	sources[models.Ascendant] = utils.Normalize(ascendant)

	out := make(map[models.Body]*Chart, len(Planets))
	for _, target := range Planets {
		table := rules[target]
		chart := &Chart{Planet: target, Rows: make([]Row, len(Contributors))}
		for i, contributor := range Contributors {
			row := Row{Body: contributor}
			if lon, ok := sources[contributor]; ok {
				base := signIndex(lon)
				for offset, gives := range table[i] {
					if gives == 1 {
						row.Bindus[(base+offset)%12] = 1
					}
				}
			}
			for h, b := range row.Bindus {
				chart.Total[h] += b
			}
			chart.Rows[i] = row
		}
		out[target] = chart
	}
	return out
}

// Sarvashtakavarga sums the per-planet Total rows.
func Sarvashtakavarga(charts map[models.Body]*Chart) *SarvaChart {
	sav := &SarvaChart{Rows: make([]Row, 0, len(Planets))}
	for _, p := range Planets {
		row := Row{Body: p}
		if c, ok := charts[p]; ok && c != nil {
			row.Bindus = c.Total
		}
		for h, b := range row.Bindus {
			sav.Total[h] += b
		}
		sav.Rows = append(sav.Rows, row)
	}
	return sav
}
