// Package strength scores planets and houses: the six-fold Shadbala, house
// strength (Bhavabala) and the Ishta/Kashta balance.
//
// Temporal strength is a fixed bucket rather than the full classical
// computation, and aspectual strength uses a universal angular-distance
// tiering instead of per-planet special aspects.
package strength

import (
	"math"
	"slices"

	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/internal/varga"
	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// Divisions consulted for the seven-division (saptavargaja) component.
var SaptavargaDivisions = []varga.Division{
	varga.Rasi, varga.Hora, varga.Drekkana, varga.Saptamsa,
	varga.Navamsa, varga.Dwadasamsa, varga.Trimsamsa,
}

// defaultLordStrength stands in for a house lord with no Shadbala row.
const defaultLordStrength = 120.0

// Shadbala is one planet's component breakdown.
type Shadbala struct {
	Planet     models.Body `json:"Planet"`
	Sthana     float64     `json:"Sthana"`
	Dig        float64     `json:"Dig"`
	Kala       float64     `json:"Kala"`
	Ayana      float64     `json:"Ayana"`
	Cheshta    float64     `json:"Cheshta"`
	Naisargika float64     `json:"Naisargika"`
	Drig       float64     `json:"Drig"`
	Total      float64     `json:"Total"`
}

// HouseStrength is one Bhavabala row.
type HouseStrength struct {
	House    int         `json:"House"`
	Lord     models.Body `json:"Lord"`
	Strength float64     `json:"Strength"`
}

// IshtaKashta is one planet's auspicious/inauspicious balance.
type IshtaKashta struct {
	Planet models.Body `json:"Planet"`
	Ishta  float64     `json:"Ishta"`
	Kashta float64     `json:"Kashta"`
	Ratio  float64     `json:"Ratio"`
}

// Calculator scores one chart. It does not modify its inputs.
type Calculator struct {
	positions map[models.Body]models.PlanetPosition
	cusps     models.HouseCusps
	vargas    varga.Chart
}

// New returns a calculator over positions, house cusps and divisional signs.
// vargas may omit divisions; missing ones contribute nothing.
func New(positions map[models.Body]models.PlanetPosition, cusps models.HouseCusps, vargas varga.Chart) *Calculator {
	return &Calculator{positions: positions, cusps: cusps, vargas: vargas}
}

// scored returns the classical planets present in the chart, in fixed order.
func (c *Calculator) scored() []models.Body {
	out := make([]models.Body, 0, len(models.SevenPlanets))
	for _, b := range models.SevenPlanets {
		if _, ok := c.positions[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Shadbala returns one breakdown per classical planet present.
func (c *Calculator) Shadbala() []Shadbala {
	var rows []Shadbala
	for _, planet := range c.scored() {
		pos := c.positions[planet]
		s := Shadbala{
			Planet:     planet,
			Sthana:     c.sthana(planet, pos),
			Dig:        c.dig(planet, pos),
			Kala:       kala(planet),
			Ayana:      ayana(planet, pos),
			Cheshta:    cheshta(pos),
			Naisargika: innate[planet],
			Drig:       c.drig(planet),
		}
		s.Total = s.Sthana + s.Dig + s.Kala + s.Ayana + s.Cheshta + s.Naisargika + s.Drig
		rows = append(rows, s)
	}
	return rows
}

// Totals maps each scored planet to its Shadbala total.
func Totals(rows []Shadbala) map[models.Body]float64 {
	out := make(map[models.Body]float64, len(rows))
	for _, r := range rows {
		out[r.Planet] = r.Total
	}
	return out
}

func (c *Calculator) sthana(planet models.Body, pos models.PlanetPosition) float64 {
	return uchcha(planet, pos) +
		c.saptavargaja(planet) +
		c.ojaYugma(planet, pos) +
		c.kendradi(pos) +
		drekkana(planet, pos)
}

// uchcha grows by one unit per three degrees away from debilitation.
func uchcha(planet models.Body, pos models.PlanetPosition) float64 {
	ex, ok := exaltation[planet]
	if !ok {
		return 15
	}
	debil := utils.Normalize(ex + 180)
	return math.Min(60, utils.AngularDistance(pos.Longitude, debil)/3)
}

func relation(planet models.Body, sign models.Sign) relationship {
	ruler := sign.Ruler()
	switch {
	case ruler == planet:
		return relOwn
	case slices.Contains(friendship[planet].friends, ruler):
		return relFriend
	case slices.Contains(friendship[planet].enemies, ruler):
		return relEnemy
	default:
		return relNeutral
	}
}

func (c *Calculator) saptavargaja(planet models.Body) float64 {
	total := 0.0
	for _, d := range SaptavargaDivisions {
		sign, ok := c.vargas.SignOf(d, planet)
		if !ok {
			continue
		}
		total += vargaWeights[relation(planet, sign)]
	}
	return total
}

// ojaYugma rewards male planets in odd signs and female planets in even
// signs, in the birth chart and in the navamsa. Neutral planets gain only in
// an odd navamsa.
func (c *Calculator) ojaYugma(planet models.Body, pos models.PlanetPosition) float64 {
	g := genders[planet]
	score := 0.0
	odd := pos.Sign().IsOdd()
	if (g == male && odd) || (g == female && !odd) {
		score += 15
	}
	if nav, ok := c.vargas.SignOf(varga.Navamsa, planet); ok {
		navOdd := nav.IsOdd()
		switch {
		case g == male && navOdd, g == female && !navOdd:
			score += 15
		case g == neutral && navOdd:
			score += 10
		}
	}
	return score
}

func (c *Calculator) house(lon float64) int {
	return c.cusps.HouseOf(lon)
}

func (c *Calculator) kendradi(pos models.PlanetPosition) float64 {
	switch c.house(pos.Longitude) {
	case 1, 4, 7, 10:
		return 60
	case 2, 5, 8, 11:
		return 30
	default:
		return 15
	}
}

func drekkana(planet models.Body, pos models.PlanetPosition) float64 {
	decan := int(math.Mod(pos.Longitude, 30) / 10)
	switch g := genders[planet]; {
	case g == male && decan == 0, g == female && decan == 1, g == neutral && decan == 2:
		return 15
	default:
		return 7.5
	}
}

func (c *Calculator) dig(planet models.Body, pos models.PlanetPosition) float64 {
	opt, ok := digOptimum[planet]
	if !ok {
		return 15
	}
	h := c.house(pos.Longitude)
	d := min(((h-opt)%12+12)%12, ((opt-h)%12+12)%12)
	return math.Max(0, 60-float64(d)*10)
}

func kala(planet models.Body) float64 {
	switch planet {
	case models.Sun, models.Jupiter, models.Venus, models.Moon, models.Mars, models.Saturn:
		return 30
	default:
		return 20
	}
}

// ayana scales declination against the obliquity; northern declination
// strengthens Sun, Mars, Jupiter and Venus, southern strengthens Moon and Saturn.
func ayana(planet models.Body, pos models.PlanetPosition) float64 {
	const eps = ephemeris.Obliquity
	var v float64
	switch planet {
	case models.Sun, models.Mars, models.Jupiter, models.Venus:
		v = 30 * (eps + pos.Declination) / eps
	case models.Moon, models.Saturn:
		v = 30 * (eps - pos.Declination) / eps
	default:
		v = 30
	}
	return utils.Clamp(v, 0, 60)
}

func cheshta(pos models.PlanetPosition) float64 {
	switch {
	case pos.Speed < 0:
		return 60
	case pos.Speed < 0.5:
		return 30
	case pos.Speed < 1.0:
		return 20
	default:
		return 45
	}
}

func aspectStrength(a, b float64) float64 {
	switch d := utils.AngularDistance(a, b); {
	case d < 5:
		return 20
	case d < 30:
		return 10
	case d < 60:
		return 5
	default:
		return 0
	}
}

// drig sums benefic aspects and subtracts malefic ones; it may be negative.
func (c *Calculator) drig(planet models.Body) float64 {
	lon := c.positions[planet].Longitude
	total := 0.0
	for other, pos := range c.positions {
		if other == planet {
			continue
		}
		switch {
		case drigBenefics[other]:
			total += aspectStrength(lon, pos.Longitude)
		case drigMalefics[other]:
			total -= aspectStrength(lon, pos.Longitude)
		}
	}
	return total
}

// Bhavabala scores houses 1-12 from lord strength, occupants, aspects to the
// cusp and angularity.
func (c *Calculator) Bhavabala() []HouseStrength {
	totals := Totals(c.Shadbala())
	rows := make([]HouseStrength, 0, 12)
	for h := 1; h <= 12; h++ {
		lord := c.cusps.Lord(h)
		lordStrength, ok := totals[lord]
		if !ok {
			lordStrength = defaultLordStrength
		}

		occupancy := 0.0
		aspects := 0.0
		cusp := c.cusps.House(h)
		for body, pos := range c.positions {
			if c.house(pos.Longitude) == h {
				switch {
				case houseBenefics[body]:
					occupancy += 10
				case houseMalefics[body]:
					occupancy -= 10
				}
			}
			if utils.AngularDistance(pos.Longitude, cusp) < 120 {
				switch {
				case houseBenefics[body]:
					aspects += 5
				case houseMalefics[body]:
					aspects -= 5
				}
			}
		}

		quality := 5.0
		if h == 1 || h == 4 || h == 7 || h == 10 {
			quality = 10
		}
		rows = append(rows, HouseStrength{
			House:    h,
			Lord:     lord,
			Strength: lordStrength/4 + occupancy + aspects + quality,
		})
	}
	return rows
}

// moolatrikonaScore is 45 inside the planet's moolatrikona arc, 30 in any
// other own sign, else 0.
func moolatrikonaScore(planet models.Body, pos models.PlanetPosition) float64 {
	sign := pos.Sign()
	if mt, ok := moolatrikonas[planet]; ok && sign == mt.sign {
		deg := math.Mod(pos.Longitude, 30)
		if deg >= mt.start && deg <= mt.end {
			return 45
		}
	}
	if relation(planet, sign) == relOwn {
		return 30
	}
	return 0
}

// pakshaPlaceholder is the fixed lunar-phase term added to Ishta.
const pakshaPlaceholder = 30.0

// IshtaKashta returns the benefic/malefic balance per classical planet.
func (c *Calculator) IshtaKashta() []IshtaKashta {
	var rows []IshtaKashta
	for _, planet := range c.scored() {
		pos := c.positions[planet]
		u := uchcha(planet, pos)
		ch := cheshta(pos)
		mt := moolatrikonaScore(planet, pos)
		dg := c.dig(planet, pos)

		ishta := math.Sqrt(math.Max(0.01, u)*math.Max(0.01, ch)) + mt/2 + dg/4 + pakshaPlaceholder/2
		kashta := math.Sqrt(math.Max(0.01, 60-u)*math.Max(0.01, 60-ch)) + math.Max(0, 30-mt/2)

		rows = append(rows, IshtaKashta{
			Planet: planet,
			Ishta:  ishta,
			Kashta: kashta,
			Ratio:  Ratio(ishta, kashta),
		})
	}
	return rows
}

// Ratio returns ishta/(ishta+kashta), or 0.5 when both are zero.
func Ratio(ishta, kashta float64) float64 {
	if ishta+kashta <= 0 {
		return 0.5
	}
	return ishta / (ishta + kashta)
}
