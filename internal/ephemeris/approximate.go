package ephemeris

import (
	"math"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// Mean orbital (or nodal) periods in days used by uniform circular motion.
var orbitalPeriods = map[models.Body]float64{
	models.Sun:     365.256,
	models.Moon:    27.321661,
	models.Mercury: 87.969,
	models.Venus:   224.701,
	models.Mars:    686.98,
	models.Jupiter: 4332.59,
	models.Saturn:  10759.22,
	models.Uranus:  30688.5,
	models.Neptune: 60182.0,
	models.Pluto:   90465.0,
	models.Rahu:    6798.0,
	models.Ketu:    6798.0,
}

// Approximate is the closed-form strategy. Every operation is available
// without external data; accuracy is traded for availability.
type Approximate struct {
	cfg Config
}

// NewApproximate returns the fallback strategy for cfg.
func NewApproximate(cfg Config) (*Approximate, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	resolved.Mode = ModeApproximate
	return &Approximate{cfg: resolved}, nil
}

// Name returns the strategy name.
func (a *Approximate) Name() string { return "approximate" }

// Config returns the resolved configuration.
func (a *Approximate) Config() Config { return a.cfg }

// WithConfig returns a new approximate provider.
func (a *Approximate) WithConfig(cfg Config) (Provider, error) {
	return NewApproximate(cfg)
}

// Positions places each body on a uniform circle of its known period. The
// lunar nodes move retrograde and Ketu is kept opposite Rahu. Bodies are taken
// to lie on the ecliptic for the equatorial coordinates.
func (a *Approximate) Positions(t time.Time) (map[models.Body]models.PlanetPosition, error) {
	jd := JulianDay(t)
	ayan := approximateAyanamsa(a.cfg.Ayanamsa, jd)
	out := make(map[models.Body]models.PlanetPosition, len(models.PrimaryBodies))
	for _, body := range models.PrimaryBodies {
		period := orbitalPeriods[body]
		phase := math.Mod(jd, period) / period * 360
		speed := 360 / period
		switch body {
		case models.Rahu:
			phase, speed = 360-phase, -speed
		case models.Ketu:
			phase, speed = 360-phase+180, -speed
		}
		lon := utils.Normalize(phase)
		ra, dec := eclipticToEquatorial(lon + ayan)
		out[body] = models.NewPlanetPosition(lon, 0, speed, ra, dec)
	}
	return out, nil
}

// Upagrahas computes Gulika and Mandi from daylight segments.
func (a *Approximate) Upagrahas(t time.Time, loc *models.Location) (map[models.Body]models.PlanetPosition, error) {
	return upagrahas(a, t, loc)
}

// HouseCusps returns equal houses from the approximate ascendant, whatever the
// configured system.
func (a *Approximate) HouseCusps(t time.Time, lat, lon float64) (models.HouseCusps, error) {
	jd := JulianDay(t)
	lst := LocalSiderealTime(jd, lon)
	ayan := approximateAyanamsa(a.cfg.Ayanamsa, jd)
	asc := utils.Normalize(tropicalAscendant(lst, lat) - ayan)

	var h models.HouseCusps
	for i := range h.Cusps {
		h.Cusps[i] = utils.Normalize(asc + float64(i)*30)
	}
	h.Asc = asc
	h.MC = utils.Normalize(tropicalMidheaven(lst) - ayan)
	return h, nil
}

// Ascendant returns the sidereal ascendant from GMST and latitude.
func (a *Approximate) Ascendant(t time.Time, lat, lon float64) (float64, error) {
	jd := JulianDay(t)
	asc := tropicalAscendant(LocalSiderealTime(jd, lon), lat)
	return utils.Normalize(asc - approximateAyanamsa(a.cfg.Ayanamsa, jd)), nil
}

// SunriseSunset uses the solar hour-angle equation.
func (a *Approximate) SunriseSunset(t time.Time, lat, lon float64, tz *float64) (*models.RiseSet, error) {
	return sunriseSunset(t, lat, lon, tz), nil
}

// RahuKalamPeriods divides daylight into eight segments.
func (a *Approximate) RahuKalamPeriods(t time.Time, lat, lon float64, tz *float64) ([]models.DailyPeriod, error) {
	return dailyPeriods(a, t, lat, lon, tz)
}

// BodyRiseSet estimates rise and set from transit time and hour angle.
func (a *Approximate) BodyRiseSet(t time.Time, lat, lon float64, body models.Body, tz *float64) (*time.Time, *time.Time, error) {
	return approxBodyRiseSet(a, t, lat, lon, body, tz)
}
