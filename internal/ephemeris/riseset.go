package ephemeris

import (
	"fmt"
	"math"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

const (
	// Sidereal rotation in degrees per solar day.
	siderealRate = 360.98564736629
	// Standard altitudes at rise/set in degrees.
	starAltitude = -0.5667
	moonAltitude = 0.125
)

// approxBodyRiseSet locates the transit from local sidereal time and opens the
// hour angle to the standard altitude. Times are kept within the local day.
func approxBodyRiseSet(p Provider, t time.Time, lat, lon float64, body models.Body, tz *float64) (*time.Time, *time.Time, error) {
	if !body.IsPrimary() {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBody, body)
	}
	if body == models.Sun {
		rs := sunriseSunset(t, lat, lon, tz)
		if rs == nil {
			return nil, nil, nil
		}
		return &rs.Sunrise, &rs.Sunset, nil
	}

	day := utils.StartOfDay(t, utils.ZoneFor(t, tz))
	positions, err := p.Positions(day.Add(12 * time.Hour))
	if err != nil {
		return nil, nil, err
	}
	pos := positions[body]

	h0 := starAltitude
	if body == models.Moon {
		h0 = moonAltitude
	}
	phi, dec := utils.Rad(utils.Clamp(lat, -89.9, 89.9)), utils.Rad(pos.Declination)
	cosH := (math.Sin(utils.Rad(h0)) - math.Sin(phi)*math.Sin(dec)) / (math.Cos(phi) * math.Cos(dec))
	if cosH < -1 || cosH > 1 {
		return nil, nil, nil
	}
	hourAngle := utils.Deg(math.Acos(cosH))

	lst0 := LocalSiderealTime(JulianDay(day), lon)
	transit := utils.Normalize(pos.RightAscension-lst0) / siderealRate

	rise := day.Add(utils.Days(withinDay(transit - hourAngle/siderealRate)))
	set := day.Add(utils.Days(withinDay(transit + hourAngle/siderealRate)))
	return &rise, &set, nil
}

// withinDay shifts a day fraction by whole sidereal days into [0,1).
func withinDay(frac float64) float64 {
	sidereal := 360 / siderealRate
	for frac < 0 {
		frac += sidereal
	}
	for frac >= 1 {
		frac -= sidereal
	}
	return frac
}
