package ephemeris

import (
	"math"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// One-based daylight eighths, indexed Sunday..Saturday.
var (
	rahuKalamSegments   = [7]int{8, 2, 7, 5, 6, 4, 3}
	yamagandaSegments   = [7]int{5, 4, 3, 2, 1, 7, 6}
	gulikaKalamSegments = [7]int{7, 6, 5, 4, 3, 2, 1}
)

// Zero-based daylight eighths whose start fixes each upagraha, Sunday..Saturday.
// Mandi rises at the close of Gulika's portion.
var (
	gulikaPortion = [7]int{6, 5, 4, 3, 2, 1, 0}
	mandiPortion  = [7]int{7, 6, 5, 4, 3, 2, 1}
)

// daylight returns sunrise and sunset for the local day of t, framing the day
// as 06:00-18:00 when the Sun does not rise or set.
func daylight(p Provider, t time.Time, lat, lon float64, tz *float64) (time.Time, time.Time, error) {
	rs, err := p.SunriseSunset(t, lat, lon, tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if rs == nil {
		day := utils.StartOfDay(t, utils.ZoneFor(t, tz))
		return utils.AtHour(day, 6), utils.AtHour(day, 18), nil
	}
	return rs.Sunrise, rs.Sunset, nil
}

func dailyPeriods(p Provider, t time.Time, lat, lon float64, tz *float64) ([]models.DailyPeriod, error) {
	rise, set, err := daylight(p, t, lat, lon, tz)
	if err != nil {
		return nil, err
	}
	segment := set.Sub(rise) / 8
	wd := int(rise.Weekday())

	period := func(name string, n int) models.DailyPeriod {
		start := rise.Add(time.Duration(n-1) * segment)
		return models.DailyPeriod{Name: name, Start: start, End: start.Add(segment)}
	}
	return []models.DailyPeriod{
		period(models.RahuKalam, rahuKalamSegments[wd]),
		period(models.Yamaganda, yamagandaSegments[wd]),
		period(models.GulikaKalam, gulikaKalamSegments[wd]),
	}, nil
}

// upagrahas evaluates the ascendant at the start of each body's daylight
// portion. Without a location the legacy day-count rates are used.
func upagrahas(p Provider, t time.Time, loc *models.Location) (map[models.Body]models.PlanetPosition, error) {
	out := make(map[models.Body]models.PlanetPosition, 2)
	if loc == nil {
		jd := JulianDay(t)
		g := utils.Normalize(math.Mod(jd*13.176396, 360))
		m := utils.Normalize(math.Mod(jd*11.0, 360))
		out[models.Gulika] = models.NewPlanetPosition(g, 0, 0, g, 0)
		out[models.Mandi] = models.NewPlanetPosition(m, 0, 0, m, 0)
		return out, nil
	}

	rise, set, err := daylight(p, t, loc.Latitude, loc.Longitude, nil)
	if err != nil {
		return nil, err
	}
	segment := set.Sub(rise) / 8
	wd := int(rise.Weekday())

	for body, portion := range map[models.Body]int{
		models.Gulika: gulikaPortion[wd],
		models.Mandi:  mandiPortion[wd],
	} {
		at := rise.Add(time.Duration(portion) * segment)
		asc, err := p.Ascendant(at, loc.Latitude, loc.Longitude)
		if err != nil {
			return nil, err
		}
		out[body] = models.NewPlanetPosition(asc, 0, 0, asc, 0)
	}
	return out, nil
}
