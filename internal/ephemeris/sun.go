package ephemeris

import (
	"math"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// Official zenith for sunrise/sunset, including refraction and solar radius.
const sunZenith = 90.8333

// sunriseSunset returns nil for polar day or night.
func sunriseSunset(t time.Time, lat, lon float64, tz *float64) *models.RiseSet {
	loc := utils.ZoneFor(t, tz)
	day := utils.StartOfDay(t, loc)

	rise, ok := sunEvent(day, lat, lon, true)
	if !ok {
		return nil
	}
	set, ok := sunEvent(day, lat, lon, false)
	if !ok {
		return nil
	}
	if !set.After(rise) {
		set = set.Add(24 * time.Hour)
	}
	return &models.RiseSet{Sunrise: rise, Sunset: set}
}

// sunEvent evaluates the hour-angle equation for the local calendar day that
// starts at day. It reports false when the arccos argument leaves [-1,1].
func sunEvent(day time.Time, lat, lon float64, rising bool) (time.Time, bool) {
	n := float64(day.YearDay())
	lngHour := lon / 15

	approx := 18.0
	if rising {
		approx = 6
	}
	t := n + (approx-lngHour)/24

	m := 0.9856*t - 3.289
	l := utils.Normalize(m + 1.916*math.Sin(utils.Rad(m)) + 0.020*math.Sin(utils.Rad(2*m)) + 282.634)

	ra := utils.Normalize(utils.Deg(math.Atan(0.91764 * math.Tan(utils.Rad(l)))))
	ra += math.Floor(l/90)*90 - math.Floor(ra/90)*90
	ra /= 15

	sinDec := 0.39782 * math.Sin(utils.Rad(l))
	cosDec := math.Cos(math.Asin(sinDec))

	cosH := (math.Cos(utils.Rad(sunZenith)) - sinDec*math.Sin(utils.Rad(lat))) / (cosDec * math.Cos(utils.Rad(lat)))
	if cosH > 1 || cosH < -1 || math.IsNaN(cosH) {
		return time.Time{}, false
	}

	h := utils.Deg(math.Acos(cosH))
	if rising {
		h = 360 - h
	}
	h /= 15

	localMean := h + ra - 0.06571*t - 6.622
	ut := math.Mod(localMean-lngHour, 24)
	if ut < 0 {
		ut += 24
	}
	local := math.Mod(ut+utils.OffsetHours(day), 24)
	if local < 0 {
		local += 24
	}
	return utils.AtHour(day, local), true
}
