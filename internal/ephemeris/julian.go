package ephemeris

import (
	"math"
	"time"

	"github.com/seenimoa/jyotish/pkg/utils"
)

const (
	j2000 = 2451545.0
	// Mean obliquity of the ecliptic in degrees.
	Obliquity = 23.4367
	// Julian Day of the Unix epoch.
	unixEpochJD = 2440587.5
)

// JulianDay converts an instant to a UT Julian Day (Meeus, Gregorian calendar).
func JulianDay(t time.Time) float64 {
	u := t.UTC()
	year, month := u.Year(), int(u.Month())
	day := float64(u.Day()) +
		(float64(u.Hour())+
			(float64(u.Minute())+
				(float64(u.Second())+float64(u.Nanosecond())/1e9)/60)/60)/24
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + day + b - 1524.5
}

// TimeFromJulianDay converts a UT Julian Day back to an instant in UTC.
func TimeFromJulianDay(jd float64) time.Time {
	secs := (jd - unixEpochJD) * 86400
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*1e9)).UTC()
}

// GMST returns Greenwich Mean Sidereal Time in degrees.
func GMST(jd float64) float64 {
	t := (jd - j2000) / 36525
	gmst := 280.46061837 + 360.98564736629*(jd-j2000) + 0.000387933*t*t - t*t*t/38710000
	return utils.Normalize(gmst)
}

// LocalSiderealTime returns GMST corrected for east longitude, in degrees.
func LocalSiderealTime(jd, lon float64) float64 {
	return utils.Normalize(GMST(jd) + lon)
}

// tropicalAscendant evaluates the spherical-trig ascendant for a local
// sidereal time and latitude.
func tropicalAscendant(lst, lat float64) float64 {
	lat = utils.Clamp(lat, -89.9, 89.9)
	th, eps, phi := utils.Rad(lst), utils.Rad(Obliquity), utils.Rad(lat)
	asc := math.Atan2(math.Cos(th), -(math.Sin(th)*math.Cos(eps) + math.Tan(phi)*math.Sin(eps)))
	return utils.Normalize(utils.Deg(asc))
}

// tropicalMidheaven returns the ecliptic longitude culminating at lst.
// eclipticToEquatorial converts a tropical ecliptic longitude at zero latitude
// to right ascension and declination, in degrees.
func eclipticToEquatorial(lon float64) (ra, dec float64) {
	l, eps := utils.Rad(lon), utils.Rad(Obliquity)
	ra = utils.Normalize(utils.Deg(math.Atan2(math.Sin(l)*math.Cos(eps), math.Cos(l))))
	dec = utils.Deg(math.Asin(math.Sin(eps) * math.Sin(l)))
	return ra, dec
}

func tropicalMidheaven(lst float64) float64 {
	th, eps := utils.Rad(lst), utils.Rad(Obliquity)
	return utils.Normalize(utils.Deg(math.Atan2(math.Sin(th), math.Cos(th)*math.Cos(eps))))
}
