// Package panchang derives the five daily time-cycle elements (tithi,
// nakshatra, yoga, karana, weekday) with their boundaries, plus sunrise,
// moonrise and the inauspicious daily periods.
//
// Boundaries are a local linear projection from current angular speeds.
package panchang

import (
	"fmt"
	"math"
	"time"

	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

const (
	tithiSpan  = 12.0
	yogaSpan   = models.NakshatraSpan
	karanaSpan = 6.0

	// minSpeed floors angular speeds (degrees/day) used as divisors.
	minSpeed = 0.1
)

// Details is the panchang for one instant and place.
type Details struct {
	Tithi     string `json:"tithi"`
	Nakshatra string `json:"nakshatra"`
	Yoga      string `json:"yoga"`
	Karana    string `json:"karana"`
	Weekday   string `json:"weekday"`

	Sunrise  time.Time  `json:"sunrise"`
	Sunset   time.Time  `json:"sunset"`
	Moonrise *time.Time `json:"moonrise,omitempty"`
	Moonset  *time.Time `json:"moonset,omitempty"`

	TithiStart     time.Time `json:"tithi_start"`
	TithiEnd       time.Time `json:"tithi_end"`
	NakshatraStart time.Time `json:"nakshatra_start"`
	NakshatraEnd   time.Time `json:"nakshatra_end"`
	YogaEnd        time.Time `json:"yoga_end"`
	KaranaEnd      time.Time `json:"karana_end"`

	RahuKalam   *models.DailyPeriod `json:"rahu_kalam,omitempty"`
	Yamaganda   *models.DailyPeriod `json:"yamaganda,omitempty"`
	GulikaKalam *models.DailyPeriod `json:"gulika_kalam,omitempty"`
}

// Calculator computes panchang details from an ephemeris provider.
type Calculator struct {
	eph ephemeris.Provider
}

// New returns a calculator backed by eph.
func New(eph ephemeris.Provider) *Calculator {
	return &Calculator{eph: eph}
}

// Compute returns the panchang at t for the given location. tz overrides the
// zone carried by t when framing the local day.
func (c *Calculator) Compute(t time.Time, lat, lon float64, tz *float64) (*Details, error) {
	positions, err := c.eph.Positions(t)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	sun, moon := positions[models.Sun], positions[models.Moon]
	loc := utils.ZoneFor(t, tz)

	d := &Details{Weekday: t.In(loc).Weekday().String()}

	// Tithi and karana share the Moon-Sun elongation.
	elong := utils.Normalize(moon.Longitude - sun.Longitude)
	rel := floorSpeed(moon.Speed - sun.Speed)

	idx, rem := segment(elong, tithiSpan)
	d.Tithi = fmt.Sprintf("Tithi %d", idx+1)
	d.TithiStart = t.Add(-project(rem, rel))
	d.TithiEnd = t.Add(project(tithiSpan-rem, rel))

	idx, rem = segment(elong, karanaSpan)
	d.Karana = fmt.Sprintf("Karana %d", idx+1)
	d.KaranaEnd = t.Add(project(karanaSpan-rem, rel))

	idx, rem = segment(moon.Longitude, models.NakshatraSpan)
	moonSpeed := floorSpeed(moon.Speed)
	d.Nakshatra = fmt.Sprintf("Nakshatra %d", idx+1)
	d.NakshatraStart = t.Add(-project(rem, moonSpeed))
	d.NakshatraEnd = t.Add(project(models.NakshatraSpan-rem, moonSpeed))

	idx, rem = segment(utils.Normalize(sun.Longitude+moon.Longitude), yogaSpan)
	d.Yoga = fmt.Sprintf("Yoga %d", idx+1)
	d.YogaEnd = t.Add(project(yogaSpan-rem, math.Max(math.Abs(sun.Speed)+math.Abs(moon.Speed), minSpeed)))

	rs, err := c.eph.SunriseSunset(t, lat, lon, tz)
	if err != nil {
		return nil, fmt.Errorf("sunrise: %w", err)
	}
	if rs != nil {
		d.Sunrise, d.Sunset = rs.Sunrise, rs.Sunset
	} else {
		day := utils.StartOfDay(t, loc)
		d.Sunrise, d.Sunset = utils.AtHour(day, 6), utils.AtHour(day, 18)
	}

	d.Moonrise, d.Moonset, err = c.eph.BodyRiseSet(t, lat, lon, models.Moon, tz)
	if err != nil {
		return nil, fmt.Errorf("moonrise: %w", err)
	}

	periods, err := c.eph.RahuKalamPeriods(t, lat, lon, tz)
	if err != nil {
		return nil, fmt.Errorf("daily periods: %w", err)
	}
	for i := range periods {
		p := &periods[i]
		switch p.Name {
		case models.RahuKalam:
			d.RahuKalam = p
		case models.Yamaganda:
			d.Yamaganda = p
		case models.GulikaKalam:
			d.GulikaKalam = p
		}
	}
	return d, nil
}

// segment returns the 0-based index of angle in span-wide segments and the
// arc already covered within the current one.
func segment(angle, span float64) (int, float64) {
	idx := int(angle / span)
	return idx, angle - float64(idx)*span
}

func floorSpeed(speed float64) float64 {
	return math.Max(math.Abs(speed), minSpeed)
}

// project converts an arc to the time needed to cover it at speed deg/day.
func project(arc, speed float64) time.Duration {
	return utils.Days(arc / speed)
}

// Row is one Metric/Value line of the panchang table.
type Row struct {
	Metric string `json:"Metric"`
	Value  string `json:"Value"`
}

// Rows renders the details as an ordered table.
func (d *Details) Rows() []Row {
	ts := func(t time.Time) string { return t.Format(time.RFC3339) }
	opt := func(t *time.Time) string {
		if t == nil {
			return "N/A"
		}
		return ts(*t)
	}
	period := func(p *models.DailyPeriod) string {
		if p == nil {
			return "N/A"
		}
		return ts(p.Start) + " - " + ts(p.End)
	}
	return []Row{
		{"Tithi", d.Tithi},
		{"Nakshatra", d.Nakshatra},
		{"Yoga", d.Yoga},
		{"Karana", d.Karana},
		{"Weekday", d.Weekday},
		{"Sunrise", ts(d.Sunrise)},
		{"Sunset", ts(d.Sunset)},
		{"Moonrise", opt(d.Moonrise)},
		{"Moonset", opt(d.Moonset)},
		{"Tithi ends", ts(d.TithiEnd)},
		{"Nakshatra ends", ts(d.NakshatraEnd)},
		{"Yoga ends", ts(d.YogaEnd)},
		{"Karana ends", ts(d.KaranaEnd)},
		{models.RahuKalam, period(d.RahuKalam)},
		{models.Yamaganda, period(d.Yamaganda)},
		{models.GulikaKalam, period(d.GulikaKalam)},
	}
}
