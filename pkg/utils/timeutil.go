package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30), the default chart zone.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// instantLayouts are tried in order by ParseInstant.
var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant parses an ISO-8601 style date/time. Inputs without an explicit
// offset are interpreted in loc (IST when nil).
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = IST
	}
	s = strings.TrimSpace(s)
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date/time %q", s)
}

// FixedZoneHours returns a fixed-offset location for a fractional hour offset.
func FixedZoneHours(hours float64) *time.Location {
	secs := int(math.Round(hours * 3600))
	sign := "+"
	if secs < 0 {
		sign = "-"
	}
	abs := secs
	if abs < 0 {
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60), secs)
}

// OffsetHours returns the UTC offset of t in hours.
func OffsetHours(t time.Time) float64 {
	_, secs := t.Zone()
	return float64(secs) / 3600
}

// ZoneFor returns the location for an optional hour offset, defaulting to the
// location already carried by t.
func ZoneFor(t time.Time, tzOffsetHours *float64) *time.Location {
	if tzOffsetHours == nil {
		return t.Location()
	}
	return FixedZoneHours(*tzOffsetHours)
}

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}

// AtHour returns the given fractional local hour on the calendar date of day.
func AtHour(day time.Time, hours float64) time.Time {
	return day.Add(time.Duration(hours * float64(time.Hour)))
}

// Days converts a fractional day count to a Duration.
func Days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}

// FormatDateTime formats t as "2006-01-02 15:04:05 -07:00".
func FormatDateTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05 -07:00")
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}
