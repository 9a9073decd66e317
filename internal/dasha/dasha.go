// Package dasha computes the Vimshottari planetary-period timeline.
package dasha

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
)

// MaxLevels bounds the recursion depth (Mahadasha through Prana).
const MaxLevels = 5

// ErrInvalidLevels is returned when levels is outside 1..MaxLevels.
var ErrInvalidLevels = errors.New("invalid dasha levels")

// Years is each lord's full allotment; the cycle totals 120 years.
var Years = map[models.Body]int{
	models.Ketu:    7,
	models.Venus:   20,
	models.Sun:     6,
	models.Moon:    10,
	models.Mars:    7,
	models.Rahu:    18,
	models.Jupiter: 16,
	models.Saturn:  19,
	models.Mercury: 17,
}

const (
	cycleYears = 120
	yearLength = time.Duration(365.25 * 24 * float64(time.Hour))
)

// LevelNames labels levels 1..MaxLevels.
var LevelNames = []string{"Mahadasha", "Antardasha", "Pratyantardasha", "Sookshma", "Prana"}

// Period is a half-open [Start, End) span ruled by Lord.
type Period struct {
	Lord   models.Body `json:"lord"`
	Start  time.Time   `json:"start"`
	End    time.Time   `json:"end"`
	Level  int         `json:"level"`
	Parent models.Body `json:"parent,omitempty"`
}

// Contains reports whether t falls within [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Duration returns End - Start.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Timeline is a flat sequence of periods: all Mahadashas first, then each
// Mahadasha's sub-periods depth-first.
type Timeline []Period

func lordIndex(b models.Body) int {
	for i, l := range models.DashaLords {
		if l == b {
			return i
		}
	}
	return -1
}

// Vimshottari builds the timeline from the natal Moon longitude. The first
// Mahadasha carries only the unelapsed balance of the birth nakshatra.
func Vimshottari(moonLongitude float64, birth time.Time, levels int) (Timeline, error) {
	if levels < 1 || levels > MaxLevels {
		return nil, fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidLevels, levels, MaxLevels)
	}
	moon := math.Mod(moonLongitude, 360)
	if moon < 0 {
		moon += 360
	}

	idx := models.NakshatraOf(moon)
	balance := (float64(idx+1)*models.NakshatraSpan - moon) / models.NakshatraSpan
	first := idx % len(models.DashaLords)

	top := make(Timeline, 0, len(models.DashaLords))
	start := birth
	for i := range models.DashaLords {
		lord := models.DashaLords[(first+i)%len(models.DashaLords)]
		span := time.Duration(Years[lord]) * yearLength
		if i == 0 {
			span = time.Duration(float64(Years[lord]) * balance * float64(yearLength))
		}
		top = append(top, Period{Lord: lord, Start: start, End: start.Add(span), Level: 1})
		start = start.Add(span)
	}

	out := append(Timeline{}, top...)
	if levels > 1 {
		for _, p := range top {
			out = subdivide(out, p, levels-1)
		}
	}
	return out, nil
}

// subdivide appends the nine children of parent, starting from the parent's
// own lord, and recurses depth more levels. Offsets are computed in integer
// nanoseconds so the children tile the parent exactly.
func subdivide(out Timeline, parent Period, depth int) Timeline {
	dur := parent.Duration()
	q, r := dur/cycleYears, dur%cycleYears
	offset := func(cum int) time.Duration {
		c := time.Duration(cum)
		return q*c + r*c/cycleYears
	}

	first := lordIndex(parent.Lord)
	cum := 0
	for i := range models.DashaLords {
		lord := models.DashaLords[(first+i)%len(models.DashaLords)]
		start := parent.Start.Add(offset(cum))
		cum += Years[lord]
		end := parent.Start.Add(offset(cum))

		child := Period{Lord: lord, Start: start, End: end, Level: parent.Level + 1, Parent: parent.Lord}
		out = append(out, child)
		if depth > 1 {
			out = subdivide(out, child, depth-1)
		}
	}
	return out
}

// Level returns the periods at one level, in chronological order.
func (tl Timeline) Level(n int) Timeline {
	var out Timeline
	for _, p := range tl {
		if p.Level == n {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// MaxLevel returns the deepest level present.
func (tl Timeline) MaxLevel() int {
	m := 0
	for _, p := range tl {
		if p.Level > m {
			m = p.Level
		}
	}
	return m
}

// Active returns the period of the given level containing t.
func (tl Timeline) Active(t time.Time, level int) (Period, bool) {
	for _, p := range tl {
		if p.Level == level && p.Contains(t) {
			return p, true
		}
	}
	return Period{}, false
}

// Deepest returns the most specific period containing t, walking up one level
// at a time when a deeper level has no match.
func (tl Timeline) Deepest(t time.Time) (Period, bool) {
	for level := tl.MaxLevel(); level >= 1; level-- {
		if p, ok := tl.Active(t, level); ok {
			return p, true
		}
	}
	return Period{}, false
}

// Sorted returns a copy ordered by (Level, Start).
func (tl Timeline) Sorted() Timeline {
	out := append(Timeline{}, tl...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
