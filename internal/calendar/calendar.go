// Package calendar exports dasha periods and ranked activity windows as
// iCalendar (RFC 5545) events.
package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/predictor"
)

const (
	productID = "-//seenimoa//jyotish//EN"
	uidDomain = "jyotish"
)

// Builder accumulates events into one VCALENDAR.
type Builder struct {
	cal *ical.Calendar
	now func() time.Time
}

// New returns an empty calendar named name.
func New(name string) *Builder {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}
	return &Builder{cal: cal, now: time.Now}
}

// uid is stable for the same key so re-exports update rather than duplicate.
func uid(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String() + "@" + uidDomain
}

func (b *Builder) add(key, summary, description, category string, start, end time.Time) {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid(key))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, b.now().UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	ev.Props.SetText(ical.PropSummary, summary)
	if description != "" {
		ev.Props.SetText(ical.PropDescription, description)
	}
	ev.Props.SetText(ical.PropCategories, category)
	b.cal.Children = append(b.cal.Children, ev.Component)
}

// AddDasha adds one event per period up to maxLevel. maxLevel <= 0 adds all.
func (b *Builder) AddDasha(tl dasha.Timeline, maxLevel int) int {
	n := 0
	for _, p := range tl.Sorted() {
		if maxLevel > 0 && p.Level > maxLevel {
			continue
		}
		label := fmt.Sprintf("Level %d", p.Level)
		if p.Level >= 1 && p.Level <= len(dasha.LevelNames) {
			label = dasha.LevelNames[p.Level-1]
		}
		summary := fmt.Sprintf("%s %s", p.Lord, label)
		desc := ""
		if p.Parent != "" {
			desc = fmt.Sprintf("Within %s period", p.Parent)
		}
		key := fmt.Sprintf("dasha/%d/%s/%s/%d", p.Level, p.Parent, p.Lord, p.Start.UnixNano())
		b.add(key, summary, desc, "Dasha", p.Start, p.End)
		n++
	}
	return n
}

// AddWindows adds the first top windows (all when top <= 0), in the given order.
func (b *Builder) AddWindows(activity string, windows []predictor.Window, top int) int {
	if top <= 0 || top > len(windows) {
		top = len(windows)
	}
	for i, w := range windows[:top] {
		summary := fmt.Sprintf("%s #%d (score %.1f)", activity, i+1, w.Score)
		key := fmt.Sprintf("window/%s/%d", activity, w.Start.UnixNano())
		b.add(key, summary, w.Explanation, activity, w.Start, w.End)
	}
	return top
}

// Len returns the number of events added.
func (b *Builder) Len() int {
	return len(b.cal.Events())
}

// Encode writes the calendar.
func (b *Builder) Encode(w io.Writer) error {
	if err := ical.NewEncoder(w).Encode(b.cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}
