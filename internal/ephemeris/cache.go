package ephemeris

import (
	"fmt"
	"sync"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// defaultCacheEntries bounds a Cached provider before it is flushed.
const defaultCacheEntries = 4096

type riseSetPair struct {
	rise, set *time.Time
}

// Cached memoizes the day-level queries of a provider: sunrise/sunset, the
// daily periods and body rise/set depend only on the local date and place,
// so a scan over many intervals of one day computes them once.
// It is safe for concurrent use.
type Cached struct {
	Provider

	mu         sync.RWMutex
	entries    map[string]any
	maxEntries int
}

// NewCached wraps p. maxEntries <= 0 uses a default bound.
func NewCached(p Provider, maxEntries int) *Cached {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &Cached{Provider: p, entries: make(map[string]any), maxEntries: maxEntries}
}

// Unwrap returns the wrapped provider.
func (c *Cached) Unwrap() Provider { return c.Provider }

// WithConfig returns a fresh cache over the reconfigured provider.
func (c *Cached) WithConfig(cfg Config) (Provider, error) {
	p, err := c.Provider.WithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewCached(p, c.maxEntries), nil
}

func dayKey(kind string, t time.Time, lat, lon float64, tz *float64, extra string) string {
	loc := utils.ZoneFor(t, tz)
	_, off := t.In(loc).Zone()
	return fmt.Sprintf("%s|%s|%d|%.6f|%.6f|%s", kind, t.In(loc).Format(time.DateOnly), off, lat, lon, extra)
}

func (c *Cached) get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *Cached) set(key string, v any) {
	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[string]any)
	}
	c.entries[key] = v
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cached) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush removes all entries.
func (c *Cached) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]any)
	c.mu.Unlock()
}

func (c *Cached) SunriseSunset(t time.Time, lat, lon float64, tz *float64) (*models.RiseSet, error) {
	key := dayKey("sun", t, lat, lon, tz, "")
	if v, ok := c.get(key); ok {
		return v.(*models.RiseSet), nil
	}
	rs, err := c.Provider.SunriseSunset(t, lat, lon, tz)
	if err != nil {
		return nil, err
	}
	c.set(key, rs)
	return rs, nil
}

func (c *Cached) RahuKalamPeriods(t time.Time, lat, lon float64, tz *float64) ([]models.DailyPeriod, error) {
	key := dayKey("kalam", t, lat, lon, tz, "")
	if v, ok := c.get(key); ok {
		return append([]models.DailyPeriod(nil), v.([]models.DailyPeriod)...), nil
	}
	periods, err := c.Provider.RahuKalamPeriods(t, lat, lon, tz)
	if err != nil {
		return nil, err
	}
	c.set(key, append([]models.DailyPeriod(nil), periods...))
	return periods, nil
}

func (c *Cached) BodyRiseSet(t time.Time, lat, lon float64, body models.Body, tz *float64) (*time.Time, *time.Time, error) {
	key := dayKey("body", t, lat, lon, tz, string(body))
	if v, ok := c.get(key); ok {
		p := v.(riseSetPair)
		return p.rise, p.set, nil
	}
	up, down, err := c.Provider.BodyRiseSet(t, lat, lon, body, tz)
	if err != nil {
		return nil, nil, err
	}
	c.set(key, riseSetPair{rise: up, set: down})
	return up, down, nil
}
