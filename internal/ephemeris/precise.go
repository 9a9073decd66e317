package ephemeris

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// ErrNoEvent is returned by a Backend when a body neither rises nor sets on
// the requested day.
var ErrNoEvent = errors.New("no rise or set event")

// Ecliptic is a tropical, geocentric position reported by a Backend.
type Ecliptic struct {
	Longitude      float64
	Latitude       float64
	Speed          float64 // degrees/day
	RightAscension float64
	Declination    float64
}

// Backend is a precise ephemeris capability, typically a binding to a compiled
// astronomical library. Julian Days are UT.
type Backend interface {
	Name() string

	// Available reports whether the backend can serve queries (data files
	// present, library loaded).
	Available() error

	// Ecliptic returns the tropical position of a body. Ketu is never asked for.
	Ecliptic(jd float64, body models.Body) (Ecliptic, error)

	// Ayanamsa returns the sidereal offset for a mode code.
	Ayanamsa(jd float64, code int) (float64, error)

	// Houses returns tropical cusps, Asc and MC for a house-system code.
	Houses(jd, lat, lon float64, system byte) (cusps [12]float64, asc, mc float64, err error)

	// RiseSet returns the first rise and set after jd as Julian Days.
	RiseSet(jd, lat, lon float64, body models.Body) (rise, set float64, err error)
}

// BackendFactory constructs a backend on demand.
type BackendFactory func() (Backend, error)

var backends = struct {
	sync.RWMutex
	factories map[string]BackendFactory
}{factories: make(map[string]BackendFactory)}

// RegisterBackend makes a backend available to New. Duplicate names overwrite.
func RegisterBackend(name string, factory BackendFactory) {
	backends.Lock()
	backends.factories[name] = factory
	backends.Unlock()
}

// UnregisterBackend removes a registered backend.
func UnregisterBackend(name string) {
	backends.Lock()
	delete(backends.factories, name)
	backends.Unlock()
}

// BackendNames returns the registered backend names, sorted.
func BackendNames() []string {
	backends.RLock()
	defer backends.RUnlock()
	names := make([]string, 0, len(backends.factories))
	for n := range backends.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// probeBackend returns the named backend, or the first available one when
// name is empty.
func probeBackend(name string) (Backend, error) {
	candidates := BackendNames()
	if name != "" {
		candidates = []string{name}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: none registered", ErrBackendUnavailable)
	}

	var errs []error
	for _, n := range candidates {
		backends.RLock()
		factory, ok := backends.factories[n]
		backends.RUnlock()
		if !ok {
			errs = append(errs, fmt.Errorf("%s: not registered", n))
			continue
		}
		b, err := factory()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n, err))
			continue
		}
		if err := b.Available(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n, err))
			continue
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, errors.Join(errs...))
}

// Precise serves queries from a Backend and drops to the closed-form
// rise/set formulas when the backend cannot answer them.
type Precise struct {
	cfg      Config
	backend  Backend
	fallback *Approximate
	logger   *slog.Logger
}

// NewPrecise wraps an explicit backend, bypassing the registry probe.
func NewPrecise(cfg Config, backend Backend, logger *slog.Logger) (*Precise, error) {
	if logger == nil {
		logger = slog.Default()
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	if err := backend.Available(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, backend.Name(), err)
	}
	return &Precise{cfg: resolved, backend: backend, fallback: &Approximate{cfg: resolved}, logger: logger}, nil
}

// Name returns the strategy name.
func (p *Precise) Name() string { return "precise" }

// Config returns the resolved configuration.
func (p *Precise) Config() Config { return p.cfg }

// WithConfig returns a precise provider sharing the same backend.
func (p *Precise) WithConfig(cfg Config) (Provider, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	return &Precise{cfg: resolved, backend: p.backend, fallback: &Approximate{cfg: resolved}, logger: p.logger}, nil
}

func (p *Precise) ayanamsa(jd float64) (float64, error) {
	_, code := ResolveAyanamsa(p.cfg.Ayanamsa)
	return p.backend.Ayanamsa(jd, code)
}

// Positions subtracts the ayanamsa from backend longitudes. Ketu is derived
// opposite Rahu.
func (p *Precise) Positions(t time.Time) (map[models.Body]models.PlanetPosition, error) {
	jd := JulianDay(t)
	ayan, err := p.ayanamsa(jd)
	if err != nil {
		return nil, fmt.Errorf("ayanamsa: %w", err)
	}

	out := make(map[models.Body]models.PlanetPosition, len(models.PrimaryBodies))
	for _, body := range models.PrimaryBodies {
		if body == models.Ketu {
			continue
		}
		e, err := p.backend.Ecliptic(jd, body)
		if err != nil {
			return nil, fmt.Errorf("position of %s: %w", body, err)
		}
		out[body] = models.NewPlanetPosition(e.Longitude-ayan, e.Latitude, e.Speed, e.RightAscension, e.Declination)
	}
	rahu := out[models.Rahu]
	out[models.Ketu] = models.NewPlanetPosition(rahu.Longitude+180, -rahu.Latitude, rahu.Speed,
		utils.Normalize(rahu.RightAscension+180), -rahu.Declination)
	return out, nil
}

// Upagrahas computes Gulika and Mandi from backend sunrise and ascendant.
func (p *Precise) Upagrahas(t time.Time, loc *models.Location) (map[models.Body]models.PlanetPosition, error) {
	return upagrahas(p, t, loc)
}

// HouseCusps returns sidereal cusps in the configured system.
func (p *Precise) HouseCusps(t time.Time, lat, lon float64) (models.HouseCusps, error) {
	jd := JulianDay(t)
	ayan, err := p.ayanamsa(jd)
	if err != nil {
		return models.HouseCusps{}, fmt.Errorf("ayanamsa: %w", err)
	}
	cusps, asc, mc, err := p.backend.Houses(jd, lat, lon, p.cfg.HouseSystem[0])
	if err != nil {
		return models.HouseCusps{}, fmt.Errorf("houses: %w", err)
	}
	var h models.HouseCusps
	for i, c := range cusps {
		h.Cusps[i] = utils.Normalize(c - ayan)
	}
	h.Asc = utils.Normalize(asc - ayan)
	h.MC = utils.Normalize(mc - ayan)
	return h, nil
}

// Ascendant returns the sidereal ascendant.
func (p *Precise) Ascendant(t time.Time, lat, lon float64) (float64, error) {
	h, err := p.HouseCusps(t, lat, lon)
	if err != nil {
		return 0, err
	}
	return h.Asc, nil
}

// SunriseSunset asks the backend first and falls back to the hour-angle
// equation on failure.
func (p *Precise) SunriseSunset(t time.Time, lat, lon float64, tz *float64) (*models.RiseSet, error) {
	rise, set, err := p.riseSet(t, lat, lon, models.Sun, tz)
	switch {
	case errors.Is(err, ErrNoEvent):
		return nil, nil
	case err != nil:
		p.logger.Debug("ephemeris: backend sunrise failed, using approximation", "error", err)
		return sunriseSunset(t, lat, lon, tz), nil
	}
	return &models.RiseSet{Sunrise: rise, Sunset: set}, nil
}

// RahuKalamPeriods divides backend daylight into eight segments.
func (p *Precise) RahuKalamPeriods(t time.Time, lat, lon float64, tz *float64) ([]models.DailyPeriod, error) {
	return dailyPeriods(p, t, lat, lon, tz)
}

// BodyRiseSet asks the backend first and falls back to the transit estimate
// using backend positions.
func (p *Precise) BodyRiseSet(t time.Time, lat, lon float64, body models.Body, tz *float64) (*time.Time, *time.Time, error) {
	if !body.IsPrimary() {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBody, body)
	}
	rise, set, err := p.riseSet(t, lat, lon, body, tz)
	switch {
	case errors.Is(err, ErrNoEvent):
		return nil, nil, nil
	case err != nil:
		p.logger.Debug("ephemeris: backend rise/set failed, using approximation", "body", body, "error", err)
		return approxBodyRiseSet(p, t, lat, lon, body, tz)
	}
	return &rise, &set, nil
}

func (p *Precise) riseSet(t time.Time, lat, lon float64, body models.Body, tz *float64) (time.Time, time.Time, error) {
	loc := utils.ZoneFor(t, tz)
	day := utils.StartOfDay(t, loc)
	r, s, err := p.backend.RiseSet(JulianDay(day), lat, lon, body)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return TimeFromJulianDay(r).In(loc), TimeFromJulianDay(s).In(loc), nil
}
