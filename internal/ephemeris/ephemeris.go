// Package ephemeris computes sidereal body positions, house cusps, rise/set
// times and the named daily periods used by the other engines.
//
// Two strategies implement Provider: Precise, backed by a registered Backend,
// and Approximate, a closed-form fallback that is always available. New probes
// for a backend once and returns whichever strategy can serve.
package ephemeris

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seenimoa/jyotish/pkg/models"
)

var (
	// ErrUnsupportedHouseSystem is returned at construction for unknown house codes.
	ErrUnsupportedHouseSystem = errors.New("unsupported house system")
	// ErrUnknownBody is returned by rise/set queries for bodies outside PrimaryBodies.
	ErrUnknownBody = errors.New("unknown body")
	// ErrBackendUnavailable signals that no precise backend can serve.
	ErrBackendUnavailable = errors.New("precise ephemeris backend unavailable")
)

// Provider is the ephemeris strategy consumed by every engine.
type Provider interface {
	// Name returns the strategy name for display/logging.
	Name() string

	// Config returns the resolved configuration.
	Config() Config

	// WithConfig returns a new provider of the same strategy with cfg applied.
	WithConfig(cfg Config) (Provider, error)

	// Positions returns sidereal positions for the twelve primary bodies.
	Positions(t time.Time) (map[models.Body]models.PlanetPosition, error)

	// Upagrahas returns Gulika and Mandi. loc may be nil.
	Upagrahas(t time.Time, loc *models.Location) (map[models.Body]models.PlanetPosition, error)

	// HouseCusps returns the twelve cusps plus Asc and MC.
	HouseCusps(t time.Time, lat, lon float64) (models.HouseCusps, error)

	// Ascendant returns the sidereal ascendant longitude.
	Ascendant(t time.Time, lat, lon float64) (float64, error)

	// SunriseSunset returns nil when the Sun does not rise or set that day.
	SunriseSunset(t time.Time, lat, lon float64, tzOffsetHours *float64) (*models.RiseSet, error)

	// RahuKalamPeriods returns Rahu Kalam, Yamaganda and Gulika Kalam, in that order.
	RahuKalamPeriods(t time.Time, lat, lon float64, tzOffsetHours *float64) ([]models.DailyPeriod, error)

	// BodyRiseSet returns nil times when the body stays above or below the horizon.
	BodyRiseSet(t time.Time, lat, lon float64, body models.Body, tzOffsetHours *float64) (rise, set *time.Time, err error)
}

// Mode selects how New chooses a strategy.
type Mode int

const (
	ModeAuto        Mode = iota // Probe for a backend, fall back to approximation
	ModePrecise                 // Prefer the backend; still falls back if absent
	ModeApproximate             // Closed-form formulas only
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModePrecise:
		return "precise"
	case ModeApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string. Unknown values select ModeAuto.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "precise":
		return ModePrecise
	case "approximate", "approx", "fallback":
		return ModeApproximate
	default:
		return ModeAuto
	}
}

// Supported house-system codes.
var houseSystems = map[string]string{
	"P": "Placidus",
	"K": "Koch",
	"O": "Porphyry",
	"R": "Regiomontanus",
	"C": "Campanus",
	"E": "Equal",
	"H": "Azimuthal",
	"W": "Whole sign",
}

// HouseSystemName returns the descriptive name of a house code.
func HouseSystemName(code string) (string, bool) {
	n, ok := houseSystems[strings.ToUpper(code)]
	return n, ok
}

// Config is the immutable ephemeris configuration threaded into a provider.
type Config struct {
	Ayanamsa    string // ayanamsa name; unknown names resolve to lahiri
	HouseSystem string // single-character code
	Backend     string // registered backend name; empty probes all
	Mode        Mode
}

// DefaultConfig returns Lahiri ayanamsa with Placidus houses.
func DefaultConfig() Config {
	return Config{Ayanamsa: DefaultAyanamsa, HouseSystem: "P", Mode: ModeAuto}
}

// Resolve validates cfg and returns its canonical form.
func (c Config) Resolve() (Config, error) {
	if c.HouseSystem == "" {
		c.HouseSystem = "P"
	}
	c.HouseSystem = strings.ToUpper(strings.TrimSpace(c.HouseSystem))
	if _, ok := houseSystems[c.HouseSystem]; !ok {
		return c, fmt.Errorf("%w: %q", ErrUnsupportedHouseSystem, c.HouseSystem)
	}
	c.Ayanamsa, _ = ResolveAyanamsa(c.Ayanamsa)
	return c, nil
}

// New validates cfg and returns the precise strategy when a backend answers
// the capability probe, otherwise the approximate strategy.
func New(cfg Config, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	approx := &Approximate{cfg: resolved}
	if resolved.Mode == ModeApproximate {
		logger.Debug("ephemeris strategy selected", "strategy", approx.Name(), "mode", resolved.Mode.String())
		return approx, nil
	}

	backend, err := probeBackend(resolved.Backend)
	if err != nil {
		logger.Info("ephemeris: precise backend unavailable, using approximation",
			"backend", resolved.Backend, "error", err)
		return approx, nil
	}
	p := &Precise{cfg: resolved, backend: backend, fallback: approx, logger: logger}
	logger.Debug("ephemeris strategy selected", "strategy", p.Name(), "backend", backend.Name())
	return p, nil
}

// WithAyanamsa returns a copy of p using the named ayanamsa.
func WithAyanamsa(p Provider, name string) (Provider, error) {
	cfg := p.Config()
	cfg.Ayanamsa = name
	return p.WithConfig(cfg)
}

// WithHouseSystem returns a copy of p using the given house-system code.
func WithHouseSystem(p Provider, code string) (Provider, error) {
	cfg := p.Config()
	cfg.HouseSystem = code
	return p.WithConfig(cfg)
}
