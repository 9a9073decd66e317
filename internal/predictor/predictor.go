// Package predictor ranks time windows for an activity by combining planet
// and house strengths with natal and daily-period context.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/jyotish/internal/ashtakavarga"
	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/internal/strength"
	"github.com/seenimoa/jyotish/internal/varga"
	"github.com/seenimoa/jyotish/pkg/models"
)

// ErrInvalidRange is returned for an empty scan, a negative interval or a
// scan longer than MaxIntervals.
var ErrInvalidRange = errors.New("invalid prediction range")

// Multipliers applied while an inauspicious daily period is in force.
var periodMultipliers = map[string]float64{
	models.RahuKalam:   0.6,
	models.Yamaganda:   0.75,
	models.GulikaKalam: 0.8,
}

// Lords whose active sub-period attracts the activity's dasha penalty.
var afflictingLords = map[models.Body]bool{
	models.Saturn: true,
	models.Mars:   true,
	models.Rahu:   true,
	models.Ketu:   true,
}

// Divisions computed per interval.
var scanDivisions = []varga.Division{varga.Rasi, varga.Navamsa}

// Config tunes the scan.
type Config struct {
	Workers         int     // concurrent interval evaluations
	IntervalMinutes int     // default window width
	DashaLevels     int     // depth used to find the active sub-period
	NatalThreshold  float64 // bindus above which the natal bonus applies
	MaxIntervals    int     // upper bound on intervals per scan
}

// DefaultConfig returns the standard scan settings.
func DefaultConfig() Config {
	return Config{Workers: 4, IntervalMinutes: 60, DashaLevels: 2, NatalThreshold: 4, MaxIntervals: 10000}
}

// Birth is the optional natal context for a prediction. Dasha is evaluated
// when Time is set; the natal bonus when Ashtakavarga is set.
type Birth struct {
	Time          time.Time
	MoonLongitude float64
	Ashtakavarga  *ashtakavarga.SarvaChart
}

// NewBirth derives the natal Moon and composite Ashtakavarga at t.
func NewBirth(eph ephemeris.Provider, t time.Time, lat, lon float64) (*Birth, error) {
	positions, err := eph.Positions(t)
	if err != nil {
		return nil, fmt.Errorf("natal positions: %w", err)
	}
	asc, err := eph.Ascendant(t, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("natal ascendant: %w", err)
	}
	charts := ashtakavarga.Bhinnashtakavarga(models.Longitudes(positions), asc)
	return &Birth{
		Time:          t,
		MoonLongitude: positions[models.Moon].Longitude,
		Ashtakavarga:  ashtakavarga.Sarvashtakavarga(charts),
	}, nil
}

// Request describes one scan.
type Request struct {
	Activity        string
	Start, End      time.Time
	Latitude        float64
	Longitude       float64
	TZOffsetHours   *float64
	Birth           *Birth
	IntervalMinutes int // 0 uses Config.IntervalMinutes
}

// Window is one scored interval.
type Window struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Score       float64   `json:"score"`
	RawScore    float64   `json:"raw_score"` // before the daily-period multiplier
	Multiplier  float64   `json:"multiplier"`
	Explanation string    `json:"explanation"`
}

// Predictor evaluates activity windows.
type Predictor struct {
	eph    ephemeris.Provider
	cfg    Config
	logger *slog.Logger
}

// New returns a predictor. Non-positive config values take their defaults.
func New(eph ephemeris.Provider, cfg Config, logger *slog.Logger) *Predictor {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = def.IntervalMinutes
	}
	if cfg.DashaLevels <= 0 {
		cfg.DashaLevels = def.DashaLevels
	}
	if cfg.NatalThreshold <= 0 {
		cfg.NatalThreshold = def.NatalThreshold
	}
	if cfg.MaxIntervals <= 0 {
		cfg.MaxIntervals = def.MaxIntervals
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Predictor{eph: eph, cfg: cfg, logger: logger}
}

// Predict scores every interval in [Start, End) and returns them by score,
// highest first. Equal scores keep chronological order. Any interval failure
// aborts the scan.
func (p *Predictor) Predict(ctx context.Context, req Request) ([]Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	minutes := req.IntervalMinutes
	if minutes == 0 {
		minutes = p.cfg.IntervalMinutes
	}
	if minutes < 0 || !req.End.After(req.Start) {
		return nil, fmt.Errorf("%w: %s to %s every %d minutes", ErrInvalidRange,
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339), minutes)
	}
	step := time.Duration(minutes) * time.Minute
	span := req.End.Sub(req.Start)
	n := int64(span / step)
	if span%step != 0 {
		n++
	}
	if n > int64(p.cfg.MaxIntervals) {
		return nil, fmt.Errorf("%w: %d intervals exceeds the limit of %d", ErrInvalidRange, n, p.cfg.MaxIntervals)
	}
	activity := LookupActivity(req.Activity)

	var timeline dasha.Timeline
	if req.Birth != nil && !req.Birth.Time.IsZero() {
		var err error
		timeline, err = dasha.Vimshottari(req.Birth.MoonLongitude, req.Birth.Time, p.cfg.DashaLevels)
		if err != nil {
			return nil, fmt.Errorf("dasha: %w", err)
		}
	}

	p.logger.Debug("predictor scan",
		"activity", activity.Name, "intervals", n, "workers", p.cfg.Workers)

	windows := make([]Window, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i := range windows {
		i := i
		start := req.Start.Add(time.Duration(i) * step)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := p.evaluate(start, step, activity, req, timeline)
			if err != nil {
				return fmt.Errorf("interval %s: %w", start.Format(time.RFC3339), err)
			}
			windows[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(windows, func(i, j int) bool { return windows[i].Score > windows[j].Score })
	return windows, nil
}

// evaluate scores one interval. All engines are built fresh from its inputs.
func (p *Predictor) evaluate(start time.Time, step time.Duration, a Activity, req Request, timeline dasha.Timeline) (Window, error) {
	positions, err := p.eph.Positions(start)
	if err != nil {
		return Window{}, fmt.Errorf("positions: %w", err)
	}
	cusps, err := p.eph.HouseCusps(start, req.Latitude, req.Longitude)
	if err != nil {
		return Window{}, fmt.Errorf("houses: %w", err)
	}
	vargas, err := varga.Compute(scanDivisions, models.Longitudes(positions))
	if err != nil {
		return Window{}, err
	}

	calc := strength.New(positions, cusps, vargas)
	totals := strength.Totals(calc.Shadbala())
	bhava := make(map[int]float64, 12)
	for _, h := range calc.Bhavabala() {
		bhava[h.House] = h.Strength
	}
	ratios := make(map[models.Body]float64, 7)
	for _, ik := range calc.IshtaKashta() {
		ratios[ik.Planet] = ik.Ratio
	}

	var shadScore, bhavaScore, ishtaScore float64
	for _, pw := range a.PlanetWeights {
		shadScore += totals[pw.Planet] * pw.Weight
		r, ok := ratios[pw.Planet]
		if !ok {
			r = 0.5
		}
		ishtaScore += r * pw.Weight
	}
	for _, hw := range a.HouseWeights {
		bhavaScore += bhava[hw.House] * hw.Weight
	}

	natal := p.natalBonus(a, positions, req.Birth)

	dashaPenalty := 0.0
	if len(timeline) > 0 {
		if active, ok := timeline.Deepest(start); ok && afflictingLords[active.Lord] {
			dashaPenalty = a.DashaImpact
		}
	}

	multiplier, notes, err := p.periodMultiplier(start, req)
	if err != nil {
		return Window{}, err
	}

	raw := shadScore + bhavaScore + ishtaScore*a.IshtaImpact*10 + natal + dashaPenalty

	parts := make([]string, 0, len(a.PlanetWeights)+1)
	for _, pw := range a.PlanetWeights {
		parts = append(parts, fmt.Sprintf("%s:%.1f Ishta:%.2f", pw.Planet, totals[pw.Planet], ratios[pw.Planet]))
	}
	if len(notes) > 0 {
		parts = append(parts, "Penalties:"+strings.Join(notes, ","))
	}

	return Window{
		Start:       start,
		End:         start.Add(step),
		Score:       raw * multiplier,
		RawScore:    raw,
		Multiplier:  multiplier,
		Explanation: fmt.Sprintf("Planet strengths - %s; Bhava score %.1f", strings.Join(parts, "; "), bhavaScore),
	}, nil
}

func (p *Predictor) natalBonus(a Activity, positions map[models.Body]models.PlanetPosition, birth *Birth) float64 {
	if birth == nil || birth.Ashtakavarga == nil {
		return 0
	}
	bonus := 0.0
	for _, pw := range a.PlanetWeights {
		pos, ok := positions[pw.Planet]
		if !ok {
			continue
		}
		bindus := float64(birth.Ashtakavarga.Bindus(pw.Planet, pos.Sign()))
		if bindus > p.cfg.NatalThreshold {
			bonus += (bindus - p.cfg.NatalThreshold) * pw.Weight
		}
	}
	return bonus
}

// periodMultiplier compounds the multiplier of every daily period containing t.
func (p *Predictor) periodMultiplier(t time.Time, req Request) (float64, []string, error) {
	periods, err := p.eph.RahuKalamPeriods(t, req.Latitude, req.Longitude, req.TZOffsetHours)
	if err != nil {
		return 0, nil, fmt.Errorf("daily periods: %w", err)
	}
	m := 1.0
	var notes []string
	for _, pd := range periods {
		if !pd.Contains(t) {
			continue
		}
		if f, ok := periodMultipliers[pd.Name]; ok {
			m *= f
		}
		notes = append(notes, pd.Name)
	}
	return m, notes, nil
}
