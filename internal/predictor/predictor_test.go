package predictor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/jyotish/internal/ashtakavarga"
	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Stub provider
// ════════════════════════════════════════════════════════════════════

// frozenSky returns the same chart for every instant so scores only vary
// with the daily periods it reports.
type frozenSky struct {
	ephemeris.Provider
	periods []models.DailyPeriod
	failAt  time.Time
}

var errFrozen = errors.New("frozen sky failure")

func (f *frozenSky) Positions(t time.Time) (map[models.Body]models.PlanetPosition, error) {
	if !f.failAt.IsZero() && t.Equal(f.failAt) {
		return nil, errFrozen
	}
	out := make(map[models.Body]models.PlanetPosition, len(models.PrimaryBodies))
	for i, b := range models.PrimaryBodies {
		lon := float64(i * 25)
		out[b] = models.NewPlanetPosition(lon, 0, 1, lon, 0)
	}
	return out, nil
}

func (f *frozenSky) HouseCusps(time.Time, float64, float64) (models.HouseCusps, error) {
	var h models.HouseCusps
	for i := range h.Cusps {
		h.Cusps[i] = float64(i * 30)
	}
	return h, nil
}

func (f *frozenSky) RahuKalamPeriods(time.Time, float64, float64, *float64) ([]models.DailyPeriod, error) {
	return f.periods, nil
}

func newSky(t *testing.T) *frozenSky {
	t.Helper()
	p, err := ephemeris.NewApproximate(ephemeris.DefaultConfig())
	require.NoError(t, err)
	return &frozenSky{Provider: p}
}

var day = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

// ════════════════════════════════════════════════════════════════════
// Predict
// ════════════════════════════════════════════════════════════════════

func TestPredict_InvalidRange(t *testing.T) {
	p := New(newSky(t), Config{}, nil)
	_, err := p.Predict(context.Background(), Request{Activity: "Business", Start: day, End: day})
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = p.Predict(context.Background(), Request{Start: day, End: day.Add(time.Hour), IntervalMinutes: -5})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPredict_WindowsCoverRange(t *testing.T) {
	p := New(newSky(t), Config{Workers: 3}, nil)
	windows, err := p.Predict(context.Background(), Request{
		Activity: "Business",
		Start:    day,
		End:      day.Add(6 * time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, windows, 6)

	// Identical charts tie, so chronological order is kept.
	for i, w := range windows {
		assert.True(t, w.Start.Equal(day.Add(time.Duration(i)*time.Hour)))
		assert.Equal(t, time.Hour, w.End.Sub(w.Start))
		assert.Equal(t, 1.0, w.Multiplier)
		assert.InDelta(t, w.RawScore, w.Score, 1e-9)
		assert.True(t, strings.HasPrefix(w.Explanation, "Planet strengths - Mercury:"), w.Explanation)
	}
}

func TestPredict_PartialFinalInterval(t *testing.T) {
	p := New(newSky(t), Config{}, nil)
	windows, err := p.Predict(context.Background(), Request{
		Start:           day,
		End:             day.Add(50 * time.Minute),
		IntervalMinutes: 20,
	})
	require.NoError(t, err)
	assert.Len(t, windows, 3)
}

func TestPredict_RahuKalamMultiplies(t *testing.T) {
	sky := newSky(t)
	sky.periods = []models.DailyPeriod{
		{Name: models.RahuKalam, Start: day.Add(2 * time.Hour), End: day.Add(3 * time.Hour)},
		{Name: models.Yamaganda, Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
		{Name: models.GulikaKalam, Start: day.Add(12 * time.Hour), End: day.Add(13 * time.Hour)},
	}
	p := New(sky, Config{}, nil)
	windows, err := p.Predict(context.Background(), Request{Activity: "marriage", Start: day, End: day.Add(4 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, windows, 4)

	// The penalised window sorts last.
	last := windows[3]
	assert.True(t, last.Start.Equal(day.Add(2*time.Hour)))
	assert.Equal(t, 0.6, last.Multiplier)
	assert.InDelta(t, last.RawScore*0.6, last.Score, 1e-9)
	assert.Contains(t, last.Explanation, "Penalties:Rahu Kalam")
	assert.InDelta(t, windows[0].RawScore, last.RawScore, 1e-9)
}

func TestPredict_OverlappingPeriodsCompound(t *testing.T) {
	sky := newSky(t)
	sky.periods = []models.DailyPeriod{
		{Name: models.RahuKalam, Start: day, End: day.Add(time.Hour)},
		{Name: models.Yamaganda, Start: day, End: day.Add(time.Hour)},
	}
	windows, err := New(sky, Config{}, nil).Predict(context.Background(), Request{Start: day, End: day.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.InDelta(t, 0.45, windows[0].Multiplier, 1e-12)
	assert.Contains(t, windows[0].Explanation, "Penalties:Rahu Kalam,Yamaganda")
}

func TestPredict_FirstErrorAborts(t *testing.T) {
	sky := newSky(t)
	sky.failAt = day.Add(3 * time.Hour)
	_, err := New(sky, Config{Workers: 2}, nil).Predict(context.Background(), Request{Start: day, End: day.Add(8 * time.Hour)})
	require.Error(t, err)
	assert.ErrorIs(t, err, errFrozen)
}

func TestPredict_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(newSky(t), Config{}, nil).Predict(ctx, Request{Start: day, End: day.Add(4 * time.Hour)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict_IntervalLimit(t *testing.T) {
	p := New(newSky(t), Config{MaxIntervals: 10}, nil)

	// 24 hourly intervals exceed the limit.
	_, err := p.Predict(context.Background(), Request{Start: day, End: day.Add(24 * time.Hour)})
	assert.ErrorIs(t, err, ErrInvalidRange)

	// A partial final interval counts: 9h30m is ten intervals.
	windows, err := p.Predict(context.Background(), Request{Start: day, End: day.Add(9*time.Hour + 30*time.Minute)})
	require.NoError(t, err)
	assert.Len(t, windows, 10)

	// Years at one-minute steps are rejected before anything is allocated.
	_, err = New(newSky(t), Config{}, nil).Predict(context.Background(), Request{
		Start:           day,
		End:             day.AddDate(5, 0, 0),
		IntervalMinutes: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestPredict_CancelledBeforeValidation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(newSky(t), Config{}, nil).Predict(ctx, Request{
		Start:           day,
		End:             day.AddDate(5, 0, 0),
		IntervalMinutes: 1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredict_NatalBonus(t *testing.T) {
	sky := newSky(t)
	positions, _ := sky.Positions(day)

	sav := &ashtakavarga.SarvaChart{}
	jupiter := ashtakavarga.Row{Body: models.Jupiter}
	jupiter.Bindus[positions[models.Jupiter].Sign().Index()] = 7
	sav.Rows = append(sav.Rows, jupiter)

	req := Request{Activity: "unknown", Start: day, End: day.Add(time.Hour)}
	p := New(sky, Config{}, nil)
	base, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	req.Birth = &Birth{Ashtakavarga: sav}
	boosted, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	// Unknown activities weight Jupiter 1.0; 7 bindus exceed the threshold by 3.
	assert.InDelta(t, base[0].RawScore+3, boosted[0].RawScore, 1e-9)
}

func TestPredict_DashaPenalty(t *testing.T) {
	sky := newSky(t)
	p := New(sky, Config{DashaLevels: 1}, nil)
	req := Request{Activity: "Business", Start: day, End: day.Add(time.Hour)}
	base, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	// Moon at 0 starts the Ketu mahadasha, active for seven years.
	req.Birth = &Birth{Time: day.AddDate(-1, 0, 0), MoonLongitude: 0}
	penalised, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, base[0].RawScore-2.0, penalised[0].RawScore, 1e-9)

	// Venus follows Ketu and carries no penalty.
	req.Birth = &Birth{Time: day.AddDate(-8, 0, 0), MoonLongitude: 0}
	unaffected, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, base[0].RawScore, unaffected[0].RawScore, 1e-9)
}

func TestNewBirth(t *testing.T) {
	p, err := ephemeris.NewApproximate(ephemeris.DefaultConfig())
	require.NoError(t, err)
	b, err := NewBirth(p, time.Date(1990, 1, 15, 6, 30, 0, 0, time.UTC), 28.6, 77.2)
	require.NoError(t, err)
	require.NotNil(t, b.Ashtakavarga)
	assert.Len(t, b.Ashtakavarga.Rows, 7)
	assert.GreaterOrEqual(t, b.MoonLongitude, 0.0)
	assert.Less(t, b.MoonLongitude, 360.0)
}

// ════════════════════════════════════════════════════════════════════
// Activities
// ════════════════════════════════════════════════════════════════════

func TestLookupActivity(t *testing.T) {
	a := LookupActivity("  travel ")
	assert.Equal(t, "Travel", a.Name)
	assert.Equal(t, -1.0, a.DashaImpact)

	u := LookupActivity("Gardening")
	assert.Equal(t, "Gardening", u.Name)
	require.Len(t, u.PlanetWeights, 1)
	assert.Equal(t, models.Jupiter, u.PlanetWeights[0].Planet)
	assert.Empty(t, u.HouseWeights)
	assert.Zero(t, u.DashaImpact)
}

func TestActivityNames(t *testing.T) {
	assert.Equal(t, []string{"Business", "Exams", "Marriage", "Travel"}, ActivityNames())
}
