package ephemeris

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

const (
	delhiLat = 28.6139
	delhiLon = 77.2090
)

func ist() *time.Location { return utils.FixedZoneHours(5.5) }

func approx(t *testing.T) Provider {
	t.Helper()
	p, err := NewApproximate(DefaultConfig())
	require.NoError(t, err)
	return p
}

// ════════════════════════════════════════════════════════════════════
// Construction
// ════════════════════════════════════════════════════════════════════

func TestNew_ApproximateMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeApproximate
	p, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "approximate", p.Name())
	assert.Equal(t, "lahiri", p.Config().Ayanamsa)
	assert.Equal(t, "P", p.Config().HouseSystem)
}

func TestNew_UnsupportedHouseSystem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HouseSystem = "X"
	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ErrUnsupportedHouseSystem)
}

func TestNew_NoBackendFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "does-not-exist"
	p, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "approximate", p.Name())
}

func TestNew_UnavailableBackendFallsBack(t *testing.T) {
	RegisterBackend("broken", func() (Backend, error) {
		return &fakeBackend{unavailable: errors.New("no data files")}, nil
	})
	t.Cleanup(func() { UnregisterBackend("broken") })

	cfg := DefaultConfig()
	cfg.Backend = "broken"
	p, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "approximate", p.Name())
}

func TestNew_RegisteredBackend(t *testing.T) {
	RegisterBackend("fake", func() (Backend, error) { return &fakeBackend{}, nil })
	t.Cleanup(func() { UnregisterBackend("fake") })

	cfg := DefaultConfig()
	cfg.Backend = "fake"
	p, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "precise", p.Name())
}

func TestConfigResolve(t *testing.T) {
	c, err := Config{Ayanamsa: "  Raman ", HouseSystem: "w"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "raman", c.Ayanamsa)
	assert.Equal(t, "W", c.HouseSystem)

	c, err = Config{Ayanamsa: "bogus"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "lahiri", c.Ayanamsa)
	assert.Equal(t, "P", c.HouseSystem)
}

func TestWithConfig(t *testing.T) {
	p := approx(t)
	q, err := p.WithConfig(Config{Ayanamsa: "krishnamurti", HouseSystem: "E"})
	require.NoError(t, err)
	assert.Equal(t, "krishnamurti", q.Config().Ayanamsa)
	assert.Equal(t, "lahiri", p.Config().Ayanamsa, "original provider must not change")

	_, err = p.WithConfig(Config{HouseSystem: "Z"})
	assert.ErrorIs(t, err, ErrUnsupportedHouseSystem)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"precise", ModePrecise},
		{"APPROXIMATE", ModeApproximate},
		{"fallback", ModeApproximate},
		{"auto", ModeAuto},
		{"", ModeAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseMode(tt.in), tt.in)
	}
	assert.Equal(t, "precise", ModePrecise.String())
}

// ════════════════════════════════════════════════════════════════════
// Approximate strategy
// ════════════════════════════════════════════════════════════════════

func TestJulianDay(t *testing.T) {
	jd := JulianDay(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.InDelta(t, 2451545.0, jd, 1e-9)

	back := TimeFromJulianDay(jd)
	assert.WithinDuration(t, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), back, time.Millisecond)
}

func TestApproximatePositions(t *testing.T) {
	p := approx(t)
	at := time.Date(2023, 6, 1, 6, 0, 0, 0, ist())
	pos, err := p.Positions(at)
	require.NoError(t, err)
	require.Len(t, pos, len(models.PrimaryBodies))

	for b, pp := range pos {
		assert.GreaterOrEqual(t, pp.Longitude, 0.0, b)
		assert.Less(t, pp.Longitude, 360.0, b)
	}
	assert.True(t, pos[models.Rahu].Retrograde)
	assert.True(t, pos[models.Ketu].Retrograde)
	assert.False(t, pos[models.Sun].Retrograde)
	assert.InDelta(t, 180.0, utils.AngularDistance(pos[models.Rahu].Longitude, pos[models.Ketu].Longitude), 1e-9)

	next, err := p.Positions(at.Add(24 * time.Hour))
	require.NoError(t, err)
	step := utils.Normalize(next[models.Sun].Longitude - pos[models.Sun].Longitude)
	assert.InDelta(t, 360/365.256, step, 1e-6)
}

func TestEclipticToEquatorial(t *testing.T) {
	tests := []struct {
		lon, ra, dec float64
	}{
		{0, 0, 0},
		{90, 90, Obliquity},
		{180, 180, 0},
		{270, 270, -Obliquity},
	}
	for _, tt := range tests {
		ra, dec := eclipticToEquatorial(tt.lon)
		assert.InDelta(t, tt.ra, ra, 1e-9, "ra at %v", tt.lon)
		assert.InDelta(t, tt.dec, dec, 1e-9, "dec at %v", tt.lon)
	}

	// RA runs ahead of longitude in the first quadrant.
	ra, _ := eclipticToEquatorial(45)
	assert.Less(t, ra, 45.0)
	assert.Greater(t, ra, 40.0)
}

func TestApproximatePositions_Equatorial(t *testing.T) {
	p, err := NewApproximate(DefaultConfig())
	require.NoError(t, err)
	at := time.Date(2023, 6, 21, 6, 0, 0, 0, ist())
	pos, err := p.Positions(at)
	require.NoError(t, err)

	ayan := AyanamsaAt(p.Config().Ayanamsa, at)
	require.Greater(t, ayan, 20.0)
	for b, pp := range pos {
		ra, dec := eclipticToEquatorial(pp.Longitude + ayan)
		assert.InDelta(t, ra, pp.RightAscension, 1e-9, b)
		assert.InDelta(t, dec, pp.Declination, 1e-9, b)
		assert.LessOrEqual(t, math.Abs(pp.Declination), Obliquity+1e-9, b)
	}

	// RA follows the tropical longitude, not the sidereal one.
	sun := pos[models.Sun]
	assert.Greater(t, utils.AngularDistance(sun.RightAscension, sun.Longitude), 15.0)
}

func TestApproximateHouses(t *testing.T) {
	p := approx(t)
	at := time.Date(2023, 6, 1, 6, 0, 0, 0, ist())
	h, err := p.HouseCusps(at, delhiLat, delhiLon)
	require.NoError(t, err)

	asc, err := p.Ascendant(at, delhiLat, delhiLon)
	require.NoError(t, err)
	assert.InDelta(t, asc, h.Asc, 1e-9)
	assert.InDelta(t, asc, h.Cusps[0], 1e-9)
	for i := 1; i < 12; i++ {
		assert.InDelta(t, 30.0, utils.Normalize(h.Cusps[i]-h.Cusps[i-1]), 1e-9)
	}
	assert.GreaterOrEqual(t, h.MC, 0.0)
	assert.Less(t, h.MC, 360.0)
}

func TestAyanamsaShiftsAscendant(t *testing.T) {
	at := time.Date(2023, 6, 1, 6, 0, 0, 0, ist())
	lahiri := approx(t)
	raman, err := lahiri.WithConfig(Config{Ayanamsa: "raman"})
	require.NoError(t, err)

	a1, _ := lahiri.Ascendant(at, delhiLat, delhiLon)
	a2, _ := raman.Ascendant(at, delhiLat, delhiLon)
	assert.InDelta(t, 23.853-22.411, utils.Normalize(a2-a1), 1e-9)
}

func TestSunriseSunset_Delhi(t *testing.T) {
	tz := 5.5
	rs, err := approx(t).SunriseSunset(time.Date(2023, 6, 1, 12, 0, 0, 0, ist()), delhiLat, delhiLon, &tz)
	require.NoError(t, err)
	require.NotNil(t, rs)

	day := time.Date(2023, 6, 1, 0, 0, 0, 0, ist())
	assert.WithinDuration(t, day.Add(5*time.Hour+24*time.Minute), rs.Sunrise, 5*time.Minute)
	assert.WithinDuration(t, day.Add(19*time.Hour+14*time.Minute), rs.Sunset, 5*time.Minute)
	assert.True(t, rs.Sunset.After(rs.Sunrise))
}

func TestSunriseSunset_PolarDay(t *testing.T) {
	tz := 1.0
	rs, err := approx(t).SunriseSunset(time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC), 78.2, 15.6, &tz)
	require.NoError(t, err)
	assert.Nil(t, rs)
}

func TestRahuKalam_Thursday(t *testing.T) {
	tz := 5.5
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, ist())
	p := approx(t)
	periods, err := p.RahuKalamPeriods(at, delhiLat, delhiLon, &tz)
	require.NoError(t, err)
	require.Len(t, periods, 3)

	rs, _ := p.SunriseSunset(at, delhiLat, delhiLon, &tz)
	segment := rs.Sunset.Sub(rs.Sunrise) / 8

	assert.Equal(t, models.RahuKalam, periods[0].Name)
	assert.WithinDuration(t, rs.Sunrise.Add(5*segment), periods[0].Start, 0)
	assert.Equal(t, models.Yamaganda, periods[1].Name)
	assert.WithinDuration(t, rs.Sunrise, periods[1].Start, 0)
	assert.Equal(t, models.GulikaKalam, periods[2].Name)
	assert.WithinDuration(t, rs.Sunrise.Add(2*segment), periods[2].Start, 0)
	for _, pd := range periods {
		assert.Equal(t, segment, pd.End.Sub(pd.Start))
	}
}

func TestRahuKalam_PolarUsesFixedDay(t *testing.T) {
	tz := 1.0
	at := time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC) // Wednesday
	periods, err := approx(t).RahuKalamPeriods(at, 78.2, 15.6, &tz)
	require.NoError(t, err)
	require.Len(t, periods, 3)

	noon := time.Date(2023, 6, 21, 12, 0, 0, 0, utils.FixedZoneHours(1))
	assert.True(t, periods[0].Start.Equal(noon), "got %v", periods[0].Start)
	assert.Equal(t, 90*time.Minute, periods[0].End.Sub(periods[0].Start))
}

func TestUpagrahas(t *testing.T) {
	p := approx(t)
	at := time.Date(2023, 6, 1, 6, 0, 0, 0, ist())

	up, err := p.Upagrahas(at, nil)
	require.NoError(t, err)
	jd := JulianDay(at)
	assert.InDelta(t, math.Mod(jd*13.176396, 360), up[models.Gulika].Longitude, 1e-6)
	assert.InDelta(t, math.Mod(jd*11.0, 360), up[models.Mandi].Longitude, 1e-6)

	up, err = p.Upagrahas(at, &models.Location{Latitude: delhiLat, Longitude: delhiLon})
	require.NoError(t, err)
	require.Len(t, up, 2)
	for _, b := range models.Upagrahas {
		assert.GreaterOrEqual(t, up[b].Longitude, 0.0)
		assert.Less(t, up[b].Longitude, 360.0)
	}
	assert.NotEqual(t, up[models.Gulika].Longitude, up[models.Mandi].Longitude)
}

func TestBodyRiseSet(t *testing.T) {
	tz := 5.5
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, ist())
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, ist())
	p := approx(t)

	rise, set, err := p.BodyRiseSet(at, delhiLat, delhiLon, models.Moon, &tz)
	require.NoError(t, err)
	require.NotNil(t, rise)
	require.NotNil(t, set)
	for _, tm := range []time.Time{*rise, *set} {
		assert.False(t, tm.Before(day), tm)
		assert.True(t, tm.Before(day.Add(24*time.Hour)), tm)
	}

	rise, set, err = p.BodyRiseSet(at, delhiLat, delhiLon, models.Sun, &tz)
	require.NoError(t, err)
	require.NotNil(t, rise)
	assert.True(t, set.After(*rise))

	_, _, err = p.BodyRiseSet(at, delhiLat, delhiLon, models.Gulika, &tz)
	assert.ErrorIs(t, err, ErrUnknownBody)
}

// ════════════════════════════════════════════════════════════════════
// Precise strategy
// ════════════════════════════════════════════════════════════════════

type fakeBackend struct {
	unavailable error
}

func (f *fakeBackend) Name() string     { return "fake" }
func (f *fakeBackend) Available() error { return f.unavailable }

func (f *fakeBackend) Ayanamsa(float64, int) (float64, error) { return 24, nil }

func (f *fakeBackend) Ecliptic(_ float64, body models.Body) (Ecliptic, error) {
	lon := map[models.Body]float64{
		models.Sun: 100, models.Moon: 10, models.Rahu: 50,
	}[body]
	speed := 1.0
	if body == models.Rahu {
		speed = -0.05
	}
	return Ecliptic{Longitude: lon, Speed: speed, RightAscension: lon, Declination: 5}, nil
}

func (f *fakeBackend) Houses(float64, float64, float64, byte) ([12]float64, float64, float64, error) {
	var c [12]float64
	for i := range c {
		c[i] = float64(i)*30 + 10
	}
	return c, 10, 280, nil
}

func (f *fakeBackend) RiseSet(jd, _, _ float64, body models.Body) (float64, float64, error) {
	switch body {
	case models.Sun:
		return jd + 0.25, jd + 0.75, nil
	case models.Moon:
		return 0, 0, ErrNoEvent
	default:
		return 0, 0, errors.New("not supported")
	}
}

func precise(t *testing.T) *Precise {
	t.Helper()
	p, err := NewPrecise(DefaultConfig(), &fakeBackend{}, nil)
	require.NoError(t, err)
	return p
}

func TestPrecisePositions(t *testing.T) {
	pos, err := precise(t).Positions(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, pos, len(models.PrimaryBodies))

	assert.InDelta(t, 76.0, pos[models.Sun].Longitude, 1e-9)
	assert.InDelta(t, 346.0, pos[models.Moon].Longitude, 1e-9)
	assert.InDelta(t, 26.0, pos[models.Rahu].Longitude, 1e-9)
	assert.InDelta(t, 206.0, pos[models.Ketu].Longitude, 1e-9)
	assert.True(t, pos[models.Ketu].Retrograde)
	assert.InDelta(t, -5.0, pos[models.Ketu].Declination, 1e-9)
}

func TestPreciseHouses(t *testing.T) {
	h, err := precise(t).HouseCusps(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), delhiLat, delhiLon)
	require.NoError(t, err)
	assert.InDelta(t, 346.0, h.Asc, 1e-9)
	assert.InDelta(t, 256.0, h.MC, 1e-9)
	assert.InDelta(t, 16.0, h.Cusps[1], 1e-9)
}

func TestPreciseRiseSet(t *testing.T) {
	tz := 5.5
	p := precise(t)
	at := time.Date(2023, 6, 1, 12, 0, 0, 0, ist())
	day := time.Date(2023, 6, 1, 0, 0, 0, 0, ist())

	rs, err := p.SunriseSunset(at, delhiLat, delhiLon, &tz)
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.WithinDuration(t, day.Add(6*time.Hour), rs.Sunrise, time.Second)
	assert.WithinDuration(t, day.Add(18*time.Hour), rs.Sunset, time.Second)

	rise, set, err := p.BodyRiseSet(at, delhiLat, delhiLon, models.Moon, &tz)
	require.NoError(t, err)
	assert.Nil(t, rise)
	assert.Nil(t, set)

	// Backend error falls back to the transit estimate.
	rise, set, err = p.BodyRiseSet(at, delhiLat, delhiLon, models.Jupiter, &tz)
	require.NoError(t, err)
	assert.NotNil(t, rise)
	assert.NotNil(t, set)

	_, _, err = p.BodyRiseSet(at, delhiLat, delhiLon, models.Mandi, &tz)
	assert.ErrorIs(t, err, ErrUnknownBody)
}

func TestNewPrecise_Unavailable(t *testing.T) {
	_, err := NewPrecise(DefaultConfig(), &fakeBackend{unavailable: errors.New("missing")}, nil)
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestWithAyanamsaAndHouseSystem(t *testing.T) {
	p := approx(t)
	q, err := WithAyanamsa(p, "raman")
	require.NoError(t, err)
	assert.Equal(t, "raman", q.Config().Ayanamsa)
	assert.Equal(t, "approximate", q.Name())

	q, err = WithHouseSystem(q, "e")
	require.NoError(t, err)
	assert.Equal(t, "E", q.Config().HouseSystem)
	assert.Equal(t, "raman", q.Config().Ayanamsa)

	_, err = WithHouseSystem(p, "Q")
	assert.ErrorIs(t, err, ErrUnsupportedHouseSystem)
}

func TestAyanamsaAt(t *testing.T) {
	epoch := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.InDelta(t, 23.853, AyanamsaAt("lahiri", epoch), 1e-6)
	assert.InDelta(t, 22.411, AyanamsaAt("Raman", epoch), 1e-6)
	assert.InDelta(t, AyanamsaAt("lahiri", epoch), AyanamsaAt("bogus", epoch), 1e-12)

	later := epoch.AddDate(100, 0, 0)
	assert.InDelta(t, 100*50.29/3600, AyanamsaAt("lahiri", later)-AyanamsaAt("lahiri", epoch), 0.01)
}
