// Package chart assembles a natal chart for one instant and place from the
// ephemeris, divisional and strength engines. The CLI and the HTTP API both
// build their responses from it.
package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/jyotish/internal/ashtakavarga"
	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/ephemeris"
	"github.com/seenimoa/jyotish/internal/storage"
	"github.com/seenimoa/jyotish/internal/strength"
	"github.com/seenimoa/jyotish/internal/varga"
	"github.com/seenimoa/jyotish/internal/yoga"
	"github.com/seenimoa/jyotish/pkg/models"
	"github.com/seenimoa/jyotish/pkg/utils"
)

// ErrInvalidObserver is returned for coordinates or offsets out of range.
var ErrInvalidObserver = errors.New("invalid observer")

// Observer is the instant and place a chart is cast for.
type Observer struct {
	At            time.Time `json:"at"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	TZOffsetHours float64   `json:"tz_offset_hours"`
}

// TZ returns the offset as the optional form the engines take.
func (o Observer) TZ() *float64 {
	v := o.TZOffsetHours
	return &v
}

// Location returns the geographic part of o.
func (o Observer) Location() *models.Location {
	return &models.Location{Latitude: o.Latitude, Longitude: o.Longitude}
}

// Validate checks coordinate and offset ranges.
func (o Observer) Validate() error {
	switch {
	case o.Latitude < -90 || o.Latitude > 90:
		return fmt.Errorf("%w: latitude %v", ErrInvalidObserver, o.Latitude)
	case o.Longitude < -180 || o.Longitude > 180:
		return fmt.Errorf("%w: longitude %v", ErrInvalidObserver, o.Longitude)
	case o.TZOffsetHours < -14 || o.TZOffsetHours > 14:
		return fmt.Errorf("%w: tz offset %v", ErrInvalidObserver, o.TZOffsetHours)
	}
	return nil
}

// ParseInstant reads s in the observer's fixed zone. Empty means now.
func ParseInstant(s string, tzOffsetHours float64) (time.Time, error) {
	loc := utils.FixedZoneHours(tzOffsetHours)
	if s == "" {
		return time.Now().In(loc), nil
	}
	return utils.ParseInstant(s, loc)
}

// Natal is the computed chart.
type Natal struct {
	Observer  Observer                              `json:"observer"`
	Positions map[models.Body]models.PlanetPosition `json:"-"` // primary bodies plus upagrahas
	Cusps     models.HouseCusps                     `json:"houses"`
	Vargas    varga.Chart                           `json:"-"`
}

// Compute casts the chart for o. divs nil computes every division.
func Compute(eph ephemeris.Provider, o Observer, divs []varga.Division) (*Natal, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	positions, err := eph.Positions(o.At)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	upa, err := eph.Upagrahas(o.At, o.Location())
	if err != nil {
		return nil, fmt.Errorf("upagrahas: %w", err)
	}
	for b, p := range upa {
		positions[b] = p
	}
	cusps, err := eph.HouseCusps(o.At, o.Latitude, o.Longitude)
	if err != nil {
		return nil, fmt.Errorf("houses: %w", err)
	}
	vargas, err := varga.Compute(divs, models.Longitudes(positions))
	if err != nil {
		return nil, err
	}
	return &Natal{Observer: o, Positions: positions, Cusps: cusps, Vargas: vargas}, nil
}

// Longitudes returns the longitude of every computed body.
func (n *Natal) Longitudes() map[models.Body]float64 {
	return models.Longitudes(n.Positions)
}

// Rows returns the positions table.
func (n *Natal) Rows() []models.PositionRow {
	return models.PositionRows(n.Positions)
}

// Strength returns a calculator over the chart.
func (n *Natal) Strength() *strength.Calculator {
	return strength.New(n.Positions, n.Cusps, n.Vargas)
}

// Ashtakavarga returns the per-planet and composite bindu tables.
func (n *Natal) Ashtakavarga() (map[models.Body]*ashtakavarga.Chart, *ashtakavarga.SarvaChart) {
	bav := ashtakavarga.Bhinnashtakavarga(n.Longitudes(), n.Cusps.Asc)
	return bav, ashtakavarga.Sarvashtakavarga(bav)
}

// Dasha returns the Vimshottari timeline with the chart instant as birth.
func (n *Natal) Dasha(levels int) (dasha.Timeline, error) {
	moon, ok := n.Positions[models.Moon]
	if !ok {
		return nil, fmt.Errorf("dasha: %w: Moon missing", ephemeris.ErrUnknownBody)
	}
	return dasha.Vimshottari(moon.Longitude, n.Observer.At, levels)
}

// Yogas evaluates d against the chart.
func (n *Natal) Yogas(d *yoga.Detector) []yoga.Match {
	return d.Detect(n.Cusps, n.Longitudes())
}

// Record builds a snapshot named name.
func (n *Natal) Record(name string) *storage.Record {
	o := n.Observer
	return storage.NewRecord(
		storage.NewMetadata(name, o.At, o.Latitude, o.Longitude),
		n.Positions, n.Vargas, n.Strength(),
	)
}
