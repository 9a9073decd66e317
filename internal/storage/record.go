// Package storage persists computed charts: JSON snapshot files (optionally
// zstd-compressed) and a SQLite archive of snapshots.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/seenimoa/jyotish/internal/strength"
	"github.com/seenimoa/jyotish/internal/varga"
	"github.com/seenimoa/jyotish/pkg/models"
)

// Metadata keys always written by NewMetadata.
const (
	MetaName      = "name"
	MetaDateTime  = "datetime"
	MetaLatitude  = "latitude"
	MetaLongitude = "longitude"
)

// compressedExt selects zstd framing for snapshot files.
const compressedExt = ".zst"

// Strengths holds the strength tables of a snapshot.
type Strengths struct {
	Shadbala    []strength.Shadbala      `json:"shadbala"`
	Bhavabala   []strength.HouseStrength `json:"bhavabala"`
	IshtaKashta []strength.IshtaKashta   `json:"ishta_kashta,omitempty"`
}

// Record is a serialisable chart snapshot.
type Record struct {
	Metadata            map[string]any               `json:"metadata"`
	PlanetaryPositions  []models.PositionRow         `json:"planetary_positions"`
	DivisionalPositions map[string][]varga.Placement `json:"divisional_positions"`
	Strengths           Strengths                    `json:"strengths"`
}

// NewMetadata returns the minimum metadata for a chart.
func NewMetadata(name string, t time.Time, lat, lon float64) map[string]any {
	return map[string]any{
		MetaName:      name,
		MetaDateTime:  t.Format(time.RFC3339),
		MetaLatitude:  lat,
		MetaLongitude: lon,
	}
}

// NewRecord assembles a snapshot from computed engine output.
func NewRecord(meta map[string]any, positions map[models.Body]models.PlanetPosition, vargas varga.Chart, calc *strength.Calculator) *Record {
	rec := &Record{
		Metadata:            meta,
		PlanetaryPositions:  models.PositionRows(positions),
		DivisionalPositions: vargas.Table(),
	}
	if calc != nil {
		rec.Strengths = Strengths{
			Shadbala:    calc.Shadbala(),
			Bhavabala:   calc.Bhavabala(),
			IshtaKashta: calc.IshtaKashta(),
		}
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	return rec
}

// Name returns the name metadata, or "" when absent.
func (r *Record) Name() string {
	s, _ := r.Metadata[MetaName].(string)
	return s
}

// DateTime parses the datetime metadata.
func (r *Record) DateTime() (time.Time, error) {
	s, _ := r.Metadata[MetaDateTime].(string)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("record datetime %q: %w", s, err)
	}
	return t, nil
}

// Location returns the latitude/longitude metadata. Missing values are 0.
func (r *Record) Location() (lat, lon float64) {
	lat, _ = r.Metadata[MetaLatitude].(float64)
	lon, _ = r.Metadata[MetaLongitude].(float64)
	return lat, lon
}

// Positions rebuilds the position map.
func (r *Record) Positions() map[models.Body]models.PlanetPosition {
	out := make(map[models.Body]models.PlanetPosition, len(r.PlanetaryPositions))
	for _, row := range r.PlanetaryPositions {
		out[row.Planet] = row.PlanetPosition
	}
	return out
}

// Encode writes the record as indented JSON.
func (r *Record) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Decode reads a JSON record. Missing sections decode as empty.
func Decode(rd io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(rd).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	if rec.DivisionalPositions == nil {
		rec.DivisionalPositions = map[string][]varga.Placement{}
	}
	return &rec, nil
}

// Save writes rec to path. A ".zst" suffix compresses the JSON.
func Save(rec *Record, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if !strings.HasSuffix(path, compressedExt) {
		if err := rec.Encode(bw); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		return bw.Flush()
	}

	zw, err := zstd.NewWriter(bw)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := rec.Encode(zw); err != nil {
		zw.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress %s: %w", path, err)
	}
	return bw.Flush()
}

// Load reads a snapshot written by Save.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rd io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, compressedExt) {
		zr, err := zstd.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer zr.Close()
		rd = zr
	}
	rec, err := Decode(rd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}
