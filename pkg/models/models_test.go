package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestSignOf(t *testing.T) {
	tests := []struct {
		lon  float64
		want Sign
	}{
		{0, Aries},
		{29.999, Aries},
		{30, Taurus},
		{359.9, Pisces},
		{360, Aries},
		{-1, Pisces},
		{725, Aries},
	}
	for _, tt := range tests {
		if got := SignOf(tt.lon); got != tt.want {
			t.Errorf("SignOf(%v) = %v, want %v", tt.lon, got, tt.want)
		}
	}
}

func TestSignRulerAndParity(t *testing.T) {
	if Leo.Ruler() != Sun || Cancer.Ruler() != Moon || Aquarius.Ruler() != Saturn {
		t.Error("unexpected sign rulers")
	}
	if !Aries.IsOdd() || Taurus.IsOdd() || !Aquarius.IsOdd() {
		t.Error("unexpected sign parity")
	}
	if Sign(13).String() != "Taurus" || Sign(-1).String() != "Pisces" {
		t.Error("sign index should wrap")
	}
}

func TestSignJSON(t *testing.T) {
	data, err := json.Marshal(struct{ S Sign }{Scorpio})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"S":"Scorpio"}` {
		t.Errorf("marshal = %s", data)
	}

	var v struct{ S Sign }
	if err := json.Unmarshal([]byte(`{"S":"capricorn"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.S != Capricorn {
		t.Errorf("unmarshal = %v, want Capricorn", v.S)
	}
	if err := json.Unmarshal([]byte(`{"S":"Ophiuchus"}`), &v); err == nil {
		t.Error("expected error for unknown sign")
	}
}

func TestParseBody(t *testing.T) {
	tests := map[string]Body{
		"sun":       Sun,
		" Rahu ":    Rahu,
		"MANDI":     Mandi,
		"asc":       Ascendant,
		"Ascendant": Ascendant,
		"lagna":     Ascendant,
	}
	for in, want := range tests {
		got, err := ParseBody(in)
		if err != nil {
			t.Errorf("ParseBody(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseBody(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseBody("Vulcan"); err == nil {
		t.Error("expected error for unknown body")
	}
}

func TestIsPrimary(t *testing.T) {
	if !Ketu.IsPrimary() || !Pluto.IsPrimary() {
		t.Error("Ketu and Pluto are primary bodies")
	}
	if Gulika.IsPrimary() || Ascendant.IsPrimary() {
		t.Error("Gulika and Ascendant are not primary bodies")
	}
}

func TestNakshatraOf(t *testing.T) {
	tests := []struct {
		lon  float64
		want int
	}{
		{0, 0},
		{13.33, 0},
		{NakshatraSpan, 1},
		{359.99, 26},
		{-0.01, 26},
	}
	for _, tt := range tests {
		if got := NakshatraOf(tt.lon); got != tt.want {
			t.Errorf("NakshatraOf(%v) = %d, want %d", tt.lon, got, tt.want)
		}
	}
}

func TestNewPlanetPosition(t *testing.T) {
	p := NewPlanetPosition(-10, 1, -0.05, 0, 0)
	if math.Abs(p.Longitude-350) > 1e-9 {
		t.Errorf("longitude = %v, want 350", p.Longitude)
	}
	if !p.Retrograde {
		t.Error("negative speed should be retrograde")
	}
	if p.Sign() != Pisces {
		t.Errorf("sign = %v, want Pisces", p.Sign())
	}
	if NewPlanetPosition(10, 0, 1, 0, 0).Retrograde {
		t.Error("positive speed should be direct")
	}
}

func TestNewPlanetPosition_WrapPoint(t *testing.T) {
	for _, lon := range []float64{-1e-14, -1e-300, 360, 720 - 1e-13} {
		p := NewPlanetPosition(lon, 0, 1, 0, 0)
		if p.Longitude < 0 || p.Longitude >= 360 {
			t.Errorf("NewPlanetPosition(%v).Longitude = %v, want [0,360)", lon, p.Longitude)
		}
		if p.Sign() != Aries && p.Sign() != Pisces {
			t.Errorf("NewPlanetPosition(%v).Sign() = %v", lon, p.Sign())
		}
	}
}

func TestPositionRowsOrder(t *testing.T) {
	positions := map[Body]PlanetPosition{
		Ascendant: {Longitude: 5},
		Mandi:     {Longitude: 4},
		Ketu:      {Longitude: 3},
		Moon:      {Longitude: 2},
		Sun:       {Longitude: 1},
	}
	rows := PositionRows(positions)
	want := []Body{Sun, Moon, Ketu, Mandi, Ascendant}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, b := range want {
		if rows[i].Planet != b {
			t.Errorf("rows[%d] = %v, want %v", i, rows[i].Planet, b)
		}
	}
}

func TestHouseCusps(t *testing.T) {
	var h HouseCusps
	for i := range h.Cusps {
		h.Cusps[i] = math.Mod(100+float64(i)*30, 360)
	}

	if h.House(1) != 100 || h.House(13) != 100 || h.House(0) != h.Cusps[11] {
		t.Error("House should wrap modulo 12")
	}
	tests := []struct {
		lon  float64
		want int
	}{
		{100, 1},
		{129.9, 1},
		{130, 2},
		{99.9, 12},
		{280, 7},
	}
	for _, tt := range tests {
		if got := h.HouseOf(tt.lon); got != tt.want {
			t.Errorf("HouseOf(%v) = %d, want %d", tt.lon, got, tt.want)
		}
	}
	// Cusp 1 at 100° lies in Cancer.
	if h.Lord(1) != Moon {
		t.Errorf("Lord(1) = %v, want Moon", h.Lord(1))
	}
}

func TestDailyPeriodContains(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	p := DailyPeriod{Name: RahuKalam, Start: start, End: start.Add(90 * time.Minute)}
	if !p.Contains(start) {
		t.Error("start is inclusive")
	}
	if p.Contains(p.End) {
		t.Error("end is exclusive")
	}
	if p.Contains(start.Add(-time.Second)) {
		t.Error("before start is outside")
	}
}
