package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/seenimoa/jyotish/internal/ephemeris"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	for _, e := range []string{"JYOTISH_EPHEMERIS_AYANAMSA", "JYOTISH_LOCATION_LATITUDE", "JYOTISH_LOGGING_LEVEL"} {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Ephemeris defaults
	if cfg.Ephemeris.Ayanamsa != "lahiri" {
		t.Errorf("Ephemeris.Ayanamsa: got %q, want %q", cfg.Ephemeris.Ayanamsa, "lahiri")
	}
	if cfg.Ephemeris.HouseSystem != "P" {
		t.Errorf("Ephemeris.HouseSystem: got %q, want %q", cfg.Ephemeris.HouseSystem, "P")
	}
	if cfg.Ephemeris.Mode != "auto" {
		t.Errorf("Ephemeris.Mode: got %q, want %q", cfg.Ephemeris.Mode, "auto")
	}

	// Location defaults
	if cfg.Location.Latitude != 28.6139 {
		t.Errorf("Location.Latitude: got %f, want 28.6139", cfg.Location.Latitude)
	}
	if cfg.Location.Longitude != 77.2090 {
		t.Errorf("Location.Longitude: got %f, want 77.2090", cfg.Location.Longitude)
	}
	if cfg.Location.TZOffsetHours != 5.5 {
		t.Errorf("Location.TZOffsetHours: got %f, want 5.5", cfg.Location.TZOffsetHours)
	}

	// Predictor defaults
	if cfg.Predictor.IntervalMinutes != 60 {
		t.Errorf("Predictor.IntervalMinutes: got %d, want 60", cfg.Predictor.IntervalMinutes)
	}
	if cfg.Predictor.Workers != 4 {
		t.Errorf("Predictor.Workers: got %d, want 4", cfg.Predictor.Workers)
	}
	if cfg.Predictor.DashaLevels != 2 {
		t.Errorf("Predictor.DashaLevels: got %d, want 2", cfg.Predictor.DashaLevels)
	}
	if cfg.Predictor.NatalThreshold != 4 {
		t.Errorf("Predictor.NatalThreshold: got %f, want 4", cfg.Predictor.NatalThreshold)
	}
	if cfg.Predictor.MaxIntervals != 10000 {
		t.Errorf("Predictor.MaxIntervals: got %d, want 10000", cfg.Predictor.MaxIntervals)
	}
	if cfg.Dasha.Levels != 3 {
		t.Errorf("Dasha.Levels: got %d, want 3", cfg.Dasha.Levels)
	}

	// Paths are expanded
	if filepath.Base(cfg.Storage.ArchivePath) != "charts.db" || !filepath.IsAbs(cfg.Storage.ArchivePath) {
		t.Errorf("Storage.ArchivePath: got %q", cfg.Storage.ArchivePath)
	}

	// API defaults
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "*" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
ephemeris:
  ayanamsa: "raman"
  house_system: "w"
  mode: "approximate"
location:
  latitude: 13.0827
  longitude: 80.2707
predictor:
  interval_minutes: 30
  workers: 8
storage:
  archive_path: "/tmp/jyotish/charts.db"
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	os.Unsetenv("JYOTISH_EPHEMERIS_AYANAMSA")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Ephemeris.Ayanamsa != "raman" {
		t.Errorf("Ephemeris.Ayanamsa: got %q, want %q", cfg.Ephemeris.Ayanamsa, "raman")
	}
	if cfg.Location.Latitude != 13.0827 {
		t.Errorf("Location.Latitude: got %f, want 13.0827", cfg.Location.Latitude)
	}
	if cfg.Location.TZOffsetHours != 5.5 {
		t.Errorf("unset keys keep defaults: got %f, want 5.5", cfg.Location.TZOffsetHours)
	}
	if cfg.Predictor.IntervalMinutes != 30 {
		t.Errorf("Predictor.IntervalMinutes: got %d, want 30", cfg.Predictor.IntervalMinutes)
	}
	if cfg.Predictor.Workers != 8 {
		t.Errorf("Predictor.Workers: got %d, want 8", cfg.Predictor.Workers)
	}
	if cfg.Storage.ArchivePath != "/tmp/jyotish/charts.db" {
		t.Errorf("Storage.ArchivePath: got %q", cfg.Storage.ArchivePath)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}

	eph := cfg.EphemerisSettings()
	if eph.Mode != ephemeris.ModeApproximate {
		t.Errorf("EphemerisSettings().Mode: got %v, want approximate", eph.Mode)
	}
	resolved, err := eph.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if resolved.HouseSystem != "W" {
		t.Errorf("HouseSystem: got %q, want %q", resolved.HouseSystem, "W")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("JYOTISH_EPHEMERIS_AYANAMSA", "krishnamurti")
	t.Setenv("JYOTISH_PREDICTOR_WORKERS", "2")

	cfgPath := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(cfgPath, []byte("ephemeris:\n  ayanamsa: raman\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Ephemeris.Ayanamsa != "krishnamurti" {
		t.Errorf("env should win over file: got %q", cfg.Ephemeris.Ayanamsa)
	}
	if cfg.Predictor.Workers != 2 {
		t.Errorf("Predictor.Workers: got %d, want 2", cfg.Predictor.Workers)
	}
}

// ── Validate ──

func validConfig() *Config {
	return &Config{
		Ephemeris: EphemerisConfig{Ayanamsa: "lahiri", HouseSystem: "P", Mode: "auto"},
		Location:  LocationConfig{Latitude: 28.6, Longitude: 77.2, TZOffsetHours: 5.5},
		Predictor: PredictorConfig{IntervalMinutes: 60, Workers: 4, DashaLevels: 2, NatalThreshold: 4, MaxIntervals: 10000},
		Dasha:     DashaConfig{Levels: 3},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"house system", func(c *Config) { c.Ephemeris.HouseSystem = "X" }},
		{"latitude", func(c *Config) { c.Location.Latitude = 91 }},
		{"longitude", func(c *Config) { c.Location.Longitude = -181 }},
		{"tz offset", func(c *Config) { c.Location.TZOffsetHours = 15 }},
		{"interval", func(c *Config) { c.Predictor.IntervalMinutes = 0 }},
		{"workers", func(c *Config) { c.Predictor.Workers = -1 }},
		{"max intervals", func(c *Config) { c.Predictor.MaxIntervals = 0 }},
		{"predictor dasha levels", func(c *Config) { c.Predictor.DashaLevels = 6 }},
		{"dasha levels", func(c *Config) { c.Dasha.Levels = 0 }},
		{"api port", func(c *Config) { c.API.Port = 70000 }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate(): got %v, want ErrInvalid", err)
			}
		})
	}

	cfg := validConfig()
	cfg.Ephemeris.HouseSystem = "X"
	if err := cfg.Validate(); !errors.Is(err, ephemeris.ErrUnsupportedHouseSystem) {
		t.Errorf("Validate(): got %v, want ErrUnsupportedHouseSystem", err)
	}
}

// ── Sources ──

func TestSources(t *testing.T) {
	t.Setenv("JYOTISH_LOGGING_LEVEL", "debug")
	os.Unsetenv("JYOTISH_EPHEMERIS_AYANAMSA")
	os.Unsetenv("JYOTISH_LOCATION_LATITUDE")

	cfg := validConfig()
	cfg.Ephemeris.Ayanamsa = "raman"
	cfg.Location.Latitude = 28.6139
	cfg.Logging.Level = "debug"

	got := map[string]SettingStatus{}
	for _, s := range Sources(cfg) {
		got[s.Key] = s
	}

	if s := got["ephemeris.ayanamsa"]; s.Source != SourceConfig || s.Value != "raman" {
		t.Errorf("ayanamsa: got %+v", s)
	}
	if s := got["location.latitude"]; s.Source != SourceDefault {
		t.Errorf("latitude: got %+v", s)
	}
	if s := got["logging.level"]; s.Source != SourceEnv || s.EnvVar != "JYOTISH_LOGGING_LEVEL" {
		t.Errorf("logging.level: got %+v", s)
	}
}

func TestEnvVar(t *testing.T) {
	if got := EnvVar("storage.archive_path"); got != "JYOTISH_STORAGE_ARCHIVE_PATH" {
		t.Errorf("EnvVar: got %q", got)
	}
}

// ── paths ──

func TestExpandAndAbbreviateHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := expandHome("~/x/charts.db"); got != filepath.Join(home, "x", "charts.db") {
		t.Errorf("expandHome: got %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome absolute: got %q", got)
	}
	if got := abbreviateHome(filepath.Join(home, "charts.db")); got != "~/charts.db" {
		t.Errorf("abbreviateHome: got %q", got)
	}
	if got := abbreviateHome("/elsewhere"); got != "/elsewhere" {
		t.Errorf("abbreviateHome outside home: got %q", got)
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() should not return empty string")
	}
}
