// Package config handles configuration loading for jyotish.
// It supports YAML config files with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/seenimoa/jyotish/internal/dasha"
	"github.com/seenimoa/jyotish/internal/ephemeris"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JYOTISH"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the complete application configuration.
type Config struct {
	Ephemeris EphemerisConfig `mapstructure:"ephemeris" yaml:"ephemeris"`
	Location  LocationConfig  `mapstructure:"location"  yaml:"location"`
	Predictor PredictorConfig `mapstructure:"predictor" yaml:"predictor"`
	Dasha     DashaConfig     `mapstructure:"dasha"     yaml:"dasha"`
	Yoga      YogaConfig      `mapstructure:"yoga"      yaml:"yoga"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// EphemerisConfig selects the position strategy.
type EphemerisConfig struct {
	Ayanamsa    string `mapstructure:"ayanamsa"     yaml:"ayanamsa"`     // "lahiri", "raman", ...
	HouseSystem string `mapstructure:"house_system" yaml:"house_system"` // P/K/O/R/C/E/H/W
	Mode        string `mapstructure:"mode"         yaml:"mode"`         // "auto", "precise", "approximate"
	Backend     string `mapstructure:"backend"      yaml:"backend"`      // registered backend name, "" probes all
}

// LocationConfig is the default observer.
type LocationConfig struct {
	Latitude      float64 `mapstructure:"latitude"        yaml:"latitude"`
	Longitude     float64 `mapstructure:"longitude"       yaml:"longitude"`
	TZOffsetHours float64 `mapstructure:"tz_offset_hours" yaml:"tz_offset_hours"`
}

// PredictorConfig tunes the activity scan.
type PredictorConfig struct {
	IntervalMinutes int     `mapstructure:"interval_minutes" yaml:"interval_minutes"`
	Workers         int     `mapstructure:"workers"          yaml:"workers"`
	DashaLevels     int     `mapstructure:"dasha_levels"     yaml:"dasha_levels"`
	NatalThreshold  float64 `mapstructure:"natal_threshold"  yaml:"natal_threshold"`
	MaxIntervals    int     `mapstructure:"max_intervals"    yaml:"max_intervals"`
	Top             int     `mapstructure:"top"              yaml:"top"` // windows shown, 0 = all
}

// DashaConfig holds the default timeline depth.
type DashaConfig struct {
	Levels int `mapstructure:"levels" yaml:"levels"`
}

// YogaConfig locates the rule file.
type YogaConfig struct {
	RulesFile string `mapstructure:"rules_file" yaml:"rules_file"` // missing file uses built-in rules
}

// StorageConfig locates the chart archive.
type StorageConfig struct {
	ArchivePath string `mapstructure:"archive_path" yaml:"archive_path"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// EphemerisSettings converts the section to the provider configuration.
func (c *Config) EphemerisSettings() ephemeris.Config {
	return ephemeris.Config{
		Ayanamsa:    c.Ephemeris.Ayanamsa,
		HouseSystem: c.Ephemeris.HouseSystem,
		Backend:     c.Ephemeris.Backend,
		Mode:        ephemeris.ParseMode(c.Ephemeris.Mode),
	}
}

// Validate rejects settings no engine can serve.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.EphemerisSettings().Resolve(); err != nil {
		errs = append(errs, err)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		errs = append(errs, fmt.Errorf("location.latitude %v out of range", c.Location.Latitude))
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		errs = append(errs, fmt.Errorf("location.longitude %v out of range", c.Location.Longitude))
	}
	if c.Location.TZOffsetHours < -14 || c.Location.TZOffsetHours > 14 {
		errs = append(errs, fmt.Errorf("location.tz_offset_hours %v out of range", c.Location.TZOffsetHours))
	}
	if c.Predictor.IntervalMinutes <= 0 {
		errs = append(errs, errors.New("predictor.interval_minutes must be positive"))
	}
	if c.Predictor.Workers <= 0 {
		errs = append(errs, errors.New("predictor.workers must be positive"))
	}
	if c.Predictor.MaxIntervals <= 0 {
		errs = append(errs, errors.New("predictor.max_intervals must be positive"))
	}
	if c.Predictor.DashaLevels < 1 || c.Predictor.DashaLevels > dasha.MaxLevels {
		errs = append(errs, fmt.Errorf("predictor.dasha_levels must be 1-%d", dasha.MaxLevels))
	}
	if c.Dasha.Levels < 1 || c.Dasha.Levels > dasha.MaxLevels {
		errs = append(errs, fmt.Errorf("dasha.levels must be 1-%d", dasha.MaxLevels))
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be text or json", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.jyotish/config.yaml (home directory)
//  3. /etc/jyotish/config.yaml (system)
//
// Environment variables override config file values.
// Format: JYOTISH_<SECTION>_<KEY>, e.g., JYOTISH_EPHEMERIS_AYANAMSA
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".jyotish"))
	v.AddConfigPath("/etc/jyotish")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Storage.ArchivePath = expandHome(cfg.Storage.ArchivePath)
	cfg.Yoga.RulesFile = expandHome(cfg.Yoga.RulesFile)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Ephemeris defaults
	v.SetDefault("ephemeris.ayanamsa", ephemeris.DefaultAyanamsa)
	v.SetDefault("ephemeris.house_system", "P")
	v.SetDefault("ephemeris.mode", "auto")
	v.SetDefault("ephemeris.backend", "")

	// Location defaults (New Delhi, IST)
	v.SetDefault("location.latitude", 28.6139)
	v.SetDefault("location.longitude", 77.2090)
	v.SetDefault("location.tz_offset_hours", 5.5)

	// Predictor defaults
	v.SetDefault("predictor.interval_minutes", 60)
	v.SetDefault("predictor.workers", 4)
	v.SetDefault("predictor.dasha_levels", 2)
	v.SetDefault("predictor.natal_threshold", 4.0)
	v.SetDefault("predictor.max_intervals", 10000)
	v.SetDefault("predictor.top", 10)

	v.SetDefault("dasha.levels", 3)

	v.SetDefault("yoga.rules_file", "~/.jyotish/yogas.yaml")
	v.SetDefault("storage.archive_path", "~/.jyotish/charts.db")

	// API defaults
	v.SetDefault("api.host", "127.0.0.1")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"*"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// expandHome replaces a leading "~/" with the home directory.
func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
