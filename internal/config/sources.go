package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Source represents where a setting's value comes from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// SettingStatus describes one effective setting.
type SettingStatus struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source Source `json:"source"`
	EnvVar string `json:"env_var"`
}

// Sources reports the effective value and origin of the main settings.
func Sources(cfg *Config) []SettingStatus {
	defaults := viper.New()
	setDefaults(defaults)
	return []SettingStatus{
		checkSetting(defaults, "ephemeris.ayanamsa", cfg.Ephemeris.Ayanamsa),
		checkSetting(defaults, "ephemeris.house_system", cfg.Ephemeris.HouseSystem),
		checkSetting(defaults, "ephemeris.mode", cfg.Ephemeris.Mode),
		checkSetting(defaults, "ephemeris.backend", cfg.Ephemeris.Backend),
		checkSetting(defaults, "location.latitude", cfg.Location.Latitude),
		checkSetting(defaults, "location.longitude", cfg.Location.Longitude),
		checkSetting(defaults, "location.tz_offset_hours", cfg.Location.TZOffsetHours),
		checkSetting(defaults, "predictor.workers", cfg.Predictor.Workers),
		checkSetting(defaults, "yoga.rules_file", cfg.Yoga.RulesFile),
		checkSetting(defaults, "storage.archive_path", cfg.Storage.ArchivePath),
		checkSetting(defaults, "api.port", cfg.API.Port),
		checkSetting(defaults, "logging.level", cfg.Logging.Level),
	}
}

// EnvVar returns the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// checkSetting compares value against its default and the environment.
func checkSetting(defaults *viper.Viper, key string, value any) SettingStatus {
	status := SettingStatus{
		Key:    key,
		Value:  abbreviateHome(fmt.Sprint(value)),
		EnvVar: EnvVar(key),
	}
	def := abbreviateHome(expandHome(fmt.Sprint(defaults.Get(key))))

	switch {
	case os.Getenv(status.EnvVar) != "":
		status.Source = SourceEnv
	case status.Value != def:
		status.Source = SourceConfig
	default:
		status.Source = SourceDefault
	}
	return status
}

// abbreviateHome shows paths under the home directory with a leading "~".
func abbreviateHome(s string) string {
	home := homeDir()
	if home == "." || home == "" {
		return s
	}
	if s == home {
		return "~"
	}
	if strings.HasPrefix(s, home+string(os.PathSeparator)) {
		return "~" + s[len(home):]
	}
	return s
}
