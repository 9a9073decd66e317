package yoga

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseDefinitions decodes a rule file body. format is "yaml" or "json".
func ParseDefinitions(data []byte, format string) ([]Definition, error) {
	var defs []Definition
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("parse yoga rules: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, fmt.Errorf("parse yoga rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse yoga rules: unsupported format %q", format)
	}
	return defs, nil
}

// LoadFile reads and compiles a rule file. The format follows the extension:
// .yaml/.yml as YAML, anything else as JSON. A missing file yields the
// built-in rules.
func LoadFile(path string, logger *slog.Logger) (*Detector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("yoga rule file not found, using built-in rules", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read yoga rules: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	defs, err := ParseDefinitions(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	yogas, err := Compile(defs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("yoga rules loaded", "path", path, "count", len(yogas))
	return NewDetector(yogas), nil
}
