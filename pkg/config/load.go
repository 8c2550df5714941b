package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load returns the defaults with the file at path layered on top. An empty
// path searches the standard locations and falls back to the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = FindFile()
	}
	if path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	return cfg, nil
}

// FindFile returns the first settings file in the working directory or
// the user config directory, or "" when there is none.
func FindFile() string {
	var dirs []string
	dirs = append(dirs, ".")
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(d, "splinter"))
	}
	for _, dir := range dirs {
		for _, name := range []string{"splinter.toml", "splinter.yaml", "splinter.yml", "splinter.jsonc", "splinter.json"} {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// LoadFile merges the file at path into cfg. The format follows the
// extension; unknown keys are an error.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Decode(cfg, data, formatOf(path))
}

// Format names a settings file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	// FormatJSON accepts comments and trailing commas.
	FormatJSON Format = "json"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json", ".jsonc":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// Decode merges data in format f into cfg.
func Decode(cfg *Config, data []byte, f Format) error {
	switch f {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
	return fmt.Errorf("config: unknown format %q", f)
}

// Encode renders cfg in format f.
func Encode(cfg *Config, f Format) ([]byte, error) {
	switch f {
	case FormatTOML:
		return toml.Marshal(cfg)
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	}
	return nil, fmt.Errorf("config: unknown format %q", f)
}

// Save writes cfg to path in the format its extension names.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg, formatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
