// Package config loads genlist settings from YAML, JSON or TOML files.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults.
const (
	DefaultDatabase = "genlist.db"
	DefaultListen   = "127.0.0.1:8080"
	DefaultLogLevel = "info"
)

// Config holds runtime settings. Zero values mean "unspecified".
type Config struct {
	Database string `json:"database" yaml:"database" toml:"database"`
	Policy   string `json:"policy" yaml:"policy" toml:"policy"`
	Listen   string `json:"listen" yaml:"listen" toml:"listen"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`
	Debug    bool   `json:"debug" yaml:"debug" toml:"debug"`
}

// Default returns a config with every default filled in.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults returns c with unset fields replaced by defaults.
// Policy stays empty: no file means the built-in priority policy.
func (c Config) WithDefaults() Config {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	return c
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
//
// A relative policy path is resolved against the config file's directory.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Policy != "" && !filepath.IsAbs(cfg.Policy) {
		cfg.Policy = filepath.Join(filepath.Dir(path), cfg.Policy)
	}
	if _, err := ParseLevel(cfg.LogLevel); cfg.LogLevel != "" && err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseLevel maps a log_level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
