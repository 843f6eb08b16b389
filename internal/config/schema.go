package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	ERC      ERCConfig      `yaml:"erc"`
	Watch    WatchConfig    `yaml:"watch"`
	Validate ValidateConfig `yaml:"validate"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string    `yaml:"addr"`
	ShutdownTimeout *Duration `yaml:"shutdown_timeout,omitempty"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ERCConfig selects a strictness profile, with optional per-option overrides
type ERCConfig struct {
	Profile      Profile `yaml:"profile"`
	Strict       *bool   `yaml:"strict,omitempty"`
	Connectivity *bool   `yaml:"connectivity,omitempty"`
}

// WatchConfig holds file watcher settings
type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
	Paths    []string `yaml:"paths,omitempty"` // design files the server re-imports on change
}

// ValidateConfig holds batch validation settings
type ValidateConfig struct {
	Workers int `yaml:"workers"` // concurrent designs in ValidateAll
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
