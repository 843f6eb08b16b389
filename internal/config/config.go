// Package config loads chipforge settings from a YAML file.
//
// Config file locations (priority order):
//  1. $CHIPFORGE_CONFIG
//  2. ./chipforge.yaml
//  3. $XDG_CONFIG_HOME/chipforge/config.yaml
//  4. ~/.config/chipforge/config.yaml
//  5. /etc/chipforge/config.yaml
//
// Command-line flags in cmd/ override whatever is loaded here.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"chipforge/internal/erc"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr     = ":3000"
	defaultDBPath   = "./chipforge.db"
	defaultDebounce = 300 * time.Millisecond
	defaultShutdown = 10 * time.Second
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}
	if c.ERC.Profile == "" {
		c.ERC.Profile = ProfileStandard
	} else {
		c.ERC.Profile = ParseProfile(string(c.ERC.Profile))
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = Duration(defaultDebounce)
	}
	if c.Validate.Workers <= 0 {
		c.Validate.Workers = runtime.NumCPU()
	}
}

// EffectiveERCOptions returns engine options with overrides applied
func (c *Config) EffectiveERCOptions() erc.Options {
	opts := c.ERC.Profile.Options()

	if c.ERC.Strict != nil {
		opts.Strict = *c.ERC.Strict
	}
	if c.ERC.Connectivity != nil {
		opts.Connectivity = *c.ERC.Connectivity
	}

	return opts
}

// ShutdownTimeout returns how long the server waits for in-flight requests
func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeout != nil && *c.Server.ShutdownTimeout > 0 {
		return c.Server.ShutdownTimeout.Duration()
	}
	return defaultShutdown
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	opts := c.EffectiveERCOptions()

	summary := fmt.Sprintf("Server: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("ERC profile: %s (strict=%t, connectivity=%t)\n", c.ERC.Profile, opts.Strict, opts.Connectivity)
	summary += fmt.Sprintf("Watch debounce: %s, Validate workers: %d", c.Watch.Debounce.Duration(), c.Validate.Workers)

	return summary
}
