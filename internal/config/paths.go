package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "CHIPFORGE_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "chipforge.yaml"
	// ConfigDirName is the directory under XDG, ~/.config and /etc
	ConfigDirName = "chipforge"
)

// SearchPaths lists candidate config files, highest priority first:
// $CHIPFORGE_CONFIG, ./chipforge.yaml, $XDG_CONFIG_HOME/chipforge/config.yaml,
// ~/.config/chipforge/config.yaml, /etc/chipforge/config.yaml.
// Unset variables contribute no entry.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}

	local := ConfigFileName
	if abs, err := filepath.Abs(local); err == nil {
		local = abs
	}
	paths = append(paths, local)

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, "config.yaml"))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, "config.yaml"))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, "config.yaml"))
}

// FindConfigPath returns the first existing file from SearchPaths, or "" if none exists
func FindConfigPath() string {
	for _, p := range SearchPaths() {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// DefaultConfigPath is where a new per-user config file goes
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, ConfigDirName, "config.yaml")
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}
	return ConfigFileName
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0o755)
}
