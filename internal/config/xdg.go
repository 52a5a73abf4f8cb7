// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "vigcrack"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultTableDir returns the directory searched for reference tables by name.
func DefaultTableDir() string {
	return filepath.Join(XDGConfigHome(), appName, "tables")
}

// ResolveTablePath turns a bare table name into a path under DefaultTableDir.
// Values containing a path separator or a .toml suffix are returned as is.
func ResolveTablePath(name string) string {
	if name == "" || filepath.Ext(name) == ".toml" || filepath.Base(name) != name {
		return name
	}
	return filepath.Join(DefaultTableDir(), name+".toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}
