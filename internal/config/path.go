package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appName = "binwise"

// ExpandPath expands a leading ~ and $VAR references in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns the directory holding config.yaml.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return ExpandPath(filepath.Join("~", ".config", appName))
}

// DataDir returns the directory holding the database and caches.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	return ExpandPath(filepath.Join("~", ".local", "share", appName))
}

// DefaultDatabasePath is the SQLite file used when database.path is unset.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), appName+".db")
}

// DefaultCacheDir is where offline profile copies are kept.
func DefaultCacheDir() string {
	return filepath.Join(DataDir(), "cache")
}

// DefaultTokenFile is where the Google Sheets OAuth2 token is stored.
func DefaultTokenFile() string {
	return filepath.Join(Dir(), "sheets-token.json")
}
