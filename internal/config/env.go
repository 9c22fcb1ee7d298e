package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EnvDB overrides the SQLite database path.
	EnvDB = "ARCHTYPE_DB"
	// EnvLogLevel overrides the log level.
	EnvLogLevel = "ARCHTYPE_LOG_LEVEL"
)

// LoadDotEnv loads variables from the given .env files without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// DBPath returns the database path, honoring ARCHTYPE_DB.
func DBPath() string {
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		return v
	}
	return DefaultDBPath()
}

// LogLevel resolves the log level: ARCHTYPE_LOG_LEVEL wins over the file.
// An empty result means logging stays off.
func LogLevel(cfg LogConfig) string {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		return v
	}
	if cfg.Level != nil {
		return strings.TrimSpace(*cfg.Level)
	}
	return ""
}

// LogPath returns the configured log file or the XDG default.
func LogPath(cfg LogConfig) string {
	if cfg.File != nil && strings.TrimSpace(*cfg.File) != "" {
		return *cfg.File
	}
	return DefaultLogPath()
}
