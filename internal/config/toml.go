// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Game GameConfig `toml:"game"`
	Log  LogConfig  `toml:"log"`
}

// GameConfig maps session-related settings.
type GameConfig struct {
	OnTimeout  *string  `toml:"on-timeout"`
	Sound      *bool    `toml:"sound"`
	Categories []string `toml:"categories"`
	Count      *int     `toml:"count"`
	Catalog    *string  `toml:"catalog"`
	Plain      *bool    `toml:"plain"`
	FocusWeak  *bool    `toml:"focus-weak"`
	WeakTop    *int     `toml:"weak-top"`
	WeakWindow *int     `toml:"weak-window"`
}

// LogConfig maps diagnostic log settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// Template is written by `archtype config` when no file exists yet.
const Template = `# archtype configuration

[game]
# What an expired countdown does: "retry" the same command or "end" the session.
# on-timeout = "retry"
# sound = false
# categories = ["Network", "Package Management"]
# Number of commands per session; 0 plays the whole catalog.
# count = 0
# catalog = "/path/to/commands.txt"
# plain = false
# Play the commands you struggle with first.
# focus-weak = false
# weak-top = 10
# weak-window = 20

[log]
# level = "debug"
# file = "/tmp/archtype.log"
`

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// EnsureTemplate writes Template to path unless a file is already there.
func EnsureTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
