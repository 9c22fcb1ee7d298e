package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Game.OnTimeout)
	assert.Nil(t, cfg.Log.Level)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[game]
on-timeout = "end"
sound = true
categories = ["Network", "Arch-specific"]
count = 20
plain = true

[log]
level = "debug"
file = "/tmp/a.log"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Game.OnTimeout)
	assert.Equal(t, "end", *cfg.Game.OnTimeout)
	require.NotNil(t, cfg.Game.Sound)
	assert.True(t, *cfg.Game.Sound)
	assert.Equal(t, []string{"Network", "Arch-specific"}, cfg.Game.Categories)
	require.NotNil(t, cfg.Game.Count)
	assert.Equal(t, 20, *cfg.Game.Count)
	assert.Nil(t, cfg.Game.Catalog)
	require.NotNil(t, cfg.Log.Level)
	assert.Equal(t, "debug", *cfg.Log.Level)
	assert.Equal(t, "/tmp/a.log", LogPath(cfg.Log))
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[game]\nspeed = 3\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.speed")
}

func TestTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	require.NoError(t, EnsureTemplate(path))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Game.OnTimeout)

	require.NoError(t, os.WriteFile(path, []byte("[game]\ncount = 3\n"), 0o644))
	require.NoError(t, EnsureTemplate(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[game]\ncount = 3\n", string(data), "existing config is left alone")
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	assert.Equal(t, filepath.Join("/cfg", "archtype", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/data", "archtype", "archtype.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join("/state", "archtype", "archtype.log"), DefaultLogPath())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv(EnvDB, "")
	t.Setenv(EnvLogLevel, "")
	assert.Equal(t, DefaultDBPath(), DBPath())
	assert.Equal(t, "", LogLevel(LogConfig{}))

	level := "warn"
	assert.Equal(t, "warn", LogLevel(LogConfig{Level: &level}))

	t.Setenv(EnvDB, "/tmp/other.db")
	t.Setenv(EnvLogLevel, "error")
	assert.Equal(t, "/tmp/other.db", DBPath())
	assert.Equal(t, "error", LogLevel(LogConfig{Level: &level}))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARCHTYPE_DB=/from/dotenv.db\n"), 0o644))

	t.Setenv(EnvDB, "")
	require.NoError(t, os.Unsetenv(EnvDB))
	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "/from/dotenv.db", DBPath())

	t.Setenv(EnvDB, "/from/shell.db")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "/from/shell.db", DBPath(), "existing variables win over .env")
}
