package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.Game.MinPlayers)
	assert.Equal(t, 8, cfg.Game.MaxPlayers)
	assert.Equal(t, 3*time.Second, cfg.Game.Countdown)
	assert.Equal(t, 2*time.Second, cfg.Game.PingInterval)
	assert.Equal(t, 100, cfg.Game.StartingPixels)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, 1024, cfg.Storage.QueueSize)
	assert.Equal(t, "", cfg.Storage.SQLite.Path)
	assert.Equal(t, "5432", cfg.Storage.Postgres.Port)
	assert.Equal(t, 30.0, cfg.Net.RateLimit)
	assert.Equal(t, 60, cfg.Net.RateBurst)
	assert.Equal(t, 256, cfg.Net.SendBuffer)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solar.json")
	body := `{
		"server": { "addr": ":9000" },
		"game": { "maxPlayers": 4, "countdown": "5s" },
		"log": { "level": "debug", "pretty": false },
		"storage": { "type": "postgres", "postgres": { "host": "10.0.0.1" } },
		"net": { "allowedOrigins": ["https://example.com"] }
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 4, cfg.Game.MaxPlayers)
	assert.Equal(t, 5*time.Second, cfg.Game.Countdown)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, "postgres", cfg.Storage.Type)
	assert.Equal(t, "10.0.0.1", cfg.Storage.Postgres.Host)
	assert.Equal(t, "solar", cfg.Storage.Postgres.Database)
	assert.Equal(t, []string{"https://example.com"}, cfg.Net.AllowedOrigins)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SOLAR_SERVER_ADDR", ":7777")
	t.Setenv("SOLAR_STORAGE_TYPE", "none")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "none", cfg.Storage.Type)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/solar.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"min players too low", func(c *Config) { c.Game.MinPlayers = 1 }, "minPlayers"},
		{"max below min", func(c *Config) { c.Game.MaxPlayers = 1 }, "maxPlayers"},
		{"bad storage", func(c *Config) { c.Storage.Type = "mongo" }, "unknown storage type"},
		{"zero rate", func(c *Config) { c.Net.RateLimit = 0 }, "rateLimit"},
		{"zero ping interval", func(c *Config) { c.Game.PingInterval = 0 }, "pingInterval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, base().Validate())
}
