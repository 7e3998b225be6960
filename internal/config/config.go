package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SOLAR_SERVER_ADDR
const EnvPrefix = "SOLAR"

// ServerConfig holds the listener settings
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// GameConfig holds match rules that operators may tune
type GameConfig struct {
	MinPlayers     int           `json:"minPlayers" mapstructure:"minPlayers"`
	MaxPlayers     int           `json:"maxPlayers" mapstructure:"maxPlayers"`
	Countdown      time.Duration `json:"countdown" mapstructure:"countdown"`
	StartingPixels int           `json:"startingPixels" mapstructure:"startingPixels"`
	PingInterval   time.Duration `json:"pingInterval" mapstructure:"pingInterval"`
	Template       string        `json:"template" mapstructure:"template"` // path to a system template; empty uses the built-in map
}

// LogConfig controls the zerolog output
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// SQLiteConfig holds SQLite archive settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"` // empty means in-memory
}

// PostgresConfig holds Postgres archive settings
type PostgresConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the match archive
type StorageConfig struct {
	Type      string         `json:"type" mapstructure:"type"` // none, sqlite or postgres
	QueueSize int            `json:"queueSize" mapstructure:"queueSize"`
	SQLite    SQLiteConfig   `json:"sqlite" mapstructure:"sqlite"`
	Postgres  PostgresConfig `json:"postgres" mapstructure:"postgres"`
}

// NetConfig holds per-connection limits
type NetConfig struct {
	RateLimit      float64  `json:"rateLimit" mapstructure:"rateLimit"` // packets per second
	RateBurst      int      `json:"rateBurst" mapstructure:"rateBurst"`
	SendBuffer     int      `json:"sendBuffer" mapstructure:"sendBuffer"`
	AllowedOrigins []string `json:"allowedOrigins" mapstructure:"allowedOrigins"`
}

// Config is the full server configuration
type Config struct {
	Server  ServerConfig  `json:"server" mapstructure:"server"`
	Game    GameConfig    `json:"game" mapstructure:"game"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Net     NetConfig     `json:"net" mapstructure:"net"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("game.minPlayers", 2)
	v.SetDefault("game.maxPlayers", 8)
	v.SetDefault("game.countdown", "3s")
	v.SetDefault("game.startingPixels", 100)
	v.SetDefault("game.pingInterval", "2s")
	v.SetDefault("game.template", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.queueSize", 1024)
	v.SetDefault("storage.sqlite.path", "")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", "5432")
	v.SetDefault("storage.postgres.username", "postgres")
	v.SetDefault("storage.postgres.password", "postgres")
	v.SetDefault("storage.postgres.database", "solar")

	v.SetDefault("net.rateLimit", 30.0)
	v.SetDefault("net.rateBurst", 60)
	v.SetDefault("net.sendBuffer", 256)
	v.SetDefault("net.allowedOrigins", []string{})
}

// Load reads defaults, then the optional config file at path, then SOLAR_*
// environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Game.MinPlayers < 2 {
		errs = append(errs, fmt.Errorf("game.minPlayers must be at least 2, got %d", c.Game.MinPlayers))
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		errs = append(errs, fmt.Errorf("game.maxPlayers (%d) is below game.minPlayers (%d)", c.Game.MaxPlayers, c.Game.MinPlayers))
	}
	if c.Game.Countdown < 0 {
		errs = append(errs, fmt.Errorf("game.countdown must not be negative"))
	}
	if c.Game.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("game.pingInterval must be positive"))
	}
	switch c.Storage.Type {
	case "none", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown storage type: %s", c.Storage.Type))
	}
	if c.Net.RateLimit <= 0 || c.Net.RateBurst <= 0 {
		errs = append(errs, fmt.Errorf("net.rateLimit and net.rateBurst must be positive"))
	}
	if c.Net.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("net.sendBuffer must be positive"))
	}
	return errors.Join(errs...)
}
