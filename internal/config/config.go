// Package config loads server settings from defaults, an optional YAML
// file and TICHU_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/tichu/internal/api"
	"github.com/mcoot/tichu/internal/factory"
	"github.com/mcoot/tichu/internal/session"
	redisstorage "github.com/mcoot/tichu/internal/storage/redis"
	"github.com/mcoot/tichu/internal/transport/ws"
)

// Config holds all server settings
type Config struct {
	Server            api.ServerConfig `yaml:"server"`
	HeartbeatInterval time.Duration    `yaml:"heartbeat_interval"`
	Storage           StorageConfig    `yaml:"storage"`
	WebSocket         ws.Config        `yaml:"websocket"`
	LogLevel          string           `yaml:"log_level"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type  string              `yaml:"type"`
	Redis redisstorage.Config `yaml:"redis"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Server:            api.DefaultServerConfig(),
		HeartbeatInterval: session.DefaultHeartbeatInterval,
		Storage: StorageConfig{
			Type:  factory.StorageTypeMemory,
			Redis: redisstorage.DefaultConfig(),
		},
		WebSocket: ws.DefaultConfig(),
		LogLevel:  "info",
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TICHU_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TICHU_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("TICHU_HEARTBEAT_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TICHU_HEARTBEAT_INTERVAL: %w", err)
		}
		c.HeartbeatInterval = d
	}
	if v, ok := lookup("TICHU_STORAGE_TYPE"); ok {
		c.Storage.Type = v
	}
	if v, ok := lookup("TICHU_REDIS_URL"); ok {
		c.Storage.Redis.URL = v
	}
	if v, ok := lookup("TICHU_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return nil
}

// Validate checks settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case factory.StorageTypeMemory, factory.StorageTypeRedis:
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("heartbeat interval must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// FactoryConfig converts the settings into factory options
func (c *Config) FactoryConfig(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:            logger,
		StorageType:       c.Storage.Type,
		HeartbeatInterval: c.HeartbeatInterval,
		WebSocket:         c.WebSocket,
	}
	if c.Storage.Type == factory.StorageTypeRedis {
		redisCfg := c.Storage.Redis
		fc.RedisConfig = &redisCfg
	}
	return fc
}
