package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tichu/internal/factory"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tichu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, factory.StorageTypeMemory, cfg.Storage.Type)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9090
  shutdown_timeout: 3s
heartbeat_interval: 2s
storage:
  type: redis
  redis:
    url: redis://cache:6379
websocket:
  outbound_queue_size: 8
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset fields keep defaults")
	assert.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, "redis://cache:6379", cfg.Storage.Redis.URL)
	assert.Equal(t, 10, cfg.Storage.Redis.PoolSize)
	assert.Equal(t, 8, cfg.WebSocket.OutboundQueueSize)
	assert.Equal(t, int64(64*1024), cfg.WebSocket.MaxMessageSize)

	fc := cfg.FactoryConfig(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379", fc.RedisConfig.URL)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "server:\n  port: 9090\n")
	t.Setenv("TICHU_PORT", "7070")
	t.Setenv("TICHU_HEARTBEAT_INTERVAL", "250ms")
	t.Setenv("TICHU_LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.HeartbeatInterval)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())
}

func TestMemoryStorageHasNoRedisConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.FactoryConfig(nil).RedisConfig)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "server: [", env: nil},
		{name: "unknown storage", file: "storage:\n  type: sqlite\n"},
		{name: "bad duration", file: "heartbeat_interval: soon\n"},
		{name: "zero heartbeat", file: "heartbeat_interval: 0s\n"},
		{name: "bad log level", file: "log_level: loud\n"},
		{name: "bad port env", file: "", env: map[string]string{"TICHU_PORT": "eighty"}},
		{name: "port out of range", file: "server:\n  port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
