package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults without a config file", func(t *testing.T) {
		// Given: a path that does not exist
		path := filepath.Join(t.TempDir(), "missing.yml")

		// When: loading the config
		conf, err := Load(path)

		// Then: every default is applied
		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "8000", conf.HTTPPort)
		assert.Equal(t, 500*time.Millisecond, conf.Game.BotDelay)
		assert.Equal(t, 3, conf.Game.DefaultSize)
		assert.Equal(t, 10, conf.Game.MaxSize)
		assert.Equal(t, 6, conf.Game.RoomIDLength)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, time.Hour, conf.Redis.SnapshotTTL)
		assert.Equal(t, 256, conf.Redis.QueueSize)
	})

	t.Run("Values from the yml file", func(t *testing.T) {
		path := writeConfig(t, `
log-level: debug
http-port: "9000"
game:
  bot-delay: 1s
  max-size: 5
redis:
  enabled: true
  host: redis
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9000", conf.HTTPPort)
		assert.Equal(t, time.Second, conf.Game.BotDelay)
		assert.Equal(t, 5, conf.Game.MaxSize)
		assert.Equal(t, 3, conf.Game.DefaultSize)
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "redis:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, "http-port: \"9000\"\n")
		t.Setenv("HTTP_PORT", "9100")
		t.Setenv("BOT_DELAY", "50ms")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "9100", conf.HTTPPort)
		assert.Equal(t, 50*time.Millisecond, conf.Game.BotDelay)
	})

	t.Run("Default size above max size is rejected", func(t *testing.T) {
		path := writeConfig(t, "game:\n  default-size: 12\n  max-size: 10\n")

		_, err := Load(path)

		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("MustLoad panics on a broken file", func(t *testing.T) {
		path := writeConfig(t, "game: [\n")

		assert.Panics(t, func() { MustLoad(path) })
	})
}
