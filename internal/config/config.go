package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"8000"`
	Game     Game   `yaml:"game"`
	Redis    Redis  `yaml:"redis"`
}

type Game struct {
	BotDelay     time.Duration `yaml:"bot-delay" env:"BOT_DELAY" env-default:"500ms"`
	DefaultSize  int           `yaml:"default-size" env:"DEFAULT_SIZE" env-default:"3"`
	MaxSize      int           `yaml:"max-size" env:"MAX_SIZE" env-default:"10"`
	RoomIDLength int           `yaml:"room-id-length" env:"ROOM_ID_LENGTH" env-default:"6"`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"1h"`
	QueueSize   int           `yaml:"queue-size" env:"REDIS_QUEUE_SIZE" env-default:"256"`
}

// MustLoad - load configuration from the yml file at path, environment
// variables override it. Without the file only the environment is read.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("unable to load config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to load config from env: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to stat config file: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

var ErrInvalidConfig = errors.New("invalid config")

func (that *Config) validate() error {
	if that.Game.MaxSize < 1 {
		return fmt.Errorf("%w: max-size must be positive", ErrInvalidConfig)
	}

	if that.Game.DefaultSize < 1 || that.Game.DefaultSize > that.Game.MaxSize {
		return fmt.Errorf("%w: default-size must be within 1..%d", ErrInvalidConfig, that.Game.MaxSize)
	}

	if that.Game.RoomIDLength < 1 {
		return fmt.Errorf("%w: room-id-length must be positive", ErrInvalidConfig)
	}

	if that.Game.BotDelay < 0 {
		return fmt.Errorf("%w: bot-delay must not be negative", ErrInvalidConfig)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
