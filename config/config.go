package config

import (
	"log/slog"
	"strings"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/marcus-crane/boostboard/shared"
)

const redacted = "<redacted>"

type Config struct {
	Boostboard BoostboardConfig `yaml:"boostboard"`
	Log        LogConfig        `yaml:"log"`
	Pushover   PushoverConfig   `yaml:"pushover"`
}

type BoostboardConfig struct {
	// Empty disables the archive
	ArchivePath          string `env:"BOOSTBOARD_ARCHIVE_PATH" yaml:"archive_path"`
	GroupBoosts          bool   `env:"BOOSTBOARD_GROUP_BOOSTS" yaml:"group_boosts"`
	IncludeEmptyEpisodes bool   `env:"BOOSTBOARD_INCLUDE_EMPTY_EPISODES" yaml:"include_empty_episodes"`
	LogLevel             string `env:"LOG_LEVEL" yaml:"log_level"`
	Title                string `env:"BOOSTBOARD_TITLE" yaml:"title"`
}

type LogConfig struct {
	File       string `env:"LOG_FILE" yaml:"file"`
	MaxSize    int    `env:"LOG_MAX_SIZE" yaml:"max_size"` // megabytes
	MaxBackups int    `env:"LOG_MAX_BACKUPS" yaml:"max_backups"`
	MaxAge     int    `env:"LOG_MAX_AGE" yaml:"max_age"` // days
}

type PushoverConfig struct {
	Recipient string `env:"PUSHOVER_RECIPIENT" yaml:"recipient"`
	Token     string `env:"PUSHOVER_TOKEN" yaml:"token"`
}

func Default() Config {
	return Config{
		Boostboard: BoostboardConfig{
			GroupBoosts: true,
			LogLevel:    "info",
			Title:       shared.DEFAULT_PAGE_TITLE,
		},
		Log: LogConfig{
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load layers an optional YAML file and then the environment over the
// defaults. Anything unset keeps its default.
func Load(path string) (Config, error) {
	cfg := Default()

	c := config.New()
	if path != "" {
		c.AddFeeder(feeder.Yaml{Path: path})
	}
	c.AddFeeder(feeder.Env{})
	c.AddStruct(&cfg)

	if err := c.Feed(); err != nil {
		return cfg, errors.Wrap(err, "could not load config")
	}
	return cfg, nil
}

func (c *Config) PushoverEnabled() bool {
	return c.Pushover.Token != "" && c.Pushover.Recipient != ""
}

// Redacted is a copy that is safe to print
func (c Config) Redacted() Config {
	if c.Pushover.Token != "" {
		c.Pushover.Token = redacted
	}
	if c.Pushover.Recipient != "" {
		c.Pushover.Recipient = redacted
	}
	return c
}

func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return "", errors.Wrap(err, "could not render config")
	}
	return string(out), nil
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Boostboard.LogLevel)
	switch logLevel {
	case "error":
		return slog.LevelError
	case "warning", "warn":
		return slog.LevelWarn
	case "info", "":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
