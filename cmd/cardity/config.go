package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

const envLogLevel = "CARDITY_LOG_LEVEL"

// Config carries CLI-level settings. Everything has a default so a missing
// config file is not an error.
type Config struct {
	LogLevel     string `toml:"log_level"`
	CacheDir     string `toml:"cache_dir"`
	EnableEvents *bool  `toml:"enable_events"`
	MaxEventLog  int    `toml:"max_event_log"`
}

func defaultConfig() Config {
	return Config{LogLevel: "warn"}
}

// LoadConfig reads a TOML config file and fills defaults. An empty path
// returns the defaults; a missing file at an explicit path is an error.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		applyEnvOverrides(&cfg)
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		return Config{}, err
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if lvl := os.Getenv(envLogLevel); lvl != "" {
		cfg.LogLevel = lvl
	}
}

func (c Config) cacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cardity", "cache"), nil
}

func (c Config) eventsEnabled() bool {
	if c.EnableEvents == nil {
		return true
	}
	return *c.EnableEvents
}

func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.WarnLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
