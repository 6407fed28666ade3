package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	defaultPollIntervalSec = 60
	defaultTimeoutSec      = 10
	defaultStorePath       = "bus_tracking.db"
	defaultLogMaxAgeDays   = 14
)

// Load reads, validates and defaults the configuration at path.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	v := validator.New()
	if err := v.Struct(cfg.Feed); err != nil {
		return cfg, fmt.Errorf("validate feed config: %w", err)
	}

	if cfg.Feed.PollIntervalSec == 0 {
		cfg.Feed.PollIntervalSec = defaultPollIntervalSec
	}
	if cfg.Feed.TimeoutSec == 0 {
		cfg.Feed.TimeoutSec = defaultTimeoutSec
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = defaultLogMaxAgeDays
	}
	return cfg, nil
}
