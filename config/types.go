package config

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// FeedConfig describes the upstream GTFS-RT feed and what to keep from it.
type FeedConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"required,url"`
	RouteID             string `yaml:"routeID" validate:"required"`
	PollIntervalSec     int    `yaml:"pollIntervalSec" validate:"gte=0"`
	TimeoutSec          int    `yaml:"timeoutSec" validate:"gte=0"`
}

func (f FeedConfig) PollInterval() time.Duration {
	return time.Duration(f.PollIntervalSec) * time.Second
}

func (f FeedConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSec) * time.Second
}

// StoreConfig locates the SQLite database file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls log level and the optional rotating file sink.
type LogConfig struct {
	Level      string `yaml:"level"`
	FilePath   string `yaml:"filePath"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

func (l LogConfig) ParsedLevel() log.Level {
	switch strings.ToUpper(l.Level) {
	case "DEBUG":
		return log.DebugLevel
	case "INFO":
		return log.InfoLevel
	case "WARN":
		return log.WarnLevel
	case "ERROR":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Feed    FeedConfig    `yaml:"feed"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}
