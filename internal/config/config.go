// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the API process.
type Config struct {
	Env          string        `envconfig:"GATEHOUSE_ENV" default:"development"`
	Addr         string        `envconfig:"GATEHOUSE_ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"GATEHOUSE_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"GATEHOUSE_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"GATEHOUSE_IDLE_TIMEOUT" default:"60s"`

	PGDSN string `envconfig:"GATEHOUSE_PG_DSN"`

	// BusCapacity is the per-subscriber event buffer; a lagging subscriber
	// sheds its oldest unread event once the buffer fills.
	BusCapacity int `envconfig:"EVENT_PROCESS_BUS_SIZE" default:"10"`

	RateBurst    int   `envconfig:"GATEHOUSE_RATE_BURST" default:"20"`
	RatePerSec   int   `envconfig:"GATEHOUSE_RATE_PER_SEC" default:"10"`
	MaxBodyBytes int64 `envconfig:"GATEHOUSE_MAX_BODY_BYTES" default:"1048576"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.BusCapacity < 1 {
		return nil, errors.New("event bus size must be positive")
	}
	return &cfg, nil
}

// IsProduction reports whether the process runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
